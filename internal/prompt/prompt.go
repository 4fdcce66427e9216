// Package prompt builds the grounding system instruction for the LLM
// assistant from the FAQ knowledge base.
package prompt

import (
	"fmt"
	"strings"

	"faqbot/internal/domain"
)

// Options personalise the instruction template.
type Options struct {
	AgentName      string
	Company        string
	SupportContact string
}

func (o Options) withDefaults() Options {
	if o.AgentName == "" {
		o.AgentName = "Ava"
	}
	if o.Company == "" {
		o.Company = "our company"
	}
	if o.SupportContact == "" {
		o.SupportContact = "support@example.com"
	}
	return o
}

// Source is anything that can list the FAQ entries.
type Source interface {
	Entries() []domain.FAQEntry
}

const template = `You are %[1]s, a friendly customer support agent for %[2]s.

Rules:
1. Answer ONLY using the information in the FAQ below. Do not invent policies, prices, dates or contact details.
2. If the user greets you or makes small talk, greet them back briefly and offer help with their question.
3. If the FAQ does not contain the answer, reply exactly: "I'm sorry, I don't have that information. Please contact our support team at %[3]s."
4. Keep answers short and in plain language.

FAQ:
%[4]s`

// Build serializes every entry of src into the instruction template.
func Build(src Source, opts Options) string {
	opts = opts.withDefaults()
	return fmt.Sprintf(template, opts.AgentName, opts.Company, opts.SupportContact, FormatEntries(src.Entries()))
}

// FormatEntries renders entries as Q/A blocks separated by blank lines.
func FormatEntries(entries []domain.FAQEntry) string {
	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("Q: ")
		b.WriteString(strings.TrimSpace(e.Question))
		b.WriteString("\nA: ")
		b.WriteString(strings.TrimSpace(e.Answer))
	}
	return b.String()
}
