// Package faq loads the question/answer knowledge base.
package faq

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"faqbot/internal/domain"
)

// Store is the ordered, read-only set of FAQ entries loaded at startup.
type Store struct {
	path    string
	entries []domain.FAQEntry
}

type rawEntry struct {
	Question *string `json:"question"`
	Answer   *string `json:"answer"`
}

type rawFile struct {
	Questions *[]rawEntry `json:"questions"`
}

// Load reads and validates the knowledge base at path. Failures are returned
// as *domain.ConfigError wrapping domain.ErrNotFound or domain.ErrMalformed.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &domain.ConfigError{Op: "load " + path, Err: domain.ErrNotFound}
		}
		return nil, &domain.ConfigError{Op: "load " + path, Err: err}
	}
	entries, err := Parse(data)
	if err != nil {
		return nil, &domain.ConfigError{Op: "load " + path, Err: err}
	}
	return &Store{path: path, entries: entries}, nil
}

// Parse decodes a knowledge base document. Errors wrap domain.ErrMalformed.
func Parse(data []byte) ([]domain.FAQEntry, error) {
	var raw rawFile
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformed, err)
	}
	if raw.Questions == nil {
		return nil, fmt.Errorf("%w: missing \"questions\" list", domain.ErrMalformed)
	}
	if len(*raw.Questions) == 0 {
		return nil, fmt.Errorf("%w: \"questions\" is empty", domain.ErrMalformed)
	}
	entries := make([]domain.FAQEntry, 0, len(*raw.Questions))
	for i, r := range *raw.Questions {
		if r.Question == nil || r.Answer == nil {
			return nil, fmt.Errorf("%w: entry %d needs both \"question\" and \"answer\"", domain.ErrMalformed, i)
		}
		if strings.TrimSpace(*r.Question) == "" {
			return nil, fmt.Errorf("%w: entry %d has a blank question", domain.ErrMalformed, i)
		}
		entries = append(entries, domain.FAQEntry{Question: *r.Question, Answer: *r.Answer})
	}
	return entries, nil
}

// New wraps already validated entries, mostly for tests.
func New(entries []domain.FAQEntry) *Store {
	cp := make([]domain.FAQEntry, len(entries))
	copy(cp, entries)
	return &Store{entries: cp}
}

// Path returns the file the store was loaded from, if any.
func (s *Store) Path() string { return s.path }

// Len returns the number of entries.
func (s *Store) Len() int { return len(s.entries) }

// Entry returns the i-th entry in file order.
func (s *Store) Entry(i int) domain.FAQEntry { return s.entries[i] }

// Entries returns a copy of all entries in file order.
func (s *Store) Entries() []domain.FAQEntry {
	out := make([]domain.FAQEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Questions returns the question texts in file order.
func (s *Store) Questions() []string {
	out := make([]string, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.Question
	}
	return out
}
