package summarizer

import (
	"sort"
	"strings"

	"faqbot/internal/textproc"
)

// FrequencySummarizer ranks corpus terms by how many texts mention them
// (stopwords filtered).
type FrequencySummarizer struct {
	stopwords map[string]struct{}
}

// NewFrequencySummarizer creates a frequency-based topic ranker.
func NewFrequencySummarizer() *FrequencySummarizer {
	return &FrequencySummarizer{stopwords: textproc.EnglishStopWords()}
}

// Topics returns up to maxTerms terms, most widespread first. Ties are broken
// by total occurrences and then alphabetically so the result is stable.
func (s *FrequencySummarizer) Topics(corpus []string, maxTerms int) []string {
	if maxTerms <= 0 {
		maxTerms = 3
	}
	docFreq := map[string]int{}
	freq := map[string]int{}
	for _, text := range corpus {
		seen := map[string]struct{}{}
		for _, tok := range textproc.ContentTokens(text, s.stopwords) {
			freq[tok]++
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			docFreq[tok]++
		}
	}
	terms := make([]string, 0, len(freq))
	for t := range freq {
		terms = append(terms, t)
	}
	sort.Slice(terms, func(i, j int) bool {
		a, b := terms[i], terms[j]
		if docFreq[a] != docFreq[b] {
			return docFreq[a] > docFreq[b]
		}
		if freq[a] != freq[b] {
			return freq[a] > freq[b]
		}
		return a < b
	})
	if maxTerms > len(terms) {
		maxTerms = len(terms)
	}
	return terms[:maxTerms]
}

// Tagline renders topics as the greeting line shown under the title.
func Tagline(topics []string) string {
	switch len(topics) {
	case 0:
		return "Ask me anything about our service!"
	case 1:
		return "Ask me about " + topics[0] + "!"
	}
	return "Ask me about " + strings.Join(topics[:len(topics)-1], ", ") + ", or " + topics[len(topics)-1] + "!"
}
