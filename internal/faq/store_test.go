package faq

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"faqbot/internal/domain"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "faq_data.json")
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return p
}

func TestLoad_OK(t *testing.T) {
	p := writeFile(t, `{"questions":[
		{"question":"What are your hours?","answer":"9-5 Mon-Fri"},
		{"question":"What are your hours?","answer":"duplicate"},
		{"question":"Do you ship abroad?","answer":"Yes"}]}`)
	s, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.Len() != 3 {
		t.Fatalf("want 3 entries, got %d", s.Len())
	}
	if s.Entry(0).Answer != "9-5 Mon-Fri" || s.Entry(1).Answer != "duplicate" {
		t.Fatalf("order or duplicates not kept: %+v", s.Entries())
	}
	qs := s.Questions()
	if qs[2] != "Do you ship abroad?" {
		t.Fatalf("unexpected questions: %v", qs)
	}
	if s.Path() != p {
		t.Fatalf("path = %q", s.Path())
	}

	// Entries returns a copy.
	es := s.Entries()
	es[0].Answer = "mutated"
	if s.Entry(0).Answer != "9-5 Mon-Fri" {
		t.Fatalf("store mutated via returned slice")
	}
}

func TestLoad_NotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if !domain.IsConfigError(err) {
		t.Fatalf("want ConfigError, got %v", err)
	}
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestLoad_Malformed(t *testing.T) {
	cases := map[string]string{
		"invalid json":       `{"questions": [`,
		"missing questions":  `{"faq": []}`,
		"null questions":     `{"questions": null}`,
		"empty questions":    `{"questions": []}`,
		"questions not list": `{"questions": "nope"}`,
		"top level list":     `[{"question":"a","answer":"b"}]`,
		"missing answer":     `{"questions":[{"question":"a"}]}`,
		"missing question":   `{"questions":[{"answer":"b"}]}`,
		"wrong type":         `{"questions":[{"question":1,"answer":"b"}]}`,
		"blank question":     `{"questions":[{"question":"  ","answer":"b"}]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeFile(t, body))
			if !domain.IsConfigError(err) {
				t.Fatalf("want ConfigError, got %v", err)
			}
			if !errors.Is(err, domain.ErrMalformed) {
				t.Fatalf("want ErrMalformed, got %v", err)
			}
		})
	}
}

func TestNew_Copies(t *testing.T) {
	in := []domain.FAQEntry{{Question: "q", Answer: "a"}}
	s := New(in)
	in[0].Answer = "changed"
	if s.Entry(0).Answer != "a" {
		t.Fatalf("New must copy its input")
	}
}
