package domain

import "context"

// Chat roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// FAQEntry is a single question/answer pair from the knowledge base.
type FAQEntry struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// ChatMessage is one role-tagged turn of a conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Match is a stored question scored against a query.
type Match struct {
	Index int
	Score float64
}

// Answer is the outcome of the retrieval decision rule.
type Answer struct {
	Text       string
	Question   string
	Index      int
	Confidence float64
	Fallback   bool
}

// Fragment is one piece of an incremental reply. A fragment with Err set is
// terminal; the producer closes the channel after sending it.
type Fragment struct {
	Text string
	Err  error
}

// Embedder converts free text into a numeric vector representation.
// Implementations may require a preparation phase over the corpus.
type Embedder interface {
	Name() string
	Prepare(corpus []string) error
	Dimension() int
	Embed(text string) ([]float64, error)
}

// VectorStore holds one vector per question and supports similarity search.
type VectorStore interface {
	Init(dimension int) error
	Upsert(vectors [][]float64) error
	Search(vector []float64, topK int) ([]Match, error)
	Len() int
}

// Summarizer produces a short topics line for a corpus.
type Summarizer interface {
	Topics(corpus []string, maxTerms int) []string
}

// Responder produces the assistant reply for one user turn.
// history holds the prior messages of the session, oldest first, and does
// not include input.
type Responder interface {
	Respond(ctx context.Context, history []ChatMessage, input string) <-chan Fragment
}
