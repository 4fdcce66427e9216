// Package chat drives one user turn: it records the user message, consumes
// the responder's fragment stream and records exactly one assistant reply.
package chat

import (
	"context"
	"errors"
	"strings"

	"faqbot/internal/domain"
)

// DegradedReply replaces the assistant turn whenever the reply stream fails.
const DegradedReply = "I'm having trouble connecting right now. Please try again in a moment."

var errEmptyReply = errors.New("empty reply")

// Turn accumulates the fragments of one assistant reply.
type Turn struct {
	buf strings.Builder
	err error
}

// Apply folds f into the turn and returns the text to render now.
func (t *Turn) Apply(f domain.Fragment) string {
	if t.err != nil {
		return DegradedReply
	}
	if f.Err != nil {
		t.err = f.Err
		return DegradedReply
	}
	t.buf.WriteString(f.Text)
	return t.buf.String()
}

// Fail marks the turn as failed.
func (t *Turn) Fail(err error) {
	if t.err == nil {
		t.err = err
	}
}

// Err returns the failure that ended the turn, if any.
func (t *Turn) Err() error {
	if t.err == nil && strings.TrimSpace(t.buf.String()) == "" {
		return errEmptyReply
	}
	return t.err
}

// Result returns the assistant text to record: the accumulated reply, or
// DegradedReply when the stream failed or produced nothing.
func (t *Turn) Result() string {
	if t.Err() != nil {
		return DegradedReply
	}
	return t.buf.String()
}

// Settle fails the turn when ctx ended while the stream was being consumed.
// A producer may close its channel on cancellation without a terminal
// fragment, so a clean close alone does not mean the reply is complete.
func (t *Turn) Settle(ctx context.Context) {
	if t.err != nil {
		return
	}
	if err := ctx.Err(); err != nil {
		t.Fail(&domain.TransportError{Op: "receive reply", Err: err})
	}
}

// Log is where a turn's messages are recorded.
type Log interface {
	Append(msg domain.ChatMessage)
	All() []domain.ChatMessage
}

// Exchange runs a full turn synchronously. render, if non-nil, is called with
// the growing reply after every fragment. The returned error is the
// recovered stream failure; the log already holds DegradedReply in its place.
func Exchange(ctx context.Context, log Log, r domain.Responder, input string, render func(string)) (string, error) {
	history := log.All()
	log.Append(domain.ChatMessage{Role: domain.RoleUser, Content: input})

	var t Turn
	for f := range r.Respond(ctx, history, input) {
		text := t.Apply(f)
		if render != nil {
			render(text)
		}
	}
	t.Settle(ctx)
	reply := t.Result()
	log.Append(domain.ChatMessage{Role: domain.RoleAssistant, Content: reply})
	return reply, t.Err()
}

// Stream adapts a fixed reply to the fragment protocol: one fragment, then
// close.
func Stream(text string) <-chan domain.Fragment {
	ch := make(chan domain.Fragment, 1)
	ch <- domain.Fragment{Text: text}
	close(ch)
	return ch
}

// Failed returns a stream holding a single terminal error.
func Failed(err error) <-chan domain.Fragment {
	ch := make(chan domain.Fragment, 1)
	ch <- domain.Fragment{Err: err}
	close(ch)
	return ch
}
