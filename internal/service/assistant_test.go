package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"faqbot/internal/chat"
	"faqbot/internal/domain"
	"faqbot/internal/session"
)

type fakeCompleter struct {
	got       []domain.ChatMessage
	fragments []domain.Fragment
	err       error
}

func (f *fakeCompleter) Stream(_ context.Context, messages []domain.ChatMessage) (<-chan domain.Fragment, error) {
	f.got = messages
	if f.err != nil {
		return nil, f.err
	}
	ch := make(chan domain.Fragment, len(f.fragments))
	for _, fr := range f.fragments {
		ch <- fr
	}
	close(ch)
	return ch, nil
}

func TestAssistant_RequestWindow(t *testing.T) {
	a := NewAssistant(&fakeCompleter{}, "INSTRUCTION", 0, nil)
	var history []domain.ChatMessage
	for i := 0; i < 8; i++ {
		history = append(history, domain.ChatMessage{Role: domain.RoleUser, Content: fmt.Sprint(i)})
	}
	msgs := a.Request(history, "new")
	if len(msgs) != 1+DefaultHistoryWindow+1 {
		t.Fatalf("want %d messages, got %d", DefaultHistoryWindow+2, len(msgs))
	}
	if msgs[0].Role != domain.RoleSystem || msgs[0].Content != "INSTRUCTION" {
		t.Fatalf("first message must be the instruction: %+v", msgs[0])
	}
	if msgs[1].Content != "3" || msgs[5].Content != "7" {
		t.Fatalf("window must hold the last 5 messages: %+v", msgs)
	}
	if last := msgs[len(msgs)-1]; last.Role != domain.RoleUser || last.Content != "new" {
		t.Fatalf("last message must be the new input: %+v", last)
	}

	short := a.Request(history[:2], "q")
	if len(short) != 4 {
		t.Fatalf("short history: %+v", short)
	}
}

func TestAssistant_StreamsIntoSession(t *testing.T) {
	fc := &fakeCompleter{fragments: []domain.Fragment{{Text: "We ship "}, {Text: "worldwide."}}}
	a := NewAssistant(fc, "INSTRUCTION", 5, nil)
	s := session.New()
	s.Append(domain.ChatMessage{Role: domain.RoleUser, Content: "hi"})
	s.Append(domain.ChatMessage{Role: domain.RoleAssistant, Content: "Hello!"})

	var renders []string
	reply, err := chat.Exchange(context.Background(), s, a, "Do you ship abroad?", func(text string) {
		renders = append(renders, text)
	})
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}
	if reply != "We ship worldwide." || len(renders) != 2 || renders[0] != "We ship " {
		t.Fatalf("reply=%q renders=%q", reply, renders)
	}
	if len(fc.got) != 4 || fc.got[1].Content != "hi" || fc.got[3].Content != "Do you ship abroad?" {
		t.Fatalf("request = %+v", fc.got)
	}
	if s.Len() != 4 {
		t.Fatalf("session len = %d", s.Len())
	}
}

func TestAssistant_TransportFailure(t *testing.T) {
	fc := &fakeCompleter{err: &domain.TransportError{Op: "create chat completion stream", Err: errors.New("dial tcp: connection refused")}}
	a := NewAssistant(fc, "INSTRUCTION", 5, nil)
	s := session.New()

	reply, err := chat.Exchange(context.Background(), s, a, "hello?", nil)
	if !domain.IsTransportError(err) {
		t.Fatalf("want transport error, got %v", err)
	}
	if reply != chat.DegradedReply {
		t.Fatalf("reply = %q", reply)
	}
	if got := s.All()[1].Content; got != chat.DegradedReply {
		t.Fatalf("session must record the literal fallback, got %q", got)
	}
}
