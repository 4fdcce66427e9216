package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"faqbot/internal/domain"
	"faqbot/internal/session"
)

type scriptedResponder struct {
	fragments []domain.Fragment
	history   []domain.ChatMessage
	input     string
}

func (r *scriptedResponder) Respond(_ context.Context, history []domain.ChatMessage, input string) <-chan domain.Fragment {
	r.history = history
	r.input = input
	ch := make(chan domain.Fragment, len(r.fragments))
	for _, f := range r.fragments {
		ch <- f
	}
	close(ch)
	return ch
}

func TestExchange_Streams(t *testing.T) {
	s := session.New()
	s.Append(domain.ChatMessage{Role: domain.RoleUser, Content: "earlier"})
	s.Append(domain.ChatMessage{Role: domain.RoleAssistant, Content: "reply"})

	r := &scriptedResponder{fragments: []domain.Fragment{{Text: "We are "}, {Text: "open "}, {Text: "9-5."}}}
	var renders []string
	reply, err := Exchange(context.Background(), s, r, "hours?", func(text string) { renders = append(renders, text) })
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}
	if reply != "We are open 9-5." {
		t.Fatalf("reply = %q", reply)
	}
	want := []string{"We are ", "We are open ", "We are open 9-5."}
	if strings.Join(renders, "|") != strings.Join(want, "|") {
		t.Fatalf("renders = %q", renders)
	}
	if len(r.history) != 2 || r.input != "hours?" {
		t.Fatalf("responder must see prior history only: %+v %q", r.history, r.input)
	}
	all := s.All()
	if len(all) != 4 || all[2].Role != domain.RoleUser || all[3].Content != reply {
		t.Fatalf("log = %+v", all)
	}
}

func TestExchange_TransportFailureRecordsDegradedReply(t *testing.T) {
	s := session.New()
	boom := &domain.TransportError{Op: "stream", Err: errors.New("connection reset by peer")}
	r := &scriptedResponder{fragments: []domain.Fragment{{Text: "partial"}, {Err: boom}}}
	var last string
	reply, err := Exchange(context.Background(), s, r, "hi", func(text string) { last = text })
	if !domain.IsTransportError(err) {
		t.Fatalf("want transport error, got %v", err)
	}
	if reply != DegradedReply || last != DegradedReply {
		t.Fatalf("reply = %q, last render = %q", reply, last)
	}
	all := s.All()
	if all[1].Content != DegradedReply {
		t.Fatalf("log must hold the literal fallback, got %q", all[1].Content)
	}
	if strings.Contains(all[1].Content, "connection reset") {
		t.Fatalf("raw error leaked into the log")
	}
}

func TestExchange_EmptyStream(t *testing.T) {
	s := session.New()
	reply, err := Exchange(context.Background(), s, &scriptedResponder{}, "hi", nil)
	if err == nil || reply != DegradedReply {
		t.Fatalf("empty stream: reply=%q err=%v", reply, err)
	}
	if s.Len() != 2 {
		t.Fatalf("exactly one assistant turn per input, log len %d", s.Len())
	}
}

func TestStreamHelpers(t *testing.T) {
	var got []domain.Fragment
	for f := range Stream("x") {
		got = append(got, f)
	}
	if len(got) != 1 || got[0].Text != "x" {
		t.Fatalf("Stream = %+v", got)
	}
	boom := errors.New("boom")
	for f := range Failed(boom) {
		if !errors.Is(f.Err, boom) {
			t.Fatalf("Failed fragment = %+v", f)
		}
	}
}

func TestExchange_CancelledMidStream(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// The producer saw the cancellation, dropped its terminal fragment and
	// closed the channel after a partial reply.
	s := session.New()
	r := &scriptedResponder{fragments: []domain.Fragment{{Text: "We are op"}}}
	reply, err := Exchange(ctx, s, r, "hours?", nil)
	if reply != DegradedReply {
		t.Fatalf("reply = %q, want degraded reply", reply)
	}
	if !domain.IsTransportError(err) || !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want transport error wrapping context.Canceled", err)
	}
	all := s.All()
	if len(all) != 2 || all[1].Content != DegradedReply {
		t.Fatalf("session = %+v", all)
	}
}

func TestTurnSettle_KeepsEarlierFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var turn Turn
	first := errors.New("boom")
	turn.Apply(domain.Fragment{Err: first})
	turn.Settle(ctx)
	if !errors.Is(turn.Err(), first) {
		t.Fatalf("err = %v", turn.Err())
	}

	var ok Turn
	ok.Apply(domain.Fragment{Text: "done"})
	ok.Settle(context.Background())
	if ok.Err() != nil || ok.Result() != "done" {
		t.Fatalf("live context must not fail the turn: %v", ok.Err())
	}
}
