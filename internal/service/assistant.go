package service

import (
	"context"

	"go.uber.org/zap"

	"faqbot/internal/chat"
	"faqbot/internal/domain"
)

// DefaultHistoryWindow is how many prior messages accompany each request.
const DefaultHistoryWindow = 5

// Completer streams a chat completion for an ordered message list.
type Completer interface {
	Stream(ctx context.Context, messages []domain.ChatMessage) (<-chan domain.Fragment, error)
}

// Assistant answers by forwarding the conversation, grounded by the FAQ
// instruction, to a remote completion service.
type Assistant struct {
	completer   Completer
	instruction string
	window      int
	logger      *zap.Logger
}

func NewAssistant(completer Completer, instruction string, window int, logger *zap.Logger) *Assistant {
	if window <= 0 {
		window = DefaultHistoryWindow
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assistant{completer: completer, instruction: instruction, window: window, logger: logger}
}

// Request assembles the outbound payload: the instruction, the most recent
// window of history and the new user message.
func (a *Assistant) Request(history []domain.ChatMessage, input string) []domain.ChatMessage {
	if len(history) > a.window {
		history = history[len(history)-a.window:]
	}
	msgs := make([]domain.ChatMessage, 0, len(history)+2)
	msgs = append(msgs, domain.ChatMessage{Role: domain.RoleSystem, Content: a.instruction})
	msgs = append(msgs, history...)
	msgs = append(msgs, domain.ChatMessage{Role: domain.RoleUser, Content: input})
	return msgs
}

// Respond implements domain.Responder.
func (a *Assistant) Respond(ctx context.Context, history []domain.ChatMessage, input string) <-chan domain.Fragment {
	ch, err := a.completer.Stream(ctx, a.Request(history, input))
	if err != nil {
		a.logger.Warn("completion request failed", zap.Error(err))
		return chat.Failed(err)
	}
	return ch
}
