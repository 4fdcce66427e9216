// Package llm streams chat completions from an OpenAI-compatible endpoint.
package llm

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"faqbot/internal/domain"
)

// Config configures the completion client.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Client wraps the go-openai streaming API.
type Client struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// NewClient builds a client. An empty API key is a configuration error.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, &domain.ConfigError{Op: "llm client", Err: domain.ErrMissingAPIKey}
	}
	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	return &Client{
		client: openai.NewClientWithConfig(oc),
		model:  cfg.Model,
		logger: logger,
	}, nil
}

// Model returns the configured model identifier.
func (c *Client) Model() string { return c.model }

// Stream sends messages with streaming enabled and yields each content delta
// as a fragment. The channel closes when the reply completes; a failure is
// delivered as a final fragment carrying a *domain.TransportError.
func (c *Client) Stream(ctx context.Context, messages []domain.ChatMessage) (<-chan domain.Fragment, error) {
	oaMsgs := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		oaMsgs = append(oaMsgs, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	req := openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: oaMsgs,
		Stream:   true,
	}
	stream, err := c.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return nil, &domain.TransportError{Op: "create chat completion stream", Err: err}
	}
	c.logger.Debug("completion stream opened", zap.String("model", c.model), zap.Int("messages", len(oaMsgs)))

	ch := make(chan domain.Fragment, 16)
	go func() {
		defer close(ch)
		defer stream.Close()
		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				send(ctx, ch, domain.Fragment{Err: &domain.TransportError{Op: "receive completion", Err: err}})
				return
			}
			if len(resp.Choices) == 0 || resp.Choices[0].Delta.Content == "" {
				continue
			}
			if !send(ctx, ch, domain.Fragment{Text: resp.Choices[0].Delta.Content}) {
				return
			}
		}
	}()
	return ch, nil
}

// send delivers f unless ctx is done, in which case the cancellation is
// reported best-effort and false is returned.
func send(ctx context.Context, ch chan<- domain.Fragment, f domain.Fragment) bool {
	select {
	case ch <- f:
		return true
	case <-ctx.Done():
		select {
		case ch <- domain.Fragment{Err: &domain.TransportError{Op: "receive completion", Err: ctx.Err()}}:
		default:
		}
		return false
	}
}
