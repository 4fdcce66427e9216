// Package httpapi exposes the chat over HTTP, streaming replies as
// server-sent events.
package httpapi

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"faqbot/internal/chat"
	"faqbot/internal/domain"
	"faqbot/internal/session"
)

// Info describes the running assistant.
type Info struct {
	Mode    string   `json:"mode"`
	Entries int      `json:"entries"`
	Topics  []string `json:"topics"`
	Tagline string   `json:"tagline"`
	// Threshold is the retrieval confidence floor; zero in llm mode.
	Threshold float64 `json:"threshold"`
}

type postMessageRequest struct {
	Content string `json:"content"`
}

type sessionResponse struct {
	ID        string               `json:"id"`
	CreatedAt time.Time            `json:"created_at"`
	Messages  []domain.ChatMessage `json:"messages"`
}

// Server wires the fiber routes to a responder and a session registry.
type Server struct {
	app       *fiber.App
	responder domain.Responder
	sessions  *session.Registry
	info      Info
	logger    *zap.Logger
}

func New(responder domain.Responder, sessions *session.Registry, info Info, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		app:       fiber.New(fiber.Config{AppName: "faqbot", DisableStartupMessage: true}),
		responder: responder,
		sessions:  sessions,
		info:      info,
		logger:    logger,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.app.Get("/healthz", func(c *fiber.Ctx) error { return c.SendString("ok") })

	api := s.app.Group("/api")
	api.Get("/info", s.getInfo)
	api.Post("/sessions", s.createSession)
	api.Get("/sessions/:id/messages", s.listMessages)
	api.Post("/sessions/:id/messages", s.postMessage)
	api.Delete("/sessions/:id", s.endSession)
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App { return s.app }

// Listen serves until Shutdown is called.
func (s *Server) Listen(addr string) error {
	s.logger.Info("http server listening", zap.String("addr", addr))
	return s.app.Listen(addr)
}

func (s *Server) Shutdown() error { return s.app.Shutdown() }

func (s *Server) getInfo(c *fiber.Ctx) error {
	return c.JSON(s.info)
}

func (s *Server) createSession(c *fiber.Ctx) error {
	sess := s.sessions.Create()
	s.logger.Info("session created", zap.String("session", sess.ID()))
	return c.Status(fiber.StatusCreated).JSON(sessionResponse{ID: sess.ID(), CreatedAt: sess.CreatedAt(), Messages: []domain.ChatMessage{}})
}

func (s *Server) endSession(c *fiber.Ctx) error {
	id := c.Params("id")
	if _, err := s.sessions.Get(id); err != nil {
		return s.sessionError(c, err)
	}
	s.sessions.End(id)
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) listMessages(c *fiber.Ctx) error {
	sess, err := s.sessions.Get(c.Params("id"))
	if err != nil {
		return s.sessionError(c, err)
	}
	messages := sess.All()
	if last := c.QueryInt("last"); last > 0 {
		messages = sess.Recent(last)
	}
	return c.JSON(sessionResponse{ID: sess.ID(), CreatedAt: sess.CreatedAt(), Messages: messages})
}

func (s *Server) postMessage(c *fiber.Ctx) error {
	sess, err := s.sessions.Get(c.Params("id"))
	if err != nil {
		return s.sessionError(c, err)
	}
	var req postMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "content is required"})
	}
	// One turn at a time per session; the claim is released by the stream
	// writer once the assistant message is recorded.
	if !sess.BeginTurn() {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "a reply is already in progress"})
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	// The fiber context is recycled once the handler returns, so the stream
	// writer must not touch c.
	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer sess.EndTurn()
		reply, err := chat.Exchange(context.Background(), sess, s.responder, content, func(text string) {
			writeEvent(w, "message", text)
		})
		if err != nil {
			s.logger.Warn("reply replaced by fallback", zap.String("session", sess.ID()), zap.Error(err))
		}
		writeEvent(w, "done", reply)
	}))
	return nil
}

func (s *Server) sessionError(c *fiber.Ctx, err error) error {
	if errors.Is(err, domain.ErrSessionNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "session not found"})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
}

// writeEvent emits one server-sent event; multi-line data becomes several
// data fields.
func writeEvent(w *bufio.Writer, event, data string) {
	fmt.Fprintf(w, "event: %s\n", event)
	for _, line := range strings.Split(data, "\n") {
		fmt.Fprintf(w, "data: %s\n", line)
	}
	fmt.Fprint(w, "\n")
	_ = w.Flush()
}
