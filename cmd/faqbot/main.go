package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"faqbot/internal/config"
	"faqbot/internal/domain"
	"faqbot/internal/embedding/tfidf"
	"faqbot/internal/faq"
	"faqbot/internal/httpapi"
	"faqbot/internal/llm"
	"faqbot/internal/logger"
	"faqbot/internal/prompt"
	"faqbot/internal/service"
	"faqbot/internal/session"
	"faqbot/internal/summarizer"
	"faqbot/internal/tui"
	"faqbot/internal/vectorstore/memory"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ./config.yaml or ~/.config/faqbot/config.yaml if not provided)")
	flag.Parse()

	if err := run(cfgPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfgPath string) error {
	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	store, err := faq.Load(cfg.FAQPath)
	if err != nil {
		log.Error("knowledge base unavailable", zap.String("path", cfg.FAQPath), zap.Error(err))
		return fmt.Errorf("%q could not be loaded; create it in the working directory: %w", cfg.FAQPath, err)
	}
	log.Info("knowledge base loaded", zap.String("path", cfg.FAQPath), zap.Int("entries", store.Len()))

	// Assemble components
	var responder domain.Responder
	var threshold float64
	switch cfg.Mode {
	case config.ModeRetrieval:
		r, err := service.NewRetrieval(store, tfidf.NewEmbedder(), memory.NewStorage(), cfg.Retrieval.Threshold, log)
		if err != nil {
			return err
		}
		responder = r
		threshold = r.Threshold()
	case config.ModeLLM:
		client, err := llm.NewClient(llm.Config{
			APIKey:  cfg.LLM.APIKey,
			BaseURL: cfg.LLM.BaseURL,
			Model:   cfg.LLM.Model,
			Timeout: time.Duration(cfg.LLM.TimeoutSecs) * time.Second,
		}, log)
		if err != nil {
			return err
		}
		instruction := prompt.Build(store, prompt.Options{
			AgentName:      cfg.Prompt.AgentName,
			Company:        cfg.Prompt.Company,
			SupportContact: cfg.Prompt.SupportContact,
		})
		responder = service.NewAssistant(client, instruction, cfg.LLM.HistoryWindow, log)
	default:
		return &domain.ConfigError{Op: "select pipeline", Err: fmt.Errorf("unknown mode %q", cfg.Mode)}
	}

	var sum domain.Summarizer = summarizer.NewFrequencySummarizer()
	topics := sum.Topics(store.Questions(), cfg.Retrieval.TopicCount)
	tagline := summarizer.Tagline(topics)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch cfg.UI {
	case config.UIHTTP:
		srv := httpapi.New(responder, session.NewRegistry(), httpapi.Info{
			Mode:      cfg.Mode,
			Entries:   store.Len(),
			Topics:    topics,
			Tagline:   tagline,
			Threshold: threshold,
		}, log)
		go func() {
			<-ctx.Done()
			_ = srv.Shutdown()
		}()
		return srv.Listen(cfg.Server.Addr)
	default:
		sess := session.New()
		log.Info("session started", zap.String("session", sess.ID()), zap.String("mode", cfg.Mode))
		m := tui.New(ctx, responder, sess, "Customer Support Bot", tagline, log)
		if _, err := tea.NewProgram(m, tea.WithContext(ctx)).Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			return err
		}
		log.Info("session ended", zap.String("session", sess.ID()), zap.Int("messages", sess.Len()))
		return nil
	}
}
