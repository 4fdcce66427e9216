package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"faqbot/internal/chat"
	"faqbot/internal/domain"
)

// DefaultThreshold is the confidence floor below which the retrieval
// pipeline declines to answer.
const DefaultThreshold = 0.2

// NoAnswerReply is returned when no question is similar enough.
const NoAnswerReply = "I'm sorry, I don't have an answer for that. Please contact support."

// KnowledgeBase is the read-only view of the FAQ store the services need.
type KnowledgeBase interface {
	Len() int
	Entry(i int) domain.FAQEntry
	Entries() []domain.FAQEntry
	Questions() []string
}

// Retrieval answers questions by ranking the FAQ questions with the
// embedder and returning the best answer above the threshold.
type Retrieval struct {
	kb        KnowledgeBase
	embedder  domain.Embedder
	store     domain.VectorStore
	threshold float64
	logger    *zap.Logger
}

// NewRetrieval fits embedder over every question in kb and indexes the
// question vectors in store. The fitted space is never changed afterwards.
func NewRetrieval(kb KnowledgeBase, embedder domain.Embedder, store domain.VectorStore, threshold float64, logger *zap.Logger) (*Retrieval, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	questions := kb.Questions()
	if err := embedder.Prepare(questions); err != nil {
		return nil, &domain.ConfigError{Op: "fit " + embedder.Name(), Err: err}
	}
	if err := store.Init(embedder.Dimension()); err != nil {
		return nil, &domain.ConfigError{Op: "init vector store", Err: err}
	}
	vectors := make([][]float64, len(questions))
	for i, q := range questions {
		vec, err := embedder.Embed(q)
		if err != nil {
			return nil, &domain.ConfigError{Op: fmt.Sprintf("embed question %d", i), Err: err}
		}
		vectors[i] = vec
	}
	if err := store.Upsert(vectors); err != nil {
		return nil, &domain.ConfigError{Op: "index questions", Err: err}
	}
	logger.Info("retrieval model fitted",
		zap.String("embedder", embedder.Name()),
		zap.Int("questions", len(questions)),
		zap.Int("vocabulary", embedder.Dimension()),
		zap.Float64("threshold", threshold))
	return &Retrieval{kb: kb, embedder: embedder, store: store, threshold: threshold, logger: logger}, nil
}

// Threshold returns the confidence floor.
func (s *Retrieval) Threshold() float64 { return s.threshold }

// Score returns the index of the most similar question and its cosine
// similarity in [0,1]. Ties go to the lowest index.
func (s *Retrieval) Score(query string) (int, float64, error) {
	vec, err := s.embedder.Embed(query)
	if err != nil {
		return 0, 0, err
	}
	res, err := s.store.Search(vec, 1)
	if err != nil {
		return 0, 0, err
	}
	if len(res) == 0 {
		return 0, 0, fmt.Errorf("no questions indexed")
	}
	return res[0].Index, clamp01(res[0].Score), nil
}

// Answer applies the decision rule to query.
func (s *Retrieval) Answer(query string) (domain.Answer, error) {
	idx, conf, err := s.Score(query)
	if err != nil {
		return domain.Answer{}, err
	}
	entry := s.kb.Entry(idx)
	if conf < s.threshold {
		s.logger.Debug("low confidence match",
			zap.String("query", query), zap.Int("index", idx), zap.Float64("confidence", conf))
		return domain.Answer{Text: NoAnswerReply, Question: entry.Question, Index: idx, Confidence: conf, Fallback: true}, nil
	}
	s.logger.Debug("matched question",
		zap.String("query", query), zap.Int("index", idx), zap.Float64("confidence", conf))
	return domain.Answer{Text: entry.Answer, Question: entry.Question, Index: idx, Confidence: conf}, nil
}

// Respond implements domain.Responder with a single-fragment reply.
func (s *Retrieval) Respond(_ context.Context, _ []domain.ChatMessage, input string) <-chan domain.Fragment {
	ans, err := s.Answer(input)
	if err != nil {
		s.logger.Error("scoring failed", zap.Error(err))
		return chat.Stream(NoAnswerReply)
	}
	return chat.Stream(ans.Text)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
