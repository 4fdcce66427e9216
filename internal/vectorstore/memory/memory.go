package memory

import (
	"errors"
	"math"
	"sort"
	"sync"

	"faqbot/internal/domain"
)

// Storage is a simple in-memory vector store using brute-force cosine
// similarity. Vectors are addressed by insertion order.
type Storage struct {
	mu        sync.RWMutex
	dimension int
	vectors   [][]float64
	norms     []float64
}

func NewStorage() *Storage { return &Storage{} }

func (s *Storage) Init(dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dimension = dimension
	s.vectors = nil
	s.norms = nil
	return nil
}

func (s *Storage) Upsert(vectors [][]float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dimension == 0 {
		return errors.New("storage not initialized")
	}
	for _, v := range vectors {
		if len(v) != s.dimension {
			return errors.New("vector dimension mismatch")
		}
	}
	for _, v := range vectors {
		cp := make([]float64, len(v))
		copy(cp, v)
		s.vectors = append(s.vectors, cp)
		s.norms = append(s.norms, norm(cp))
	}
	return nil
}

// Search scores every stored vector against vector and returns the topK
// best, highest first. Equal scores keep insertion order. topK <= 0 returns
// all matches.
func (s *Storage) Search(vector []float64, topK int) ([]domain.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(vector) != s.dimension {
		return nil, errors.New("query dimension mismatch")
	}
	qn := norm(vector)
	matches := make([]domain.Match, len(s.vectors))
	for i := range s.vectors {
		matches[i] = domain.Match{Index: i, Score: cosine(s.vectors[i], s.norms[i], vector, qn)}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if topK <= 0 || topK > len(matches) {
		topK = len(matches)
	}
	return matches[:topK], nil
}

func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vectors)
}

// cosine is dot(a,b)/(|a||b|), 0 when either vector is zero.
func cosine(a []float64, an float64, b []float64, bn float64) float64 {
	if an == 0 || bn == 0 {
		return 0
	}
	return dot(a, b) / (an * bn)
}

func norm(v []float64) float64 {
	return math.Sqrt(dot(v, v))
}

func dot(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
