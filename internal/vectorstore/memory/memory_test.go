package memory

import (
	"math"
	"testing"
)

func TestStorage_SearchOrderAndTies(t *testing.T) {
	s := NewStorage()
	if err := s.Init(2); err != nil {
		t.Fatalf("init: %v", err)
	}
	err := s.Upsert([][]float64{
		{0, 1},
		{1, 0},
		{2, 0}, // same direction as index 1
		{1, 1},
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if s.Len() != 4 {
		t.Fatalf("len = %d", s.Len())
	}
	res, err := s.Search([]float64{3, 0}, 0)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(res) != 4 {
		t.Fatalf("want all 4 matches, got %d", len(res))
	}
	if res[0].Index != 1 || res[1].Index != 2 {
		t.Fatalf("ties must keep insertion order: %+v", res)
	}
	if math.Abs(res[0].Score-1) > 1e-12 || math.Abs(res[2].Score-math.Sqrt2/2) > 1e-12 {
		t.Fatalf("unexpected scores: %+v", res)
	}
	if res[3].Index != 0 || res[3].Score != 0 {
		t.Fatalf("orthogonal vector should score 0 last: %+v", res[3])
	}

	top, _ := s.Search([]float64{0, 1}, 1)
	if len(top) != 1 || top[0].Index != 0 {
		t.Fatalf("topK=1: %+v", top)
	}
}

func TestStorage_ZeroQuery(t *testing.T) {
	s := NewStorage()
	_ = s.Init(2)
	_ = s.Upsert([][]float64{{1, 0}, {0, 1}})
	res, err := s.Search([]float64{0, 0}, 1)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if res[0].Index != 0 || res[0].Score != 0 {
		t.Fatalf("zero query should give first index with score 0: %+v", res)
	}
}

func TestStorage_Errors(t *testing.T) {
	s := NewStorage()
	if err := s.Init(0); err == nil {
		t.Fatalf("want error for zero dimension")
	}
	if err := s.Upsert([][]float64{{1}}); err == nil {
		t.Fatalf("want error before init")
	}
	_ = s.Init(2)
	if err := s.Upsert([][]float64{{1, 2, 3}}); err == nil {
		t.Fatalf("want dimension mismatch")
	}
	if _, err := s.Search([]float64{1}, 1); err == nil {
		t.Fatalf("want query dimension mismatch")
	}
}
