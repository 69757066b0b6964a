// Package memory implements the default flat vector index: brute-force
// cosine similarity over L2-normalized vectors, with a fully deterministic
// result order.
package memory

import (
	"errors"
	"sort"
	"sync"

	"askyourdoc/internal/domain"
)

// Storage is a flat in-memory vector index. Writes happen only during
// knowledge-base build; after that every operation is a read, so concurrent
// searches need no coordination beyond the RWMutex guarding the build phase.
type Storage struct {
	mu        sync.RWMutex
	dimension int
	vectors   [][]float64
	chunks    []domain.KnowledgeChunk
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
	s.chunks = nil
	return nil
}

func (s *Storage) Upsert(chunks []domain.KnowledgeChunk, vectors [][]float64) error {
	if len(chunks) != len(vectors) {
		return errors.New("chunks and vectors length mismatch")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range vectors {
		if len(v) != s.dimension {
			return errors.New("vector dimension mismatch")
		}
	}
	s.chunks = append(s.chunks, chunks...)
	s.vectors = append(s.vectors, vectors...)
	return nil
}

// Search ranks every chunk by cosine similarity, descending. Ties break by
// dataset priority, then ingestion ordinal, so identical queries against an
// unchanged index always return the same ordered results.
func (s *Storage) Search(vector []float64, topK int) ([]domain.SearchResult, error) {
	if topK < 1 {
		return nil, errors.New("topK must be >= 1")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Vectors are L2-normalized at embed time, so the dot product is the
	// cosine similarity.
	scores := make([]float64, len(s.vectors))
	for i := range s.vectors {
		scores[i] = dot(s.vectors[i], vector)
	}
	idxs := make([]int, len(scores))
	for i := range idxs {
		idxs[i] = i
	}
	sort.Slice(idxs, func(a, b int) bool {
		i, j := idxs[a], idxs[b]
		if scores[i] != scores[j] {
			return scores[i] > scores[j]
		}
		if s.chunks[i].Priority != s.chunks[j].Priority {
			return s.chunks[i].Priority < s.chunks[j].Priority
		}
		return s.chunks[i].Ordinal < s.chunks[j].Ordinal
	})

	if topK > len(idxs) {
		topK = len(idxs)
	}
	results := make([]domain.SearchResult, 0, topK)
	for i := 0; i < topK; i++ {
		j := idxs[i]
		results = append(results, domain.SearchResult{Chunk: s.chunks[j], Score: scores[j]})
	}
	return results, nil
}

func (s *Storage) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vectors = nil
	s.chunks = nil
	return nil
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
