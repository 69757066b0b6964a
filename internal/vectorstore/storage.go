// Package vectorstore defines the index abstraction the knowledge base
// builds on, plus its in-memory and Qdrant-backed implementations.
package vectorstore

import "askyourdoc/internal/domain"

// Storage indexes knowledge chunks and supports similarity search.
// Implementations are written to once, during knowledge-base build, and are
// read-only afterwards.
type Storage interface {
	Init(dimension int) error
	Upsert(chunks []domain.KnowledgeChunk, vectors [][]float64) error
	Search(vector []float64, topK int) ([]domain.SearchResult, error)
	Clear() error
}
