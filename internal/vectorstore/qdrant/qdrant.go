// Package qdrant is a minimal REST client backend for the vector index.
// It assumes cosine distance and creates the collection if missing. Unlike
// the in-memory store, tie ordering among equal scores is up to the server,
// so the determinism guarantee of Search holds only for the memory backend.
package qdrant

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"askyourdoc/internal/domain"
)

// Storage is a Qdrant-backed vector index.
type Storage struct {
	url        string
	apiKey     string
	collection string
	dimension  int
	client     *http.Client
}

type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

func NewStorage(cfg Config) *Storage {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Storage{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		client:     &http.Client{Timeout: timeout},
	}
}

func (s *Storage) Init(dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	s.dimension = dimension
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	return s.putJSON(fmt.Sprintf("%s/collections/%s", s.url, s.collection), body)
}

func (s *Storage) Upsert(chunks []domain.KnowledgeChunk, vectors [][]float64) error {
	if len(chunks) != len(vectors) {
		return errors.New("chunks and vectors length mismatch")
	}
	points := make([]map[string]any, len(chunks))
	for i := range chunks {
		points[i] = map[string]any{
			"id":     chunks[i].Ordinal,
			"vector": vectors[i],
			"payload": map[string]any{
				"text":      chunks[i].Text,
				"source":    chunks[i].Source,
				"biomarker": chunks[i].Biomarker,
				"tags":      strings.Join(chunks[i].Tags, ","),
				"priority":  chunks[i].Priority,
				"ordinal":   chunks[i].Ordinal,
			},
		}
	}
	body := map[string]any{"points": points}
	return s.putJSON(fmt.Sprintf("%s/collections/%s/points?wait=true", s.url, s.collection), body)
}

func (s *Storage) Search(vector []float64, topK int) ([]domain.SearchResult, error) {
	if topK < 1 {
		return nil, errors.New("topK must be >= 1")
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        topK,
		"with_payload": true,
	}
	var resp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := s.postJSON(fmt.Sprintf("%s/collections/%s/points/search", s.url, s.collection), req, &resp); err != nil {
		return nil, err
	}
	results := make([]domain.SearchResult, 0, len(resp.Result))
	for _, r := range resp.Result {
		chunk := domain.KnowledgeChunk{}
		if v, ok := r.Payload["text"].(string); ok {
			chunk.Text = v
		}
		if v, ok := r.Payload["source"].(string); ok {
			chunk.Source = v
		}
		if v, ok := r.Payload["biomarker"].(string); ok {
			chunk.Biomarker = v
		}
		if v, ok := r.Payload["tags"].(string); ok && v != "" {
			chunk.Tags = strings.Split(v, ",")
		}
		if v, ok := r.Payload["priority"].(float64); ok {
			chunk.Priority = int(v)
		}
		if v, ok := r.Payload["ordinal"].(float64); ok {
			chunk.Ordinal = int(v)
		}
		results = append(results, domain.SearchResult{Chunk: chunk, Score: r.Score})
	}
	return results, nil
}

func (s *Storage) Clear() error {
	return s.deleteJSON(fmt.Sprintf("%s/collections/%s", s.url, s.collection))
}

func (s *Storage) putJSON(url string, body any) error {
	return s.doJSON(http.MethodPut, url, body, nil)
}

func (s *Storage) postJSON(url string, body, out any) error {
	return s.doJSON(http.MethodPost, url, body, out)
}

func (s *Storage) deleteJSON(url string) error {
	return s.doJSON(http.MethodDelete, url, nil, nil)
}

func (s *Storage) doJSON(method, url string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant %s %s: %s", method, url, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
