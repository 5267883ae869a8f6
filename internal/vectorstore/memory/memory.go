package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"recall/internal/domain"
)

// Store is an in-memory vector store using brute-force cosine similarity.
// It implements the domain.Store interface for local runs and tests;
// upserts are last-write-wins on record ID, matching the external index's
// contract.
type Store struct {
	mu        sync.RWMutex
	dimension int
	records   map[string]domain.Record
}

// NewStore creates an empty store bound to the given vector dimension.
func NewStore(dimension int) (*Store, error) {
	if dimension <= 0 {
		return nil, &domain.ConfigurationError{Field: "index.dimension", Reason: "must be positive"}
	}
	return &Store{dimension: dimension, records: make(map[string]domain.Record)}, nil
}

// EnsureIndex is trivially satisfied: the store owns its index.
func (s *Store) EnsureIndex(ctx context.Context) error { return nil }

// Upsert overwrites records sharing an ID and returns the number written.
func (s *Store) Upsert(ctx context.Context, records []domain.Record) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		if len(r.Values) != s.dimension {
			return 0, &domain.DimensionMismatchError{Want: s.dimension, Got: len(r.Values)}
		}
	}
	for _, r := range records {
		s.records[r.ID] = r
	}
	return len(records), nil
}

// Query returns up to topK matches by descending cosine similarity.
// Requesting more matches than stored returns fewer, never an error.
func (s *Store) Query(ctx context.Context, vector []float32, topK int) ([]domain.Match, error) {
	if topK < 1 {
		return nil, fmt.Errorf("topK must be at least 1, got %d", topK)
	}
	if len(vector) != s.dimension {
		return nil, &domain.DimensionMismatchError{Want: s.dimension, Got: len(vector)}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	matches := make([]domain.Match, 0, len(s.records))
	for _, r := range s.records {
		matches = append(matches, domain.Match{ID: r.ID, Score: cosine(r.Values, vector), Metadata: r.Metadata})
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if topK < len(matches) {
		matches = matches[:topK]
	}
	return matches, nil
}

// Count reports the number of stored vectors.
func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

func cosine(a, b []float32) float32 {
	var dot, na, nb float32
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (float32(math.Sqrt(float64(na))) * float32(math.Sqrt(float64(nb))))
}
