package store

import (
	"context"
	"sync"

	"github.com/matzehuels/kagome/pkg/pipeline"
)

// MemoryStore keeps analyses in a map.
type MemoryStore struct {
	mu       sync.RWMutex
	analyses map[string]*pipeline.Analysis
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{analyses: make(map[string]*pipeline.Analysis)}
}

func (s *MemoryStore) Save(ctx context.Context, a *pipeline.Analysis) error {
	if err := ValidateID(a.ID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.analyses[a.ID] = a
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*pipeline.Analysis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.analyses[id]
	if !ok {
		return nil, notFound(id)
	}
	return a, nil
}

func (s *MemoryStore) List(ctx context.Context, limit int) ([]pipeline.Summary, error) {
	s.mu.RLock()
	out := make([]pipeline.Summary, 0, len(s.analyses))
	for _, a := range s.analyses {
		out = append(out, a.Summarize())
	}
	s.mu.RUnlock()

	sortSummaries(out)
	if limit = normalizeLimit(limit); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.analyses[id]; !ok {
		return notFound(id)
	}
	delete(s.analyses, id)
	return nil
}

func (s *MemoryStore) Close() error { return nil }
