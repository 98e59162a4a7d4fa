package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/shelfmark/shelfmark/engine"
)

// MemoryStore implements Store with in-process maps. It copies works in
// and out so two callers never share a mutable record, and it applies the
// same version discipline as the Postgres store so the sweep path behaves
// identically in tests.
type MemoryStore struct {
	mu       sync.RWMutex
	settings *engine.Settings
	works    map[string]engine.Work
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		works: make(map[string]engine.Work),
	}
}

func (s *MemoryStore) LoadSettings(ctx context.Context) (engine.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.settings == nil {
		return engine.DefaultSettings(), nil
	}
	return *s.settings, nil
}

func (s *MemoryStore) SaveSettings(ctx context.Context, settings engine.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = &settings
	return nil
}

func (s *MemoryStore) AddWork(ctx context.Context, work *engine.Work) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if work.ID == "" {
		return fmt.Errorf("work id cannot be empty")
	}
	if _, exists := s.works[work.ID]; exists {
		return fmt.Errorf("work with id %s already exists", work.ID)
	}
	if work.Version == 0 {
		work.Version = 1
	}
	s.works[work.ID] = *work
	return nil
}

func (s *MemoryStore) GetWork(ctx context.Context, id string) (*engine.Work, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, exists := s.works[id]
	if !exists {
		return nil, fmt.Errorf("work %s: %w", id, ErrNotFound)
	}
	return &w, nil
}

func (s *MemoryStore) ListWorks(ctx context.Context) ([]*engine.Work, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*engine.Work, 0, len(s.works))
	for _, w := range s.works {
		w := w
		out = append(out, &w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) UpdateWork(ctx context.Context, work *engine.Work) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.works[work.ID]
	if !exists {
		return fmt.Errorf("work %s: %w", work.ID, ErrNotFound)
	}
	if existing.Version != work.Version {
		return fmt.Errorf("work %s: %w", work.ID, ErrVersionConflict)
	}
	work.Version++
	s.works[work.ID] = *work
	return nil
}

func (s *MemoryStore) DeleteWork(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.works[id]; !exists {
		return fmt.Errorf("work %s: %w", id, ErrNotFound)
	}
	delete(s.works, id)
	return nil
}

func (s *MemoryStore) Close() error { return nil }
