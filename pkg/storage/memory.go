package storage

import (
	"context"
	"slices"
	"strings"
	"sync"
)

// MemoryStore keeps records in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

func (s *MemoryStore) Save(_ context.Context, rec *Record) (string, error) {
	prepare(rec)
	if err := checkID(rec.ID); err != nil {
		return "", err
	}
	stored := *rec
	stored.Content = slices.Clone(rec.Content)
	stored.Patterns = slices.Clone(rec.Patterns)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.ID] = stored
	return rec.ID, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Record, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, notFound(id)
	}
	rec.Content = slices.Clone(rec.Content)
	rec.Patterns = slices.Clone(rec.Patterns)
	return &rec, nil
}

func (s *MemoryStore) List(context.Context) ([]Record, error) {
	s.mu.RLock()
	out := make([]Record, 0, len(s.records))
	for _, rec := range s.records {
		rec.Content = nil
		rec.Patterns = slices.Clone(rec.Patterns)
		out = append(out, rec)
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b Record) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return notFound(id)
	}
	delete(s.records, id)
	return nil
}

func (s *MemoryStore) Close(context.Context) error { return nil }

var _ Store = (*MemoryStore)(nil)
