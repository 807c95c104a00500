package store

import (
	"context"
	"sync"

	"workforce-analyst/internal/models"
	"workforce-analyst/internal/querylang"
)

// MemoryStore keeps the collection in process, in insertion order.
type MemoryStore struct {
	mu    sync.RWMutex
	docs  map[string]models.Record
	order []string
}

func NewMemoryStore(records ...models.Record) *MemoryStore {
	s := &MemoryStore{docs: make(map[string]models.Record)}
	for _, r := range records {
		rec := prepareCreate(r)
		if _, exists := s.docs[rec.ID()]; exists {
			continue
		}
		s.docs[rec.ID()] = rec
		s.order = append(s.order, rec.ID())
	}
	return s
}

func (s *MemoryStore) Get(_ context.Context, id string) (models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return rec.Clone(), nil
}

func (s *MemoryStore) Create(_ context.Context, rec models.Record) (models.Record, error) {
	rec = prepareCreate(rec)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.docs[rec.ID()]; exists {
		return nil, ErrConflict
	}
	s.docs[rec.ID()] = rec
	s.order = append(s.order, rec.ID())
	return rec.Clone(), nil
}

func (s *MemoryStore) Replace(_ context.Context, id string, rec models.Record) (models.Record, error) {
	rec = prepareReplace(id, rec)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.docs[id]; !exists {
		return nil, ErrNotFound
	}
	s.docs[id] = rec
	return rec.Clone(), nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.docs[id]; !exists {
		return ErrNotFound
	}
	delete(s.docs, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *MemoryStore) ReadAll(ctx context.Context) ([]models.Record, error) {
	return s.Query(ctx, querylang.PassThrough())
}

func (s *MemoryStore) Query(ctx context.Context, q querylang.Query) ([]models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Record, 0, len(s.order))
	for _, id := range s.order {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec := s.docs[id]
		if querylang.Eval(q.Where, rec) {
			out = append(out, rec.Clone())
		}
	}
	return out, nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = make(map[string]models.Record)
	s.order = nil
	return nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }
