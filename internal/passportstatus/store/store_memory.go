package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"passport-status/internal/passportstatus/models"
	"passport-status/pkg/platform/sentinel"
)

// InMemory keeps status records in a map guarded by a RWMutex. Insertion order
// is tracked separately so List pages are stable.
type InMemory struct {
	mu      sync.RWMutex
	records map[string]*models.StatusRecord
	order   []string
}

func NewInMemory() *InMemory {
	return &InMemory{records: make(map[string]*models.StatusRecord)}
}

func (s *InMemory) Create(_ context.Context, record *models.StatusRecord) (*models.StatusRecord, error) {
	stored := record.Clone()
	stored.ID = uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[stored.ID] = stored
	s.order = append(s.order, stored.ID)
	return stored.Clone(), nil
}

func (s *InMemory) FindByID(_ context.Context, id string) (*models.StatusRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return r.Clone(), nil
}

// Update runs mutate against a copy of the stored record under the write lock
// and saves the result if mutate succeeds.
func (s *InMemory) Update(_ context.Context, id string, mutate func(*models.StatusRecord) error) (before, after *models.StatusRecord, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.records[id]
	if !ok {
		return nil, nil, sentinel.ErrNotFound
	}
	next := current.Clone()
	if err := mutate(next); err != nil {
		return nil, nil, err
	}
	next.ID = id
	s.records[id] = next
	return current.Clone(), next.Clone(), nil
}

func (s *InMemory) Delete(_ context.Context, id string) (*models.StatusRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	delete(s.records, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return r, nil
}

func (s *InMemory) List(_ context.Context, offset, limit int) ([]*models.StatusRecord, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := len(s.order)
	if offset >= total || limit <= 0 {
		return []*models.StatusRecord{}, total, nil
	}
	end := min(offset+limit, total)
	out := make([]*models.StatusRecord, 0, end-offset)
	for _, id := range s.order[offset:end] {
		out = append(out, s.records[id].Clone())
	}
	return out, total, nil
}

func (s *InMemory) FindMatching(_ context.Context, p models.Predicate) ([]*models.StatusRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.StatusRecord
	for _, id := range s.order {
		r := s.records[id]
		if p.Matches(r) {
			out = append(out, r.Clone())
		}
	}
	return out, nil
}
