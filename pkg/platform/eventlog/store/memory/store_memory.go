package memory

import (
	"context"
	"slices"
	"sync"

	"passport-status/pkg/platform/eventlog"
)

type InMemoryStore struct {
	mu      sync.RWMutex
	entries []eventlog.Entry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, entry eventlog.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry.RecordIDs = slices.Clone(entry.RecordIDs)
	s.entries = append(s.entries, entry)
	return nil
}

// ListByRecord returns the entries referencing recordID, oldest first.
func (s *InMemoryStore) ListByRecord(_ context.Context, recordID string) ([]eventlog.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []eventlog.Entry
	for _, e := range s.entries {
		if slices.Contains(e.RecordIDs, recordID) {
			out = append(out, e)
		}
	}
	return out, nil
}

// ListRecent returns up to limit entries, most recent first.
func (s *InMemoryStore) ListRecent(_ context.Context, limit int) ([]eventlog.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := min(limit, len(s.entries))
	out := make([]eventlog.Entry, 0, max(n, 0))
	for i := len(s.entries) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, s.entries[i])
	}
	return out, nil
}
