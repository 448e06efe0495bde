package store

import (
	"context"
	"slices"
	"sync"

	"egresados/internal/history/models"
	id "egresados/pkg/domain"
)

// InMemory is an append-only entry log. Entries are kept in append order and
// returned newest first, ties broken by append order.
type InMemory struct {
	mu      sync.RWMutex
	entries []models.Entry
}

func NewInMemory() *InMemory {
	return &InMemory{}
}

func (s *InMemory) Append(_ context.Context, entry *models.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, *entry)
	return nil
}

func (s *InMemory) ListByUser(_ context.Context, userID id.UserID) ([]models.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Entry
	for _, e := range s.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return newestFirst(out), nil
}

// ListRecent returns the most recent limit entries across all users (admin-only operation).
func (s *InMemory) ListRecent(_ context.Context, limit int) ([]models.Entry, error) {
	s.mu.RLock()
	all := slices.Clone(s.entries)
	s.mu.RUnlock()

	all = newestFirst(all)
	if limit >= 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func newestFirst(entries []models.Entry) []models.Entry {
	slices.Reverse(entries)
	slices.SortStableFunc(entries, func(a, b models.Entry) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return entries
}

// Checkpoint implements tx.Checkpointer.
func (s *InMemory) Checkpoint() func() {
	s.mu.RLock()
	n := len(s.entries)
	s.mu.RUnlock()
	return func() {
		s.mu.Lock()
		s.entries = s.entries[:n]
		s.mu.Unlock()
	}
}
