package store

import (
	"context"
	"sync"

	"egresados/internal/directory/models"
	id "egresados/pkg/domain"
)

// InMemoryStore holds identities for tests and database-less development.
type InMemoryStore struct {
	mu         sync.RWMutex
	identities map[id.UserID]models.Identity
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{identities: make(map[id.UserID]models.Identity)}
}

// Put registers or replaces an identity.
func (s *InMemoryStore) Put(identity models.Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identities[identity.UserID] = identity
}

// Lookup returns the identities that exist among ids. Unknown ids are omitted.
func (s *InMemoryStore) Lookup(ctx context.Context, ids []id.UserID) (map[id.UserID]models.Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[id.UserID]models.Identity, len(ids))
	for _, userID := range ids {
		if identity, ok := s.identities[userID]; ok {
			out[userID] = identity
		}
	}
	return out, nil
}
