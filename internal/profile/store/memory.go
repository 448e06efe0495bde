package store

import (
	"context"
	"maps"
	"sync"
	"time"

	"egresados/internal/profile/models"
	id "egresados/pkg/domain"
	"egresados/pkg/platform/sentinel"
)

// InMemory keeps profiles in a map. Row locking is provided by tx.MemoryRunner,
// so FindByUserIDForUpdate behaves like FindByUserID.
type InMemory struct {
	mu       sync.RWMutex
	profiles map[id.UserID]models.Profile
}

func NewInMemory() *InMemory {
	return &InMemory{profiles: make(map[id.UserID]models.Profile)}
}

func (s *InMemory) FindByUserID(_ context.Context, userID id.UserID) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &p, nil
}

func (s *InMemory) FindByUserIDForUpdate(ctx context.Context, userID id.UserID) (*models.Profile, error) {
	return s.FindByUserID(ctx, userID)
}

func (s *InMemory) FindByUserIDs(_ context.Context, ids []id.UserID) (map[id.UserID]*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[id.UserID]*models.Profile, len(ids))
	for _, userID := range ids {
		if p, ok := s.profiles[userID]; ok {
			out[userID] = &p
		}
	}
	return out, nil
}

func (s *InMemory) Create(_ context.Context, p *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.profiles[p.UserID]; exists {
		return sentinel.ErrAlreadyUsed
	}
	s.profiles[p.UserID] = *p
	return nil
}

func (s *InMemory) Update(_ context.Context, p *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.profiles[p.UserID]; !exists {
		return sentinel.ErrNotFound
	}
	s.profiles[p.UserID] = *p
	return nil
}

func (s *InMemory) CountUpdatedSince(_ context.Context, since time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, p := range s.profiles {
		if p.UpdatedAt.After(since) {
			n++
		}
	}
	return n, nil
}

// Checkpoint implements tx.Checkpointer.
func (s *InMemory) Checkpoint() func() {
	s.mu.RLock()
	saved := maps.Clone(s.profiles)
	s.mu.RUnlock()
	return func() {
		s.mu.Lock()
		s.profiles = saved
		s.mu.Unlock()
	}
}
