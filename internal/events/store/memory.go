package store

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"sync"

	"egresados/internal/events/models"
	id "egresados/pkg/domain"
	"egresados/pkg/platform/sentinel"
)

// InMemoryCatalog stores events in a map. Returned events are copies.
type InMemoryCatalog struct {
	mu     sync.RWMutex
	events map[id.EventID]*models.Event
}

func NewInMemoryCatalog() *InMemoryCatalog {
	return &InMemoryCatalog{events: make(map[id.EventID]*models.Event)}
}

func present(e *models.Event) *models.Event {
	c := e.Clone()
	c.HasImage = c.HasStoredImage()
	return c
}

// List returns every event ordered by date ascending.
func (s *InMemoryCatalog) List(_ context.Context) ([]*models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Event, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, present(e))
	}
	slices.SortFunc(out, func(a, b *models.Event) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out, nil
}

func (s *InMemoryCatalog) FindByID(_ context.Context, eventID id.EventID) (*models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.events[eventID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return present(e), nil
}

func (s *InMemoryCatalog) FindByIDForUpdate(ctx context.Context, eventID id.EventID) (*models.Event, error) {
	return s.FindByID(ctx, eventID)
}

func (s *InMemoryCatalog) Insert(_ context.Context, e *models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.events[e.ID]; exists {
		return sentinel.ErrAlreadyUsed
	}
	s.events[e.ID] = e.Clone()
	return nil
}

func (s *InMemoryCatalog) Update(_ context.Context, e *models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.events[e.ID]; !exists {
		return sentinel.ErrNotFound
	}
	s.events[e.ID] = e.Clone()
	return nil
}

func (s *InMemoryCatalog) Delete(_ context.Context, eventID id.EventID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.events[eventID]; !exists {
		return sentinel.ErrNotFound
	}
	delete(s.events, eventID)
	return nil
}

// Checkpoint implements tx.Checkpointer.
func (s *InMemoryCatalog) Checkpoint() func() {
	s.mu.RLock()
	saved := maps.Clone(s.events)
	s.mu.RUnlock()
	return func() {
		s.mu.Lock()
		s.events = saved
		s.mu.Unlock()
	}
}

type registrationKey struct {
	event id.EventID
	user  id.UserID
}

// InMemoryLedger stores registrations keyed by (event, user), which enforces
// one registration per pair.
type InMemoryLedger struct {
	mu            sync.RWMutex
	registrations map[registrationKey]*models.Registration
}

func NewInMemoryLedger() *InMemoryLedger {
	return &InMemoryLedger{registrations: make(map[registrationKey]*models.Registration)}
}

func (s *InMemoryLedger) Insert(_ context.Context, r *models.Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := registrationKey{r.EventID, r.UserID}
	if _, exists := s.registrations[k]; exists {
		return sentinel.ErrAlreadyUsed
	}
	s.registrations[k] = r.Clone()
	return nil
}

func (s *InMemoryLedger) Find(_ context.Context, eventID id.EventID, userID id.UserID) (*models.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.registrations[registrationKey{eventID, userID}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return r.Clone(), nil
}

// ListByEvent returns the event's registrations, most recent first.
func (s *InMemoryLedger) ListByEvent(_ context.Context, eventID id.EventID) ([]*models.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Registration
	for k, r := range s.registrations {
		if k.event == eventID {
			out = append(out, r.Clone())
		}
	}
	slices.SortFunc(out, func(a, b *models.Registration) int {
		if c := b.RegisteredAt.Compare(a.RegisteredAt); c != 0 {
			return c
		}
		return cmp.Compare(a.UserID.String(), b.UserID.String())
	})
	return out, nil
}

func (s *InMemoryLedger) EventIDsForUser(_ context.Context, userID id.UserID) (map[id.EventID]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[id.EventID]struct{})
	for k := range s.registrations {
		if k.user == userID {
			out[k.event] = struct{}{}
		}
	}
	return out, nil
}

func (s *InMemoryLedger) CountByEvent(_ context.Context, eventID id.EventID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for k := range s.registrations {
		if k.event == eventID {
			n++
		}
	}
	return n, nil
}

func (s *InMemoryLedger) SetAttended(_ context.Context, eventID id.EventID, userID id.UserID, attended bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := registrationKey{eventID, userID}
	r, ok := s.registrations[k]
	if !ok {
		return sentinel.ErrNotFound
	}
	c := r.Clone()
	c.Attended = attended
	s.registrations[k] = c
	return nil
}

func (s *InMemoryLedger) DeleteByEvent(_ context.Context, eventID id.EventID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.registrations {
		if k.event == eventID {
			delete(s.registrations, k)
		}
	}
	return nil
}

// Checkpoint implements tx.Checkpointer.
func (s *InMemoryLedger) Checkpoint() func() {
	s.mu.RLock()
	saved := maps.Clone(s.registrations)
	s.mu.RUnlock()
	return func() {
		s.mu.Lock()
		s.registrations = saved
		s.mu.Unlock()
	}
}
