package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"egresados/internal/events/models"
	id "egresados/pkg/domain"
	"egresados/pkg/platform/sentinel"
)

func TestInMemoryCatalog(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	t.Run("lists by date and hands out copies", func(t *testing.T) {
		s := NewInMemoryCatalog()
		late := &models.Event{ID: id.NewEventID(), Title: "late", Date: base.Add(48 * time.Hour),
			FormQuestions: []models.Question{{Text: "Talla", Type: models.QuestionSelect, Options: []string{"S"}}}}
		early := &models.Event{ID: id.NewEventID(), Title: "early", Date: base, ImageData: []byte{1}}
		require.NoError(t, s.Insert(ctx, late))
		require.NoError(t, s.Insert(ctx, early))

		events, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, events, 2)
		assert.Equal(t, "early", events[0].Title)
		assert.True(t, events[0].HasImage)
		assert.False(t, events[1].HasImage)

		events[1].FormQuestions[0].Options[0] = "XL"
		again, err := s.FindByID(ctx, late.ID)
		require.NoError(t, err)
		assert.Equal(t, "S", again.FormQuestions[0].Options[0])
	})

	t.Run("update and delete unknown events", func(t *testing.T) {
		s := NewInMemoryCatalog()
		assert.ErrorIs(t, s.Update(ctx, &models.Event{ID: id.NewEventID()}), sentinel.ErrNotFound)
		assert.ErrorIs(t, s.Delete(ctx, id.NewEventID()), sentinel.ErrNotFound)
		_, err := s.FindByIDForUpdate(ctx, id.NewEventID())
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("checkpoint restores deleted events", func(t *testing.T) {
		s := NewInMemoryCatalog()
		e := &models.Event{ID: id.NewEventID(), Title: "x", Date: base}
		require.NoError(t, s.Insert(ctx, e))
		restore := s.Checkpoint()
		require.NoError(t, s.Delete(ctx, e.ID))
		restore()
		_, err := s.FindByID(ctx, e.ID)
		assert.NoError(t, err)
	})
}

func TestInMemoryLedger(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	eventID := id.NewEventID()
	a, b := id.UserID(uuid.New()), id.UserID(uuid.New())

	s := NewInMemoryLedger()
	require.NoError(t, s.Insert(ctx, &models.Registration{EventID: eventID, UserID: a, RegisteredAt: base}))
	require.NoError(t, s.Insert(ctx, &models.Registration{EventID: eventID, UserID: b, RegisteredAt: base.Add(time.Minute)}))
	require.NoError(t, s.Insert(ctx, &models.Registration{EventID: id.NewEventID(), UserID: a, RegisteredAt: base}))

	t.Run("pair uniqueness", func(t *testing.T) {
		err := s.Insert(ctx, &models.Registration{EventID: eventID, UserID: a, RegisteredAt: base.Add(time.Hour)})
		assert.ErrorIs(t, err, sentinel.ErrAlreadyUsed)
		r, err := s.Find(ctx, eventID, a)
		require.NoError(t, err)
		assert.Equal(t, base, r.RegisteredAt)
	})

	t.Run("list newest first", func(t *testing.T) {
		regs, err := s.ListByEvent(ctx, eventID)
		require.NoError(t, err)
		require.Len(t, regs, 2)
		assert.Equal(t, b, regs[0].UserID)
	})

	t.Run("events for user", func(t *testing.T) {
		ids, err := s.EventIDsForUser(ctx, a)
		require.NoError(t, err)
		assert.Len(t, ids, 2)
		assert.Contains(t, ids, eventID)
	})

	t.Run("attendance", func(t *testing.T) {
		require.NoError(t, s.SetAttended(ctx, eventID, b, true))
		r, err := s.Find(ctx, eventID, b)
		require.NoError(t, err)
		assert.True(t, r.Attended)
		assert.ErrorIs(t, s.SetAttended(ctx, id.NewEventID(), b, true), sentinel.ErrNotFound)
	})

	t.Run("delete by event", func(t *testing.T) {
		require.NoError(t, s.DeleteByEvent(ctx, eventID))
		n, err := s.CountByEvent(ctx, eventID)
		require.NoError(t, err)
		assert.Zero(t, n)
		ids, _ := s.EventIDsForUser(ctx, a)
		assert.Len(t, ids, 1)
	})
}
