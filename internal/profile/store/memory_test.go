package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"egresados/internal/profile/models"
	id "egresados/pkg/domain"
	"egresados/pkg/platform/sentinel"
)

func TestInMemory(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("create then find returns a copy", func(t *testing.T) {
		s := NewInMemory()
		userID := id.UserID(uuid.New())
		require.NoError(t, s.Create(ctx, &models.Profile{UserID: userID, Nombre: "Ana", UpdatedAt: now}))

		p, err := s.FindByUserID(ctx, userID)
		require.NoError(t, err)
		p.Nombre = "mutated"

		again, err := s.FindByUserIDForUpdate(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, "Ana", again.Nombre)
	})

	t.Run("duplicate create is rejected", func(t *testing.T) {
		s := NewInMemory()
		userID := id.UserID(uuid.New())
		require.NoError(t, s.Create(ctx, &models.Profile{UserID: userID}))
		assert.ErrorIs(t, s.Create(ctx, &models.Profile{UserID: userID}), sentinel.ErrAlreadyUsed)
	})

	t.Run("missing profile", func(t *testing.T) {
		s := NewInMemory()
		_, err := s.FindByUserID(ctx, id.UserID(uuid.New()))
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
		assert.ErrorIs(t, s.Update(ctx, &models.Profile{UserID: id.UserID(uuid.New())}), sentinel.ErrNotFound)
	})

	t.Run("batch lookup skips unknown users", func(t *testing.T) {
		s := NewInMemory()
		a, b := id.UserID(uuid.New()), id.UserID(uuid.New())
		require.NoError(t, s.Create(ctx, &models.Profile{UserID: a, Telefono: "1"}))

		got, err := s.FindByUserIDs(ctx, []id.UserID{a, b})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "1", got[a].Telefono)
	})

	t.Run("count updated since is exclusive", func(t *testing.T) {
		s := NewInMemory()
		require.NoError(t, s.Create(ctx, &models.Profile{UserID: id.UserID(uuid.New()), UpdatedAt: now}))
		require.NoError(t, s.Create(ctx, &models.Profile{UserID: id.UserID(uuid.New()), UpdatedAt: now.Add(-time.Hour)}))

		n, err := s.CountUpdatedSince(ctx, now.Add(-time.Minute))
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("checkpoint restores prior state", func(t *testing.T) {
		s := NewInMemory()
		userID := id.UserID(uuid.New())
		require.NoError(t, s.Create(ctx, &models.Profile{UserID: userID, Sede: "Neiva"}))

		restore := s.Checkpoint()
		require.NoError(t, s.Update(ctx, &models.Profile{UserID: userID, Sede: "Garzón"}))
		require.NoError(t, s.Create(ctx, &models.Profile{UserID: id.UserID(uuid.New())}))
		restore()

		p, err := s.FindByUserID(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, "Neiva", p.Sede)
		n, _ := s.CountUpdatedSince(ctx, time.Time{}.Add(-time.Hour))
		assert.Equal(t, 1, n)
	})
}
