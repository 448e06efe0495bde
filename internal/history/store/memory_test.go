package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"egresados/internal/history/models"
	id "egresados/pkg/domain"
)

func TestInMemoryOrdering(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()
	user := id.UserID(uuid.New())
	at := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)

	// Same timestamp: a single update writes all its entries at one instant.
	require.NoError(t, s.Append(ctx, models.NewFieldEntry(user, user, "nombre", nil, "a", at)))
	require.NoError(t, s.Append(ctx, models.NewFieldEntry(user, user, "telefono", nil, "b", at)))
	require.NoError(t, s.Append(ctx, models.NewFieldEntry(user, user, "sede", nil, "c", at.Add(-time.Hour))))
	require.NoError(t, s.Append(ctx, models.NewFieldEntry(id.UserID(uuid.New()), user, "barrio", nil, "d", at.Add(time.Hour))))

	got, err := s.ListByUser(ctx, user)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "telefono", got[0].FieldName)
	assert.Equal(t, "nombre", got[1].FieldName)
	assert.Equal(t, "sede", got[2].FieldName)

	recent, err := s.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "barrio", recent[0].FieldName)
	assert.Equal(t, "telefono", recent[1].FieldName)
}

func TestInMemoryCheckpoint(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()
	user := id.UserID(uuid.New())
	require.NoError(t, s.Append(ctx, models.NewCreatedEntry(user, user, time.Now())))

	restore := s.Checkpoint()
	require.NoError(t, s.Append(ctx, models.NewFieldEntry(user, user, "sede", nil, "x", time.Now())))
	restore()

	got, err := s.ListByUser(ctx, user)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
