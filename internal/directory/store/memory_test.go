package store

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"egresados/internal/directory/models"
	id "egresados/pkg/domain"
)

func TestInMemoryLookup(t *testing.T) {
	s := NewInMemory()
	known := id.UserID(uuid.New())
	unknown := id.UserID(uuid.New())
	s.Put(models.Identity{UserID: known, Email: "ana@uni.edu.co", Role: "egresado"})

	got, err := s.Lookup(context.Background(), []id.UserID{known, unknown})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ana@uni.edu.co", got[known].Email)
	_, ok := got[unknown]
	assert.False(t, ok)
}

func TestInMemoryLookupCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewInMemory().Lookup(ctx, []id.UserID{id.UserID(uuid.New())})
	require.ErrorIs(t, err, context.Canceled)
}
