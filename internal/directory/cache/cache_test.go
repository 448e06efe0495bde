package cache

import (
	"context"
	"io"
	"log/slog"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"egresados/internal/directory/models"
	"egresados/internal/directory/store"
	id "egresados/pkg/domain"
	"egresados/pkg/platform/circuit"
)

// commandCounter counts commands sent to Redis, including failed ones.
type commandCounter struct {
	n atomic.Int32
}

func (c *commandCounter) DialHook(next redis.DialHook) redis.DialHook { return next }

func (c *commandCounter) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		c.n.Add(1)
		return next(ctx, cmd)
	}
}

func (c *commandCounter) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		c.n.Add(1)
		return next(ctx, cmds)
	}
}

func unreachableRedis(t *testing.T) (*redis.Client, *commandCounter) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	counter := &commandCounter{}
	client.AddHook(counter)
	return client, counter
}

func TestLookupDegradesWhenRedisIsDown(t *testing.T) {
	client, counter := unreachableRedis(t)
	source := store.NewInMemory()
	userID := id.UserID(uuid.New())
	source.Put(models.Identity{UserID: userID, Email: "ana@uni.edu.co", Role: "egresado"})

	breaker := circuit.New("directory-cache", circuit.WithFailureThreshold(2), circuit.WithCooldown(time.Hour))
	c := New(client, source, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)), WithBreaker(breaker))

	for range 2 {
		got, err := c.Lookup(context.Background(), []id.UserID{userID})
		require.NoError(t, err)
		assert.Equal(t, "ana@uni.edu.co", got[userID].Email)
	}
	require.True(t, breaker.IsOpen())
	sent := counter.n.Load()

	got, err := c.Lookup(context.Background(), []id.UserID{userID})
	require.NoError(t, err)
	assert.Equal(t, "ana@uni.edu.co", got[userID].Email)
	assert.Equal(t, sent, counter.n.Load(), "open circuit skips redis")
}
