// Package cache provides a Redis read-through cache in front of the user directory.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"egresados/internal/directory/models"
	id "egresados/pkg/domain"
	"egresados/pkg/platform/circuit"
)

const keyPrefix = "directory:identity:"

// Source is the authoritative directory behind the cache.
type Source interface {
	Lookup(ctx context.Context, ids []id.UserID) (map[id.UserID]models.Identity, error)
}

// CachedDirectory serves identities from Redis and falls back to Source for misses.
// Redis failures degrade to direct Source reads, and repeated failures open a
// circuit that bypasses Redis until a probe succeeds.
type CachedDirectory struct {
	client  redis.UniversalClient
	source  Source
	ttl     time.Duration
	logger  *slog.Logger
	breaker *circuit.Breaker
}

type Option func(*CachedDirectory)

// WithBreaker replaces the default Redis circuit breaker.
func WithBreaker(b *circuit.Breaker) Option {
	return func(c *CachedDirectory) {
		c.breaker = b
	}
}

func New(client redis.UniversalClient, source Source, ttl time.Duration, logger *slog.Logger, opts ...Option) *CachedDirectory {
	c := &CachedDirectory{
		client:  client,
		source:  source,
		ttl:     ttl,
		logger:  logger,
		breaker: circuit.New("directory-cache", circuit.WithCooldown(15*time.Second)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func key(userID id.UserID) string {
	return keyPrefix + userID.String()
}

func (c *CachedDirectory) Lookup(ctx context.Context, ids []id.UserID) (map[id.UserID]models.Identity, error) {
	out := make(map[id.UserID]models.Identity, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	keys := make([]string, len(ids))
	for i, userID := range ids {
		keys[i] = key(userID)
	}

	if !c.breaker.Allow() {
		return c.source.Lookup(ctx, ids)
	}
	values, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		c.logger.WarnContext(ctx, "directory cache read failed", "error", err)
		c.recordFailure(ctx)
		return c.source.Lookup(ctx, ids)
	}
	c.recordSuccess(ctx)

	var misses []id.UserID
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			misses = append(misses, ids[i])
			continue
		}
		var identity models.Identity
		if err := json.Unmarshal([]byte(raw), &identity); err != nil {
			misses = append(misses, ids[i])
			continue
		}
		out[ids[i]] = identity
	}
	if len(misses) == 0 {
		return out, nil
	}

	found, err := c.source.Lookup(ctx, misses)
	if err != nil {
		return nil, err
	}

	pipe := c.client.Pipeline()
	for userID, identity := range found {
		out[userID] = identity
		payload, err := json.Marshal(identity)
		if err != nil {
			continue
		}
		pipe.Set(ctx, key(userID), payload, c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		c.logger.WarnContext(ctx, "directory cache fill failed", "error", err)
		c.recordFailure(ctx)
	}
	return out, nil
}

func (c *CachedDirectory) recordFailure(ctx context.Context) {
	if _, change := c.breaker.RecordFailure(); change.Opened {
		c.logger.WarnContext(ctx, "directory cache circuit opened, reading from source")
	}
}

func (c *CachedDirectory) recordSuccess(ctx context.Context) {
	if _, change := c.breaker.RecordSuccess(); change.Closed {
		c.logger.InfoContext(ctx, "directory cache circuit closed")
	}
}
