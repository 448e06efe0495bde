//go:build integration

package cache_test

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"egresados/internal/directory/cache"
	"egresados/internal/directory/models"
	"egresados/internal/directory/store"
	id "egresados/pkg/domain"
	"egresados/pkg/testutil/containers"
)

type countingSource struct {
	inner *store.InMemoryStore
	calls atomic.Int32
	asked atomic.Int32
}

func (c *countingSource) Lookup(ctx context.Context, ids []id.UserID) (map[id.UserID]models.Identity, error) {
	c.calls.Add(1)
	c.asked.Add(int32(len(ids)))
	return c.inner.Lookup(ctx, ids)
}

type CacheSuite struct {
	suite.Suite
	redis  *containers.RedisContainer
	source *countingSource
	cache  *cache.CachedDirectory
}

func TestCacheSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(CacheSuite))
}

func (s *CacheSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
}

func (s *CacheSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
	s.source = &countingSource{inner: store.NewInMemory()}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.cache = cache.New(s.redis.Client, s.source, time.Minute, logger)
}

func (s *CacheSuite) TestReadThrough() {
	ctx := context.Background()
	ana := id.UserID(uuid.New())
	s.source.inner.Put(models.Identity{UserID: ana, Email: "ana@uni.edu.co", Role: "egresado"})

	first, err := s.cache.Lookup(ctx, []id.UserID{ana})
	s.Require().NoError(err)
	s.Equal("ana@uni.edu.co", first[ana].Email)

	second, err := s.cache.Lookup(ctx, []id.UserID{ana})
	s.Require().NoError(err)
	s.Equal(first, second)
	s.Equal(int32(1), s.source.calls.Load(), "second lookup should be served from redis")
}

func (s *CacheSuite) TestOnlyMissesReachSource() {
	ctx := context.Background()
	ana, luis := id.UserID(uuid.New()), id.UserID(uuid.New())
	s.source.inner.Put(models.Identity{UserID: ana, Email: "ana@uni.edu.co"})
	s.source.inner.Put(models.Identity{UserID: luis, Email: "luis@uni.edu.co"})

	_, err := s.cache.Lookup(ctx, []id.UserID{ana})
	s.Require().NoError(err)

	got, err := s.cache.Lookup(ctx, []id.UserID{ana, luis})
	s.Require().NoError(err)
	s.Len(got, 2)
	s.Equal(int32(2), s.source.asked.Load(), "only luis should be fetched on the second call")
}

func (s *CacheSuite) TestEntriesExpire() {
	ctx := context.Background()
	ana := id.UserID(uuid.New())
	s.source.inner.Put(models.Identity{UserID: ana, Email: "ana@uni.edu.co"})

	_, err := s.cache.Lookup(ctx, []id.UserID{ana})
	s.Require().NoError(err)

	ttl, err := s.redis.TTL(ctx, "directory:identity:"+ana.String())
	s.Require().NoError(err)
	s.Greater(ttl, int64(0))
	s.LessOrEqual(ttl, int64(60))
}
