package recordings

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// The cached count lives under a versioned key and Invalidate bumps the
// version instead of deleting. A read that snapshotted the store before a
// write can then only write back under a version no later read consults, so
// a slow read can never re-poison the cache after an invalidation.
const (
	countVersionKey = "recordings:count:version"
	countKeyPrefix  = "recordings:count:v"
)

// DefaultCountTTL bounds staleness when an external writer touches the table
// behind the API's back; writes through the API invalidate immediately.
const DefaultCountTTL = 30 * time.Second

// CountCache caches the recordings count in Redis for the stats screen, which
// polls the count endpoint. A nil *CountCache is valid and disables caching.
type CountCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCountCache creates a count cache. ttl <= 0 uses DefaultCountTTL.
func NewCountCache(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *CountCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = DefaultCountTTL
	}
	return &CountCache{rdb: rdb, ttl: ttl, logger: logger}
}

// Get returns the cached count, the cache version the lookup observed, and
// whether the count was present. On a miss the caller recomputes and must
// hand the version back to Set unchanged; an Invalidate in between makes
// that Set a no-op for future reads. Redis errors are treated as a miss with
// an empty version, which Set ignores.
func (c *CountCache) Get(ctx context.Context) (int, string, bool) {
	if c == nil || c.rdb == nil {
		return 0, "", false
	}
	version, err := c.rdb.Get(ctx, countVersionKey).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("count cache version read failed", zap.Error(err))
			return 0, "", false
		}
		version = "0"
	}
	v, err := c.rdb.Get(ctx, countKeyPrefix+version).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("count cache get failed", zap.Error(err))
		}
		return 0, version, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, version, false
	}
	return n, version, true
}

// Set stores the count under the version observed by the preceding Get, with
// the configured TTL. A version bumped since that Get leaves the write-back
// orphaned under the old key, where it expires unread.
func (c *CountCache) Set(ctx context.Context, version string, n int) {
	if c == nil || c.rdb == nil || version == "" {
		return
	}
	if err := c.rdb.Set(ctx, countKeyPrefix+version, strconv.Itoa(n), c.ttl).Err(); err != nil {
		c.logger.Warn("count cache set failed", zap.Error(err))
	}
}

// Invalidate bumps the cache version. Called after every create and delete so
// the next count read recomputes, and any in-flight read's write-back lands
// under the superseded version.
func (c *CountCache) Invalidate(ctx context.Context) {
	if c == nil || c.rdb == nil {
		return
	}
	if err := c.rdb.Incr(ctx, countVersionKey).Err(); err != nil {
		c.logger.Warn("count cache invalidate failed", zap.Error(err))
	}
}
