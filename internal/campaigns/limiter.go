package campaigns

import (
	"context"
	"time"

	"sales-crm/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter caps concurrent send loops per organization using a Redis counter.
// The TTL frees slots leaked by a crashed process.
type RedisLimiter struct {
	rdb   *redis.Client
	limit int
	ttl   time.Duration
}

func NewRedisLimiter(rdb *redis.Client, limit int, ttl time.Duration) *RedisLimiter {
	if limit <= 0 {
		limit = 2
	}
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &RedisLimiter{rdb: rdb, limit: limit, ttl: ttl}
}

func limiterKey(organizationID string) string {
	return "crm:campaign_send:" + organizationID
}

func (l *RedisLimiter) Acquire(ctx context.Context, organizationID string) (bool, error) {
	return utils.AcquireConcurrencyCap(ctx, l.rdb, limiterKey(organizationID), l.limit, l.ttl)
}

func (l *RedisLimiter) Release(ctx context.Context, organizationID string) error {
	return utils.ReleaseConcurrencyCap(ctx, l.rdb, limiterKey(organizationID))
}
