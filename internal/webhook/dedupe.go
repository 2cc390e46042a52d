package webhook

import (
	"context"
	"sync"
	"time"

	"sales-crm/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// Deduper reports whether an inbound message id is seen for the first time.
type Deduper interface {
	FirstSeen(ctx context.Context, providerMessageID string) (bool, error)
}

// RedisDeduper remembers message ids for ttl using SETNX.
type RedisDeduper struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisDeduper(rdb redis.Cmdable, ttl time.Duration) *RedisDeduper {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisDeduper{rdb: rdb, ttl: ttl}
}

func (d *RedisDeduper) FirstSeen(ctx context.Context, id string) (bool, error) {
	return utils.ClaimOnce(ctx, d.rdb, "crm:wa_inbound:"+id, d.ttl)
}

// MemoryDeduper never forgets. Tests and single-process development only.
type MemoryDeduper struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewMemoryDeduper() *MemoryDeduper {
	return &MemoryDeduper{seen: map[string]struct{}{}}
}

func (d *MemoryDeduper) FirstSeen(ctx context.Context, id string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.seen[id]; ok {
		return false, nil
	}
	d.seen[id] = struct{}{}
	return true, nil
}
