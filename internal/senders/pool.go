package senders

import (
	"errors"
	"math/rand"
	"sync"
	"time"
)

var ErrEmptyPool = errors.New("senders: pool has no identities")

// Pool picks a sender identity per outbound message.
// Selection is uniform random with no affinity; provider rate limits are left to the provider.
type Pool struct {
	ids []Identity

	mu  sync.Mutex
	rng *rand.Rand
}

// NewPool copies ids. A nil rng is seeded from the clock.
func NewPool(ids []Identity, rng *rand.Rand) (*Pool, error) {
	if len(ids) == 0 {
		return nil, ErrEmptyPool
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	cp := make([]Identity, len(ids))
	copy(cp, ids)
	return &Pool{ids: cp, rng: rng}, nil
}

func (p *Pool) Pick() Identity {
	if len(p.ids) == 1 {
		return p.ids[0]
	}
	p.mu.Lock()
	i := p.rng.Intn(len(p.ids))
	p.mu.Unlock()
	return p.ids[i]
}

func (p *Pool) Len() int { return len(p.ids) }
