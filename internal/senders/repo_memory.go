package senders

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory sender repository for tests.
// Delete does not cascade; there are no campaign rows to detach here.
type MemoryRepo struct {
	mu  sync.Mutex
	ids []Identity
}

func NewMemoryRepo(seed ...Identity) *MemoryRepo {
	return &MemoryRepo{ids: append([]Identity(nil), seed...)}
}

func (r *MemoryRepo) Create(ctx context.Context, id Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, id)
	return nil
}

func (r *MemoryRepo) Get(ctx context.Context, organizationID, id string) (Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.ids {
		if s.ID == id && s.OrganizationID == organizationID {
			return s, nil
		}
	}
	return Identity{}, ErrNotFound
}

func (r *MemoryRepo) GetMany(ctx context.Context, organizationID string, ids []string) ([]Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	out := make([]Identity, 0, len(ids))
	for _, s := range r.ids {
		if _, ok := want[s.ID]; ok && s.OrganizationID == organizationID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *MemoryRepo) List(ctx context.Context, organizationID string) ([]Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Identity, 0)
	for _, s := range r.ids {
		if s.OrganizationID == organizationID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *MemoryRepo) FindByPhoneID(ctx context.Context, phoneID string) (Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.ids {
		if s.PhoneID == phoneID {
			return s, nil
		}
	}
	return Identity{}, ErrNotFound
}

func (r *MemoryRepo) Delete(ctx context.Context, organizationID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, s := range r.ids {
		if s.ID == id && s.OrganizationID == organizationID {
			r.ids = append(r.ids[:i], r.ids[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}
