package orgs

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory organization repository for tests.
type MemoryRepo struct {
	mu      sync.Mutex
	orgs    map[string]Organization
	members map[string]map[string]bool
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{orgs: map[string]Organization{}, members: map[string]map[string]bool{}}
}

// Put stores an organization with its member user ids.
func (r *MemoryRepo) Put(o Organization, members ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orgs[o.ID] = o
	m := r.members[o.ID]
	if m == nil {
		m = map[string]bool{}
		r.members[o.ID] = m
	}
	for _, u := range members {
		m[u] = true
	}
}

func (r *MemoryRepo) Get(ctx context.Context, id string) (Organization, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orgs[id]
	if !ok {
		return Organization{}, ErrNotFound
	}
	return o, nil
}

func (r *MemoryRepo) IsMember(ctx context.Context, organizationID, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orgs[organizationID]; !ok {
		return false, ErrNotFound
	}
	return r.members[organizationID][userID], nil
}

func (r *MemoryRepo) SetDefaultLeadOwner(ctx context.Context, organizationID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orgs[organizationID]
	if !ok {
		return ErrNotFound
	}
	o.DefaultLeadOwnerID = userID
	r.orgs[organizationID] = o
	return nil
}
