package templates

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory template repository for tests.
type MemoryRepo struct {
	mu        sync.Mutex
	templates map[string]Template

	// Referenced marks template IDs as used by sent campaigns.
	Referenced map[string]bool
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{templates: map[string]Template{}, Referenced: map[string]bool{}}
}

func (r *MemoryRepo) Create(ctx context.Context, t Template) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates[t.ID] = t
	return nil
}

func (r *MemoryRepo) Get(ctx context.Context, organizationID, id string) (Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.templates[id]
	if !ok || t.OrganizationID != organizationID {
		return Template{}, ErrNotFound
	}
	return t, nil
}

func (r *MemoryRepo) FindByName(ctx context.Context, organizationID, name, language string) (Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.templates {
		if t.OrganizationID == organizationID && t.Name == name && t.Language == language {
			return t, nil
		}
	}
	return Template{}, ErrNotFound
}

func (r *MemoryRepo) List(ctx context.Context, organizationID string) ([]Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Template, 0)
	for _, t := range r.templates {
		if t.OrganizationID == organizationID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *MemoryRepo) Upsert(ctx context.Context, t Template) (Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, existing := range r.templates {
		if existing.OrganizationID == t.OrganizationID && existing.Name == t.Name && existing.Language == t.Language {
			t.ID = id
			t.CreatedAt = existing.CreatedAt
			break
		}
	}
	r.templates[t.ID] = t
	return t, nil
}

func (r *MemoryRepo) IsReferenced(ctx context.Context, organizationID, templateID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Referenced[templateID], nil
}
