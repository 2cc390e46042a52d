package contacts

import (
	"context"
	"sync"

	"sales-crm/internal/phone"
)

// MemoryRepo is an in-memory contact repository for tests.
type MemoryRepo struct {
	mu       sync.Mutex
	lists    []List
	contacts []Contact
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (r *MemoryRepo) CreateList(ctx context.Context, l List) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lists = append(r.lists, l)
	return nil
}

func (r *MemoryRepo) GetList(ctx context.Context, organizationID, listID string) (List, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.lists {
		if l.ID == listID && l.OrganizationID == organizationID {
			return l, nil
		}
	}
	return List{}, ErrNotFound
}

func (r *MemoryRepo) Lists(ctx context.Context, organizationID string) ([]List, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]List, 0)
	for _, l := range r.lists {
		if l.OrganizationID == organizationID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *MemoryRepo) AddContacts(ctx context.Context, cs []Contact) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.contacts = append(r.contacts, cs...)
	return nil
}

func (r *MemoryRepo) ValidContacts(ctx context.Context, organizationID, listID string) ([]Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Contact, 0)
	for _, c := range r.contacts {
		if c.OrganizationID == organizationID && c.ListID == listID && c.IsValid {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *MemoryRepo) CountValid(ctx context.Context, organizationID, listID string) (int, error) {
	cs, err := r.ValidContacts(ctx, organizationID, listID)
	return len(cs), err
}

func (r *MemoryRepo) GetByIDs(ctx context.Context, organizationID string, ids []string) ([]Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	out := make([]Contact, 0, len(ids))
	for _, c := range r.contacts {
		if _, ok := want[c.ID]; ok && c.OrganizationID == organizationID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *MemoryRepo) FindByPhone(ctx context.Context, organizationID, p string) (Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.contacts {
		if c.OrganizationID == organizationID && phone.Equal(c.Phone, p) {
			return c, nil
		}
	}
	return Contact{}, ErrNotFound
}

func (r *MemoryRepo) InvalidateByPhone(ctx context.Context, organizationID, p, note string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for i := range r.contacts {
		c := &r.contacts[i]
		if c.OrganizationID == organizationID && phone.Equal(c.Phone, p) {
			c.IsValid = false
			c.DuplicateInfo = note
			n++
		}
	}
	return n, nil
}

// All returns a copy of every stored contact.
func (r *MemoryRepo) All() []Contact {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Contact, len(r.contacts))
	copy(out, r.contacts)
	return out
}
