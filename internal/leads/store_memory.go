package leads

import (
	"context"
	"strings"
	"sync"
	"time"

	"sales-crm/internal/phone"
)

// MemoryStore is an in-memory lead store for tests.
// It enforces the same uniqueness rules as the database.
type MemoryStore struct {
	mu           sync.Mutex
	leads        map[string]Lead
	interactions []Interaction
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{leads: map[string]Lead{}}
}

func (s *MemoryStore) Get(ctx context.Context, organizationID, id string) (Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.leads[id]
	if !ok || l.OrganizationID != organizationID {
		return Lead{}, ErrNotFound
	}
	return copyLead(l), nil
}

func (s *MemoryStore) List(ctx context.Context, organizationID string) ([]Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Lead, 0)
	for _, l := range s.leads {
		if l.OrganizationID == organizationID {
			out = append(out, copyLead(l))
		}
	}
	return out, nil
}

func (s *MemoryStore) FindByPhone(ctx context.Context, organizationID, p string) (Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.leads {
		if l.OrganizationID == organizationID && phone.Equal(l.Phone, p) {
			return copyLead(l), nil
		}
	}
	return Lead{}, ErrNotFound
}

func (s *MemoryStore) FindByEmail(ctx context.Context, email string) (Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.leads {
		if strings.EqualFold(l.Email, email) {
			return copyLead(l), nil
		}
	}
	return Lead{}, ErrNotFound
}

func (s *MemoryStore) EmailTaken(ctx context.Context, email string) (bool, error) {
	_, err := s.FindByEmail(ctx, email)
	return err == nil, nil
}

func (s *MemoryStore) Insert(ctx context.Context, l Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, x := range s.leads {
		if x.OrganizationID == l.OrganizationID && phone.Equal(x.Phone, l.Phone) {
			return ErrPhoneTaken
		}
		if strings.EqualFold(x.Email, l.Email) {
			return ErrEmailTaken
		}
	}
	s.leads[l.ID] = copyLead(l)
	return nil
}

func (s *MemoryStore) UpdateContact(ctx context.Context, organizationID, id, name, p string, status Status) (Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.leads[id]
	if !ok || l.OrganizationID != organizationID {
		return Lead{}, ErrNotFound
	}
	for _, x := range s.leads {
		if x.ID != id && x.OrganizationID == organizationID && phone.Equal(x.Phone, p) {
			return Lead{}, ErrPhoneTaken
		}
	}
	l.Name, l.Phone, l.Status = name, p, status
	l.UpdatedAt = time.Now().UTC()
	s.leads[id] = l
	return copyLead(l), nil
}

func (s *MemoryStore) AddHandler(ctx context.Context, organizationID, leadID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.leads[leadID]
	if !ok || l.OrganizationID != organizationID {
		return ErrNotFound
	}
	l.HandlerIDs = appendUnique(l.HandlerIDs, userID)
	s.leads[leadID] = l
	return nil
}

func (s *MemoryStore) AppendInteraction(ctx context.Context, in Interaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.leads[in.LeadID]; !ok {
		return ErrNotFound
	}
	s.interactions = append(s.interactions, in)
	return nil
}

func (s *MemoryStore) Interactions(ctx context.Context, organizationID, leadID string) ([]Interaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Interaction, 0)
	for _, in := range s.interactions {
		if in.OrganizationID == organizationID && in.LeadID == leadID {
			out = append(out, in)
		}
	}
	return out, nil
}

func copyLead(l Lead) Lead {
	l.HandlerIDs = append([]string(nil), l.HandlerIDs...)
	return l
}
