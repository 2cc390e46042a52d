package campaigns

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MemoryRepo is an in-memory campaign repository for tests.
// Status transitions are atomic under its mutex.
type MemoryRepo struct {
	mu        sync.Mutex
	campaigns map[string]Campaign
	logs      []DeliveryLog
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{campaigns: map[string]Campaign{}}
}

func (r *MemoryRepo) Create(ctx context.Context, c Campaign) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.campaigns[c.ID] = c
	return nil
}

func (r *MemoryRepo) Get(ctx context.Context, organizationID, id string) (Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.campaigns[id]
	if !ok || c.OrganizationID != organizationID {
		return Campaign{}, ErrNotFound
	}
	return c, nil
}

func (r *MemoryRepo) List(ctx context.Context, organizationID string) ([]Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Campaign, 0)
	for _, c := range r.campaigns {
		if c.OrganizationID == organizationID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *MemoryRepo) TransitionStatus(ctx context.Context, organizationID, id string, from []Status, to Status, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.campaigns[id]
	if !ok || c.OrganizationID != organizationID {
		return false, ErrNotFound
	}
	matched := false
	for _, f := range from {
		if c.Status == f {
			matched = true
			break
		}
	}
	if !matched {
		return false, nil
	}
	c.Status = to
	switch to {
	case StatusSending:
		c.StartedAt = &at
		c.CompletedAt = nil
	case StatusCompleted:
		c.CompletedAt = &at
	}
	r.campaigns[id] = c
	return true, nil
}

func (r *MemoryRepo) Delete(ctx context.Context, organizationID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.campaigns[id]
	if !ok || c.OrganizationID != organizationID {
		return ErrNotFound
	}
	delete(r.campaigns, id)
	kept := r.logs[:0]
	for _, l := range r.logs {
		if l.CampaignID != id {
			kept = append(kept, l)
		}
	}
	r.logs = kept
	return nil
}

func (r *MemoryRepo) AppendLog(ctx context.Context, l DeliveryLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, l)
	return nil
}

func (r *MemoryRepo) Logs(ctx context.Context, organizationID, campaignID string) ([]DeliveryLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]DeliveryLog, 0)
	for _, l := range r.logs {
		if l.OrganizationID == organizationID && l.CampaignID == campaignID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *MemoryRepo) FailedContactIDs(ctx context.Context, organizationID, campaignID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := map[string]struct{}{}
	out := make([]string, 0)
	for _, l := range r.logs {
		if l.OrganizationID != organizationID || l.CampaignID != campaignID || l.Status != DeliveryFailed {
			continue
		}
		if _, ok := seen[l.ContactID]; ok {
			continue
		}
		seen[l.ContactID] = struct{}{}
		out = append(out, l.ContactID)
	}
	return out, nil
}

func (r *MemoryRepo) ApplyDeliveryStatus(ctx context.Context, u StatusUpdate, at time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for i := range r.logs {
		l := &r.logs[i]
		if u.ProviderMessageID == "" || l.ProviderMessageID != u.ProviderMessageID {
			continue
		}
		l.Status = DeliveryStatus(strings.ToUpper(u.Status))
		if u.ErrorCode != "" || u.ErrorMessage != "" {
			l.ErrorCode = u.ErrorCode
			l.ErrorMessage = u.ErrorMessage
		}
		l.UpdatedAt = at
		n++
	}
	return n, nil
}

// AllLogs returns a copy of every stored delivery log.
func (r *MemoryRepo) AllLogs() []DeliveryLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]DeliveryLog, len(r.logs))
	copy(out, r.logs)
	return out
}
