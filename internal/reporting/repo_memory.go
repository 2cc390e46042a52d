package reporting

import (
	"context"
	"errors"

	"sales-crm/internal/campaigns"
)

type campaignReader interface {
	List(ctx context.Context, organizationID string) ([]campaigns.Campaign, error)
	Logs(ctx context.Context, organizationID, campaignID string) ([]campaigns.DeliveryLog, error)
}

type recipientCounter interface {
	CountValid(ctx context.Context, organizationID, listID string) (int, error)
}

// MemoryRepo derives report aggregates from the campaign and contact repositories.
// Used by tests and the in-memory wiring; Postgres computes them in SQL.
type MemoryRepo struct {
	campaigns campaignReader
	contacts  recipientCounter
}

func NewMemoryRepo(c campaignReader, ct recipientCounter) *MemoryRepo {
	return &MemoryRepo{campaigns: c, contacts: ct}
}

func (r *MemoryRepo) Campaigns(ctx context.Context, organizationID string) ([]campaigns.Campaign, error) {
	if organizationID == "" {
		return nil, errors.New("organization_id required")
	}
	return r.campaigns.List(ctx, organizationID)
}

func (r *MemoryRepo) StatusCounts(ctx context.Context, organizationID, campaignID string) (map[campaigns.DeliveryStatus]int, error) {
	logs, err := r.campaigns.Logs(ctx, organizationID, campaignID)
	if err != nil {
		return nil, err
	}
	out := map[campaigns.DeliveryStatus]int{}
	for _, l := range logs {
		out[l.Status]++
	}
	return out, nil
}

func (r *MemoryRepo) FailureReasons(ctx context.Context, organizationID, campaignID string) ([]string, error) {
	logs, err := r.campaigns.Logs(ctx, organizationID, campaignID)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	out := make([]string, 0)
	for _, l := range logs {
		if l.Status != campaigns.DeliveryFailed || l.ErrorMessage == "" || seen[l.ErrorMessage] {
			continue
		}
		seen[l.ErrorMessage] = true
		out = append(out, l.ErrorMessage)
	}
	return out, nil
}

func (r *MemoryRepo) ValidRecipients(ctx context.Context, organizationID, listID string) (int, error) {
	return r.contacts.CountValid(ctx, organizationID, listID)
}
