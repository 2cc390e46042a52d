package reporting

import (
	"context"
	"errors"
	"sort"

	"sales-crm/internal/campaigns"
)

var ErrInvalidRequest = errors.New("reporting: invalid request")

// Repository reads the aggregates behind campaign reports.
// Every method is scoped to one organization.
type Repository interface {
	Campaigns(ctx context.Context, organizationID string) ([]campaigns.Campaign, error)
	// StatusCounts groups a campaign's delivery logs by status.
	StatusCounts(ctx context.Context, organizationID, campaignID string) (map[campaigns.DeliveryStatus]int, error)
	// FailureReasons lists the distinct error messages of FAILED rows.
	FailureReasons(ctx context.Context, organizationID, campaignID string) ([]string, error)
	ValidRecipients(ctx context.Context, organizationID, listID string) (int, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service { return &Service{repo: repo} }

// CampaignOverview reports every campaign of the organization, newest first.
func (s *Service) CampaignOverview(ctx context.Context, organizationID string) ([]CampaignReport, error) {
	if organizationID == "" {
		return nil, ErrInvalidRequest
	}
	if s.repo == nil {
		return nil, errors.New("reporting: repository not configured")
	}

	cs, err := s.repo.Campaigns(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(cs, func(i, j int) bool { return cs[i].CreatedAt.After(cs[j].CreatedAt) })

	out := make([]CampaignReport, 0, len(cs))
	for _, c := range cs {
		r, err := s.report(ctx, c)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *Service) report(ctx context.Context, c campaigns.Campaign) (CampaignReport, error) {
	r := CampaignReport{
		ID:          c.ID,
		Name:        c.Name,
		Status:      c.Status,
		ListID:      c.ListID,
		TemplateID:  c.TemplateID,
		StartedAt:   c.StartedAt,
		CompletedAt: c.CompletedAt,
		CreatedAt:   c.CreatedAt,
		ErrorList:   []string{},
	}

	counts, err := s.repo.StatusCounts(ctx, c.OrganizationID, c.ID)
	if err != nil {
		return CampaignReport{}, err
	}
	for status, n := range counts {
		r.Stats.add(status, n)
	}
	if r.Stats.Failed > 0 {
		reasons, err := s.repo.FailureReasons(ctx, c.OrganizationID, c.ID)
		if err != nil {
			return CampaignReport{}, err
		}
		r.ErrorList = append(r.ErrorList, reasons...)
	}
	r.TotalRecipients, err = s.repo.ValidRecipients(ctx, c.OrganizationID, c.ListID)
	if err != nil {
		return CampaignReport{}, err
	}
	return r, nil
}
