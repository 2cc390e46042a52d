package templates

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound        = errors.New("templates: not found")
	ErrInvalidArgument = errors.New("templates: invalid argument")
)

// Repository is the persistence contract for templates.
// All reads are organization-scoped.
type Repository interface {
	Create(ctx context.Context, t Template) error
	Get(ctx context.Context, organizationID, id string) (Template, error)
	FindByName(ctx context.Context, organizationID, name, language string) (Template, error)
	List(ctx context.Context, organizationID string) ([]Template, error)
	// Upsert inserts or replaces the template identified by (organization, name, language).
	Upsert(ctx context.Context, t Template) (Template, error)
	// IsReferenced reports whether any delivery log exists for a campaign using the template.
	IsReferenced(ctx context.Context, organizationID, templateID string) (bool, error)
}

type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

func (s *Service) Create(ctx context.Context, t Template) (Template, error) {
	if t.OrganizationID == "" || strings.TrimSpace(t.Name) == "" {
		return Template{}, ErrInvalidArgument
	}
	now := s.clock().UTC()
	t.ID = uuid.NewString()
	if t.Language == "" {
		t.Language = "en_US"
	}
	if t.Status == "" {
		t.Status = StatusApproved
	}
	t.CreatedAt, t.UpdatedAt = now, now
	if err := s.repo.Create(ctx, t); err != nil {
		return Template{}, err
	}
	return t, nil
}

func (s *Service) Get(ctx context.Context, organizationID, id string) (Template, error) {
	if organizationID == "" || id == "" {
		return Template{}, ErrInvalidArgument
	}
	return s.repo.Get(ctx, organizationID, id)
}

func (s *Service) List(ctx context.Context, organizationID string) ([]Template, error) {
	if organizationID == "" {
		return nil, ErrInvalidArgument
	}
	return s.repo.List(ctx, organizationID)
}

// ListApproved returns only templates the provider has approved for sending.
func (s *Service) ListApproved(ctx context.Context, organizationID string) ([]Template, error) {
	all, err := s.List(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	out := make([]Template, 0, len(all))
	for _, t := range all {
		if strings.EqualFold(t.Status, StatusApproved) {
			out = append(out, t)
		}
	}
	return out, nil
}

type SyncResult struct {
	Upserted int `json:"upserted"`
	Frozen   int `json:"frozen"`
}

// Sync mirrors provider templates into the organization.
// Templates already used by a sent campaign keep their stored components.
func (s *Service) Sync(ctx context.Context, organizationID string, remote []Template) (SyncResult, error) {
	if organizationID == "" {
		return SyncResult{}, ErrInvalidArgument
	}
	var res SyncResult
	now := s.clock().UTC()
	for _, t := range remote {
		if strings.TrimSpace(t.Name) == "" {
			continue
		}
		t.OrganizationID = organizationID
		if t.Language == "" {
			t.Language = "en_US"
		}

		existing, err := s.repo.FindByName(ctx, organizationID, t.Name, t.Language)
		switch {
		case err == nil:
			used, err := s.repo.IsReferenced(ctx, organizationID, existing.ID)
			if err != nil {
				return res, err
			}
			if used {
				res.Frozen++
				continue
			}
			t.ID = existing.ID
			t.CreatedAt = existing.CreatedAt
		case errors.Is(err, ErrNotFound):
			t.ID = uuid.NewString()
			t.CreatedAt = now
		default:
			return res, err
		}

		t.UpdatedAt = now
		if _, err := s.repo.Upsert(ctx, t); err != nil {
			return res, err
		}
		res.Upserted++
	}
	return res, nil
}
