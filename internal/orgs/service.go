package orgs

import (
	"context"
	"errors"

	"sales-crm/internal/audit"
	"sales-crm/pkg/logger"
)

var (
	ErrNotFound        = errors.New("orgs: not found")
	ErrInvalidArgument = errors.New("orgs: invalid argument")
	// ErrNotMember is returned when the proposed owner does not belong to the organization.
	ErrNotMember = errors.New("orgs: user is not a member of the organization")
)

type Repository interface {
	Get(ctx context.Context, id string) (Organization, error)
	IsMember(ctx context.Context, organizationID, userID string) (bool, error)
	SetDefaultLeadOwner(ctx context.Context, organizationID, userID string) error
}

type auditLog interface {
	LogAdminAction(ctx context.Context, t audit.EventType, organizationID string, actor audit.Actor, campaignID, senderID, message string) error
}

type Service struct {
	repo  Repository
	audit auditLog
}

func NewService(repo Repository, al auditLog) *Service {
	return &Service{repo: repo, audit: al}
}

func (s *Service) Get(ctx context.Context, organizationID string) (Organization, error) {
	if organizationID == "" {
		return Organization{}, ErrInvalidArgument
	}
	return s.repo.Get(ctx, organizationID)
}

// DefaultLeadOwner returns the configured owner, or "" when none is set.
func (s *Service) DefaultLeadOwner(ctx context.Context, organizationID string) (string, error) {
	o, err := s.Get(ctx, organizationID)
	if err != nil {
		return "", err
	}
	return o.DefaultLeadOwnerID, nil
}

func (s *Service) SetDefaultLeadOwner(ctx context.Context, organizationID, userID string, actor audit.Actor) (Organization, error) {
	if organizationID == "" || userID == "" {
		return Organization{}, ErrInvalidArgument
	}
	ok, err := s.repo.IsMember(ctx, organizationID, userID)
	if err != nil {
		return Organization{}, err
	}
	if !ok {
		return Organization{}, ErrNotMember
	}
	if err := s.repo.SetDefaultLeadOwner(ctx, organizationID, userID); err != nil {
		return Organization{}, err
	}
	if s.audit != nil {
		if err := s.audit.LogAdminAction(ctx, audit.EventTypeDefaultOwnerChanged, organizationID, actor, "", "", "default lead owner set to "+userID); err != nil {
			logger.From(ctx).Warn("audit append failed", "organization_id", organizationID, "err", err)
		}
	}
	return s.repo.Get(ctx, organizationID)
}
