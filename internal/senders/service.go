package senders

import (
	"context"
	"errors"
	"strings"
	"time"

	"sales-crm/internal/audit"
	"sales-crm/internal/messaging"
	"sales-crm/internal/templates"
	"sales-crm/pkg/logger"

	"github.com/google/uuid"
)

var (
	ErrNotFound        = errors.New("senders: not found")
	ErrInvalidArgument = errors.New("senders: invalid argument")
)

// Repository is the persistence contract for sender identities.
type Repository interface {
	Create(ctx context.Context, id Identity) error
	Get(ctx context.Context, organizationID, id string) (Identity, error)
	// GetMany returns the identities among ids that belong to the organization.
	GetMany(ctx context.Context, organizationID string, ids []string) ([]Identity, error)
	List(ctx context.Context, organizationID string) ([]Identity, error)
	// FindByPhoneID resolves a receiving line across all organizations.
	FindByPhoneID(ctx context.Context, phoneID string) (Identity, error)
	// Delete detaches the identity from campaigns and purges its delivery logs.
	Delete(ctx context.Context, organizationID, id string) error
}

// TemplateSyncer stores templates fetched from the provider.
type TemplateSyncer interface {
	Sync(ctx context.Context, organizationID string, remote []templates.Template) (templates.SyncResult, error)
}

type auditLog interface {
	LogAdminAction(ctx context.Context, t audit.EventType, organizationID string, actor audit.Actor, campaignID, senderID, message string) error
}

type Service struct {
	repo      Repository
	gateway   messaging.Gateway
	templates TemplateSyncer
	audit     auditLog
	clock     func() time.Time
}

func NewService(repo Repository, gateway messaging.Gateway, tpl TemplateSyncer, al auditLog) *Service {
	return &Service{repo: repo, gateway: gateway, templates: tpl, audit: al, clock: time.Now}
}

type CreateRequest struct {
	Name              string `json:"name"`
	PhoneNumber       string `json:"phone_number"`
	PhoneID           string `json:"phone_id"`
	BusinessAccountID string `json:"business_account_id"`
	APIKey            string `json:"api_key"`
}

func (s *Service) Create(ctx context.Context, organizationID string, req CreateRequest) (Identity, error) {
	if organizationID == "" {
		return Identity{}, ErrInvalidArgument
	}
	if strings.TrimSpace(req.PhoneNumber) == "" || strings.TrimSpace(req.PhoneID) == "" || strings.TrimSpace(req.APIKey) == "" {
		return Identity{}, ErrInvalidArgument
	}
	id := Identity{
		ID:                uuid.NewString(),
		OrganizationID:    organizationID,
		Name:              strings.TrimSpace(req.Name),
		PhoneNumber:       strings.TrimSpace(req.PhoneNumber),
		PhoneID:           strings.TrimSpace(req.PhoneID),
		BusinessAccountID: strings.TrimSpace(req.BusinessAccountID),
		APIKey:            strings.TrimSpace(req.APIKey),
		CreatedAt:         s.clock().UTC(),
	}
	if err := s.repo.Create(ctx, id); err != nil {
		return Identity{}, err
	}
	return id, nil
}

func (s *Service) List(ctx context.Context, organizationID string) ([]Identity, error) {
	if organizationID == "" {
		return nil, ErrInvalidArgument
	}
	return s.repo.List(ctx, organizationID)
}

func (s *Service) Delete(ctx context.Context, organizationID, id string, actor audit.Actor) error {
	if organizationID == "" || id == "" {
		return ErrInvalidArgument
	}
	if _, err := s.repo.Get(ctx, organizationID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, organizationID, id); err != nil {
		return err
	}
	if s.audit != nil {
		if err := s.audit.LogAdminAction(ctx, audit.EventTypeSenderDeleted, organizationID, actor, "", id, "sender identity deleted"); err != nil {
			logger.From(ctx).Warn("audit append failed", "sender_id", id, "err", err)
		}
	}
	return nil
}

func (s *Service) TestConnection(ctx context.Context, organizationID, id string) (messaging.ConnectionInfo, error) {
	sender, err := s.repo.Get(ctx, organizationID, id)
	if err != nil {
		return messaging.ConnectionInfo{}, err
	}
	return s.gateway.TestConnection(ctx, sender.Credentials())
}

// SyncTemplates pulls the sender's business account templates into the organization.
func (s *Service) SyncTemplates(ctx context.Context, organizationID, id string) (templates.SyncResult, error) {
	sender, err := s.repo.Get(ctx, organizationID, id)
	if err != nil {
		return templates.SyncResult{}, err
	}
	remote, err := s.gateway.ListTemplates(ctx, sender.Credentials())
	if err != nil {
		return templates.SyncResult{}, err
	}
	return s.templates.Sync(ctx, organizationID, remote)
}
