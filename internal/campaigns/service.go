package campaigns

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"sales-crm/internal/audit"
	"sales-crm/internal/contacts"
	"sales-crm/pkg/logger"

	"github.com/google/uuid"
)

// ContactStore reads lists and contacts for validation and recovery.
type ContactStore interface {
	GetList(ctx context.Context, organizationID, listID string) (contacts.List, error)
	GetByIDs(ctx context.Context, organizationID string, ids []string) ([]contacts.Contact, error)
}

type ListImporter interface {
	ImportList(ctx context.Context, organizationID, name string, cs []contacts.Contact) (contacts.List, error)
}

type auditLog interface {
	LogAdminAction(ctx context.Context, t audit.EventType, organizationID string, actor audit.Actor, campaignID, senderID, message string) error
}

// Service manages campaign records around the dispatcher.
type Service struct {
	repo      Repository
	contacts  ContactStore
	importer  ListImporter
	templates TemplateSource
	senders   SenderSource
	audit     auditLog
	clock     func() time.Time
}

func NewService(repo Repository, cs ContactStore, importer ListImporter, tpl TemplateSource, snd SenderSource, al auditLog) *Service {
	return &Service{
		repo:      repo,
		contacts:  cs,
		importer:  importer,
		templates: tpl,
		senders:   snd,
		audit:     al,
		clock:     time.Now,
	}
}

type CreateRequest struct {
	Name          string        `json:"name"`
	ListID        string        `json:"list_id"`
	TemplateID    string        `json:"template_id"`
	SenderIDs     []string      `json:"sender_ids"`
	BatchSettings BatchSettings `json:"batch_settings"`
}

// Create stores a DRAFT campaign. At least one sender identity of the organization is required.
func (s *Service) Create(ctx context.Context, organizationID, createdByID string, req CreateRequest) (Campaign, error) {
	if organizationID == "" || strings.TrimSpace(req.Name) == "" || req.ListID == "" {
		return Campaign{}, ErrInvalidArgument
	}
	senderIDs := dedupe(req.SenderIDs)
	if len(senderIDs) == 0 {
		return Campaign{}, ErrNoSenders
	}
	owned, err := s.senders.GetMany(ctx, organizationID, senderIDs)
	if err != nil {
		return Campaign{}, err
	}
	if len(owned) != len(senderIDs) {
		return Campaign{}, fmt.Errorf("%w: unknown sender identity", ErrInvalidArgument)
	}
	if _, err := s.contacts.GetList(ctx, organizationID, req.ListID); err != nil {
		return Campaign{}, err
	}
	if req.TemplateID != "" {
		if _, err := s.templates.Get(ctx, organizationID, req.TemplateID); err != nil {
			return Campaign{}, err
		}
	}

	c := Campaign{
		ID:             uuid.NewString(),
		OrganizationID: organizationID,
		Name:           strings.TrimSpace(req.Name),
		ListID:         req.ListID,
		TemplateID:     req.TemplateID,
		SenderIDs:      senderIDs,
		BatchSettings:  req.BatchSettings,
		Status:         StatusDraft,
		CreatedByID:    createdByID,
		CreatedAt:      s.clock().UTC(),
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return Campaign{}, err
	}
	return c, nil
}

func (s *Service) Get(ctx context.Context, organizationID, id string) (Campaign, error) {
	if organizationID == "" || id == "" {
		return Campaign{}, ErrInvalidArgument
	}
	return s.repo.Get(ctx, organizationID, id)
}

func (s *Service) List(ctx context.Context, organizationID string) ([]Campaign, error) {
	if organizationID == "" {
		return nil, ErrInvalidArgument
	}
	return s.repo.List(ctx, organizationID)
}

// Delete removes a campaign with its delivery logs. A campaign mid-send cannot be deleted.
func (s *Service) Delete(ctx context.Context, organizationID, id string, actor audit.Actor) error {
	c, err := s.Get(ctx, organizationID, id)
	if err != nil {
		return err
	}
	if c.Status == StatusSending {
		return ErrAlreadySending
	}
	if err := s.repo.Delete(ctx, organizationID, id); err != nil {
		return err
	}
	s.logAdmin(ctx, audit.EventTypeCampaignDeleted, organizationID, actor, id, "campaign deleted: "+c.Name)
	return nil
}

type Recovery struct {
	List       contacts.List `json:"list"`
	Recipients int           `json:"recipients"`
}

// RecoverFailed copies the campaign's failed recipients into a new contact list
// for re-targeting by a fresh campaign. Contacts invalidated since the send are skipped.
func (s *Service) RecoverFailed(ctx context.Context, organizationID, id string, actor audit.Actor) (Recovery, error) {
	c, err := s.Get(ctx, organizationID, id)
	if err != nil {
		return Recovery{}, err
	}
	ids, err := s.repo.FailedContactIDs(ctx, organizationID, id)
	if err != nil {
		return Recovery{}, err
	}
	if len(ids) == 0 {
		return Recovery{}, ErrNoFailedRecipients
	}
	src, err := s.contacts.GetByIDs(ctx, organizationID, ids)
	if err != nil {
		return Recovery{}, err
	}

	fresh := make([]contacts.Contact, 0, len(src))
	for _, ct := range src {
		if !ct.IsValid {
			continue
		}
		fresh = append(fresh, contacts.Contact{
			Name:     ct.Name,
			Phone:    ct.Phone,
			Email:    ct.Email,
			City:     ct.City,
			Language: ct.Language,
			IsValid:  true,
		})
	}
	if len(fresh) == 0 {
		return Recovery{}, ErrNoFailedRecipients
	}

	name := fmt.Sprintf("Recovered: %s (%s)", c.Name, s.clock().UTC().Format("2006-01-02"))
	l, err := s.importer.ImportList(ctx, organizationID, name, fresh)
	if err != nil {
		return Recovery{}, err
	}
	s.logAdmin(ctx, audit.EventTypeCampaignRecovered, organizationID, actor, id, fmt.Sprintf("%d failed recipients copied to list %s", len(fresh), l.ID))
	return Recovery{List: l, Recipients: len(fresh)}, nil
}

func (s *Service) logAdmin(ctx context.Context, t audit.EventType, organizationID string, actor audit.Actor, campaignID, msg string) {
	if s.audit == nil {
		return
	}
	if err := s.audit.LogAdminAction(ctx, t, organizationID, actor, campaignID, "", msg); err != nil {
		logger.From(ctx).Warn("audit append failed", "campaign_id", campaignID, "err", err)
	}
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// IsPrecondition reports whether err blocked a send before it started.
func IsPrecondition(err error) bool { return errors.Is(err, ErrPrecondition) }
