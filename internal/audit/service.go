package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for audit events.
// It is append-only; there are no Update/Delete methods.
type Repository interface {
	Append(ctx context.Context, e Event) error
}

// Service records internal audit information.
// Records are internal-only and not exposed to tenant users.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.OrganizationID == "" || e.Type == "" {
		return ErrInvalidEvent
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.clock().UTC()
	}
	return s.repo.Append(ctx, e)
}

// LogOptOut records a recipient-initiated opt-out and how many contacts it invalidated.
func (s *Service) LogOptOut(ctx context.Context, organizationID, phone string, invalidated int64) error {
	return s.Append(ctx, Event{
		OrganizationID: organizationID,
		Type:           EventTypeOptOut,
		Phone:          phone,
		Message:        fmt.Sprintf("opt-out keyword received; %d contacts invalidated", invalidated),
	})
}

// LogAdminAction records an action taken by an authenticated user against a campaign or sender.
func (s *Service) LogAdminAction(ctx context.Context, t EventType, organizationID string, actor Actor, campaignID, senderID, message string) error {
	return s.Append(ctx, Event{
		OrganizationID: organizationID,
		Type:           t,
		ActorUserID:    actor.UserID,
		ActorRole:      actor.Role,
		CampaignID:     campaignID,
		SenderID:       senderID,
		Message:        message,
	})
}
