// Package optout detects recipient opt-out keywords and removes the number from future targeting.
package optout

import (
	"context"
	"strings"
	"time"

	"sales-crm/internal/events"
	"sales-crm/internal/messaging"
	"sales-crm/internal/metrics"
	"sales-crm/internal/phone"
	"sales-crm/pkg/logger"

	"github.com/google/uuid"
)

// DefaultKeywords is the organization-independent keyword set.
var DefaultKeywords = []string{"STOP", "UNSUBSCRIBE", "REMOVE", "CANCEL", "إلغاء"}

type ContactInvalidator interface {
	InvalidateByPhone(ctx context.Context, organizationID, phone, note string) (int64, error)
}

type auditLog interface {
	LogOptOut(ctx context.Context, organizationID, phone string, invalidated int64) error
}

// Confirmation names the template sent back after an opt-out. An empty Name disables it.
type Confirmation struct {
	Name     string
	Language string
}

type Guard struct {
	keywords  map[string]struct{}
	contacts  ContactInvalidator
	audit     auditLog
	gateway   messaging.Gateway
	publisher events.Publisher
	confirm   Confirmation
	clock     func() time.Time
}

func NewGuard(contacts ContactInvalidator, al auditLog, gateway messaging.Gateway, publisher events.Publisher, confirm Confirmation) *Guard {
	kw := make(map[string]struct{}, len(DefaultKeywords))
	for _, k := range DefaultKeywords {
		kw[strings.ToUpper(k)] = struct{}{}
	}
	if publisher == nil {
		publisher = events.LogPublisher{}
	}
	return &Guard{
		keywords:  kw,
		contacts:  contacts,
		audit:     al,
		gateway:   gateway,
		publisher: publisher,
		confirm:   confirm,
		clock:     time.Now,
	}
}

// Matches reports whether an inbound message is an opt-out request.
// Only text messages qualify; the body must equal a keyword after trim, ignoring case.
func (g *Guard) Matches(messageType, body string) bool {
	if messageType != "text" {
		return false
	}
	_, ok := g.keywords[strings.ToUpper(strings.TrimSpace(body))]
	return ok
}

// Result describes an applied opt-out.
type Result struct {
	Invalidated int64
	Confirmed   bool
}

// Apply invalidates every contact of the organization with the phone and
// tries to confirm through the receiving line. Confirmation failures are logged only.
func (g *Guard) Apply(ctx context.Context, organizationID, from string, cred messaging.Credentials) (Result, error) {
	log := logger.From(ctx).With("organization_id", organizationID, "phone", from)
	now := g.clock().UTC()

	n, err := g.contacts.InvalidateByPhone(ctx, organizationID, from, "User Opt-out at "+now.Format(time.RFC3339))
	if err != nil {
		return Result{}, err
	}
	metrics.OptOuts.Inc()
	log.Info("opt-out applied", "contacts_invalidated", n)

	if g.audit != nil {
		if err := g.audit.LogOptOut(ctx, organizationID, from, n); err != nil {
			log.Warn("opt-out audit failed", "err", err)
		}
	}
	if err := g.publisher.Publish(ctx, events.Event{
		ID:             uuid.NewString(),
		Type:           events.TypeContactOptedOut,
		OrganizationID: organizationID,
		OccurredAt:     now,
		Data:           map[string]any{"phone": phone.Normalize(from), "contacts_invalidated": n},
	}); err != nil {
		log.Warn("publish opt-out event failed", "err", err)
	}

	res := Result{Invalidated: n}
	if g.gateway == nil || g.confirm.Name == "" {
		return res, nil
	}
	_, err = g.gateway.SendTemplate(ctx, cred, messaging.OutboundTemplate{
		To:       phone.Normalize(from),
		Name:     g.confirm.Name,
		Language: g.confirm.Language,
	})
	if err != nil {
		log.Warn("opt-out confirmation not sent", "err", err)
		return res, nil
	}
	res.Confirmed = true
	return res, nil
}
