package webhook

import (
	"context"
	"errors"
	"time"

	"sales-crm/internal/campaigns"
	"sales-crm/internal/contacts"
	"sales-crm/internal/events"
	"sales-crm/internal/leads"
	"sales-crm/internal/messaging"
	"sales-crm/internal/metrics"
	"sales-crm/internal/optout"
	"sales-crm/internal/senders"
	"sales-crm/pkg/logger"

	"github.com/google/uuid"
)

type StatusApplier interface {
	ApplyDeliveryStatus(ctx context.Context, u campaigns.StatusUpdate, at time.Time) (int64, error)
}

type SenderLookup interface {
	FindByPhoneID(ctx context.Context, phoneID string) (senders.Identity, error)
}

type OwnerLookup interface {
	DefaultLeadOwner(ctx context.Context, organizationID string) (string, error)
}

type ContactLookup interface {
	FindByPhone(ctx context.Context, organizationID, phone string) (contacts.Contact, error)
}

type OptOutGuard interface {
	Matches(messageType, body string) bool
	Apply(ctx context.Context, organizationID, from string, cred messaging.Credentials) (optout.Result, error)
}

type LeadRecorder interface {
	RecordInbound(ctx context.Context, in leads.Input, notes string) (leads.Result, error)
}

// Processor applies decoded webhook events. It never returns errors to the caller:
// the provider has already been acknowledged, so failures go to logs and metrics.
type Processor struct {
	statuses  StatusApplier
	senders   SenderLookup
	owners    OwnerLookup
	contacts  ContactLookup
	optOut    OptOutGuard
	leads     LeadRecorder
	dedupe    Deduper
	publisher events.Publisher
	clock     func() time.Time
}

type Deps struct {
	Statuses  StatusApplier
	Senders   SenderLookup
	Owners    OwnerLookup
	Contacts  ContactLookup
	OptOut    OptOutGuard
	Leads     LeadRecorder
	Dedupe    Deduper
	Publisher events.Publisher
}

func NewProcessor(d Deps) *Processor {
	p := &Processor{
		statuses:  d.Statuses,
		senders:   d.Senders,
		owners:    d.Owners,
		contacts:  d.Contacts,
		optOut:    d.OptOut,
		leads:     d.Leads,
		dedupe:    d.Dedupe,
		publisher: d.Publisher,
		clock:     time.Now,
	}
	if p.publisher == nil {
		p.publisher = events.LogPublisher{}
	}
	return p
}

func (p *Processor) Handle(ctx context.Context, evs []Event) {
	for _, ev := range evs {
		metrics.WebhookEvents.WithLabelValues(Kind(ev)).Inc()
		switch e := ev.(type) {
		case StatusEvent:
			p.handleStatus(ctx, e)
		case MessageEvent:
			p.handleMessage(ctx, e)
		case Unrecognized:
			logger.From(ctx).Debug("webhook change ignored", "field", e.Field)
		}
	}
}

func (p *Processor) handleStatus(ctx context.Context, e StatusEvent) {
	if e.ProviderMessageID == "" || e.Status == "" {
		return
	}
	n, err := p.statuses.ApplyDeliveryStatus(ctx, campaigns.StatusUpdate{
		ProviderMessageID: e.ProviderMessageID,
		Status:            e.Status,
		ErrorCode:         e.ErrorCode,
		ErrorMessage:      e.ErrorMessage,
	}, p.clock().UTC())
	if err != nil {
		p.fail(ctx, "status", err, "provider_message_id", e.ProviderMessageID)
		return
	}
	metrics.StatusRowsUpdated.Add(float64(n))
	// zero rows means the message was not sent by a campaign
	logger.From(ctx).Debug("delivery status applied", "provider_message_id", e.ProviderMessageID, "status", e.Status, "rows", n)
}

func (p *Processor) handleMessage(ctx context.Context, e MessageEvent) {
	log := logger.From(ctx).With("provider_message_id", e.ProviderMessageID, "phone_number_id", e.PhoneNumberID)
	ctx = logger.With(ctx, log)

	if e.From == "" {
		return
	}
	if p.dedupe != nil && e.ProviderMessageID != "" {
		first, err := p.dedupe.FirstSeen(ctx, e.ProviderMessageID)
		if err != nil {
			// fail open: a duplicate interaction beats a lost lead
			log.Warn("inbound dedupe unavailable", "err", err)
		} else if !first {
			log.Debug("duplicate inbound message dropped")
			return
		}
	}

	sender, err := p.senders.FindByPhoneID(ctx, e.PhoneNumberID)
	if errors.Is(err, senders.ErrNotFound) {
		log.Info("inbound message for unknown line dropped")
		return
	}
	if err != nil {
		p.fail(ctx, "sender", err)
		return
	}
	org := sender.OrganizationID
	log = log.With("organization_id", org)
	ctx = logger.With(ctx, log)

	owner := ""
	if p.owners != nil {
		if owner, err = p.owners.DefaultLeadOwner(ctx, org); err != nil {
			log.Warn("default lead owner lookup failed", "err", err)
			owner = ""
		} else if owner == "" {
			log.Warn("organization has no default lead owner; inbound lead left unassigned")
		}
	}

	if p.optOut != nil && p.optOut.Matches(e.Type, e.Text) {
		if _, err := p.optOut.Apply(ctx, org, e.From, sender.Credentials()); err != nil {
			p.fail(ctx, "opt_out", err)
		}
	}

	in := leads.Input{OrganizationID: org, Phone: e.From, Name: e.ProfileName, OwnerID: owner}
	if p.contacts != nil {
		c, err := p.contacts.FindByPhone(ctx, org, e.From)
		switch {
		case err == nil:
			if c.Name != "" {
				in.Name = c.Name
			}
			in.Email = c.Email
		case !errors.Is(err, contacts.ErrNotFound):
			log.Warn("contact enrichment failed", "err", err)
		}
	}

	res, err := p.leads.RecordInbound(ctx, in, "WA: "+e.Content())
	if err != nil {
		p.fail(ctx, "lead", err)
		return
	}
	log.Info("inbound message recorded", "lead_id", res.Lead.ID, "outcome", res.Outcome)

	if err := p.publisher.Publish(ctx, events.Event{
		ID:             uuid.NewString(),
		Type:           events.TypeLeadResolved,
		OrganizationID: org,
		OccurredAt:     p.clock().UTC(),
		Data:           map[string]any{"lead_id": res.Lead.ID, "outcome": res.Outcome, "phone": res.Lead.Phone},
	}); err != nil {
		log.Warn("publish lead event failed", "err", err)
	}
}

func (p *Processor) fail(ctx context.Context, stage string, err error, args ...any) {
	metrics.WebhookFailures.WithLabelValues(stage).Inc()
	logger.From(ctx).Error("webhook processing failed", append([]any{"stage", stage, "err", err}, args...)...)
}
