package campaigns

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"sales-crm/internal/contacts"
	"sales-crm/internal/events"
	"sales-crm/internal/messaging"
	"sales-crm/internal/metrics"
	"sales-crm/internal/senders"
	"sales-crm/internal/templates"
	"sales-crm/pkg/logger"

	"github.com/google/uuid"
)

// RecipientSource yields the valid contacts of a list.
type RecipientSource interface {
	ValidContacts(ctx context.Context, organizationID, listID string) ([]contacts.Contact, error)
}

type TemplateSource interface {
	Get(ctx context.Context, organizationID, id string) (templates.Template, error)
}

type SenderSource interface {
	GetMany(ctx context.Context, organizationID string, ids []string) ([]senders.Identity, error)
}

// SendLimiter caps concurrent send loops per organization.
type SendLimiter interface {
	Acquire(ctx context.Context, organizationID string) (bool, error)
	Release(ctx context.Context, organizationID string) error
}

// Dispatcher drives a campaign through one send pass.
type Dispatcher struct {
	repo       Repository
	recipients RecipientSource
	templates  TemplateSource
	senders    SenderSource
	gateway    messaging.Gateway
	resolver   templates.Resolver

	limiter   SendLimiter
	publisher events.Publisher
	rng       *rand.Rand
	clock     func() time.Time
}

type DispatcherOption func(*Dispatcher)

func WithLimiter(l SendLimiter) DispatcherOption { return func(d *Dispatcher) { d.limiter = l } }

func WithPublisher(p events.Publisher) DispatcherOption {
	return func(d *Dispatcher) { d.publisher = p }
}

// WithRand fixes the sender selection source.
func WithRand(r *rand.Rand) DispatcherOption { return func(d *Dispatcher) { d.rng = r } }

func WithClock(clock func() time.Time) DispatcherOption {
	return func(d *Dispatcher) { d.clock = clock }
}

func NewDispatcher(
	repo Repository,
	recipients RecipientSource,
	tpl TemplateSource,
	snd SenderSource,
	gateway messaging.Gateway,
	resolver templates.Resolver,
	opts ...DispatcherOption,
) *Dispatcher {
	d := &Dispatcher{
		repo:       repo,
		recipients: recipients,
		templates:  tpl,
		senders:    snd,
		gateway:    gateway,
		resolver:   resolver,
		publisher:  events.LogPublisher{},
		clock:      time.Now,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Send runs the campaign's send loop to completion.
//
// Precondition failures (ErrPrecondition) leave the campaign untouched.
// Once the campaign enters SENDING the loop ignores cancellation of ctx,
// and the campaign always ends COMPLETED, whatever the per-recipient outcome.
func (d *Dispatcher) Send(ctx context.Context, organizationID, campaignID string) (SendSummary, error) {
	if organizationID == "" || campaignID == "" {
		return SendSummary{}, ErrInvalidArgument
	}
	log := logger.From(ctx).With("organization_id", organizationID, "campaign_id", campaignID)

	c, err := d.repo.Get(ctx, organizationID, campaignID)
	if err != nil {
		return SendSummary{}, err
	}
	switch c.Status {
	case StatusDraft, StatusFailed:
	case StatusSending:
		return SendSummary{}, ErrAlreadySending
	default:
		return SendSummary{}, ErrNotSendable
	}

	tpl, recipients, pool, err := d.prepare(ctx, c)
	if err != nil {
		return SendSummary{}, err
	}

	if d.limiter != nil {
		ok, err := d.limiter.Acquire(ctx, organizationID)
		if err != nil {
			return SendSummary{}, fmt.Errorf("campaigns: acquire send slot: %w", err)
		}
		if !ok {
			return SendSummary{}, ErrSendCapacity
		}
		defer func() {
			if err := d.limiter.Release(context.WithoutCancel(ctx), organizationID); err != nil {
				log.Warn("send slot release failed", "err", err)
			}
		}()
	}

	applied, err := d.repo.TransitionStatus(ctx, organizationID, campaignID, []Status{StatusDraft, StatusFailed}, StatusSending, d.clock().UTC())
	if err != nil {
		return SendSummary{}, err
	}
	if !applied {
		return SendSummary{}, ErrAlreadySending
	}

	loopCtx := logger.Detached(logger.With(ctx, log))
	start := time.Now()
	summary := SendSummary{CampaignID: campaignID, Recipients: len(recipients)}

	defer func() {
		if _, err := d.repo.TransitionStatus(loopCtx, organizationID, campaignID, []Status{StatusSending}, StatusCompleted, d.clock().UTC()); err != nil {
			log.Error("campaign completion transition failed", "err", err)
		}
		metrics.CampaignDuration.Observe(time.Since(start).Seconds())
	}()

	resolution := d.resolver.Resolve(tpl.Components, c.BatchSettings.Overrides)
	summary.Gaps = resolution.Gaps
	for _, gap := range resolution.Gaps {
		log.Warn("template resolved in degraded mode", "gap", gap)
	}

	for _, rcpt := range recipients {
		if d.sendOne(loopCtx, c, tpl, resolution, pool.Pick(), rcpt) {
			summary.Sent++
		} else {
			summary.Failed++
		}
	}

	summary.Status = StatusCompleted
	metrics.CampaignsFinished.WithLabelValues(outcome(summary)).Inc()
	log.Info("campaign send finished", "recipients", summary.Recipients, "sent", summary.Sent, "failed", summary.Failed)

	if err := d.publisher.Publish(loopCtx, events.Event{
		Type:           events.TypeCampaignCompleted,
		OrganizationID: organizationID,
		OccurredAt:     d.clock().UTC(),
		Data:           summary,
	}); err != nil {
		log.Warn("event publish failed", "type", events.TypeCampaignCompleted, "err", err)
	}
	return summary, nil
}

func (d *Dispatcher) prepare(ctx context.Context, c Campaign) (templates.Template, []contacts.Contact, *senders.Pool, error) {
	if c.TemplateID == "" {
		return templates.Template{}, nil, nil, ErrNoTemplate
	}
	tpl, err := d.templates.Get(ctx, c.OrganizationID, c.TemplateID)
	if errors.Is(err, templates.ErrNotFound) {
		return templates.Template{}, nil, nil, ErrNoTemplate
	}
	if err != nil {
		return templates.Template{}, nil, nil, err
	}

	recipients, err := d.recipients.ValidContacts(ctx, c.OrganizationID, c.ListID)
	if err != nil {
		return templates.Template{}, nil, nil, err
	}
	if len(recipients) == 0 {
		return templates.Template{}, nil, nil, ErrNoRecipients
	}

	ids, err := d.senders.GetMany(ctx, c.OrganizationID, c.SenderIDs)
	if err != nil {
		return templates.Template{}, nil, nil, err
	}
	pool, err := senders.NewPool(ids, d.rng)
	if errors.Is(err, senders.ErrEmptyPool) {
		return templates.Template{}, nil, nil, ErrNoSenders
	}
	if err != nil {
		return templates.Template{}, nil, nil, err
	}
	return tpl, recipients, pool, nil
}

// sendOne performs one dispatch and records its log row. It reports whether the provider accepted it.
func (d *Dispatcher) sendOne(ctx context.Context, c Campaign, tpl templates.Template, res templates.Resolution, sender senders.Identity, rcpt contacts.Contact) bool {
	now := d.clock().UTC()
	row := DeliveryLog{
		ID:             uuid.NewString(),
		OrganizationID: c.OrganizationID,
		CampaignID:     c.ID,
		ContactID:      rcpt.ID,
		SenderID:       sender.ID,
		Recipient:      rcpt.Phone,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	out, err := d.gateway.SendTemplate(ctx, sender.Credentials(), messaging.OutboundTemplate{
		To:         rcpt.Phone,
		Name:       tpl.Name,
		Language:   tpl.Language,
		Components: res.Components,
	})
	if err != nil {
		row.Status = DeliveryFailed
		row.ErrorCode, row.ErrorMessage = messaging.ErrorDetails(err)
		logger.From(ctx).Warn("dispatch rejected", "contact_id", rcpt.ID, "sender_id", sender.ID, "err", err)
		metrics.DispatchAttempts.WithLabelValues("failed").Inc()
	} else {
		row.Status = DeliverySent
		row.ProviderMessageID = out.MessageID
		metrics.DispatchAttempts.WithLabelValues("sent").Inc()
	}

	if err := d.repo.AppendLog(ctx, row); err != nil {
		logger.From(ctx).Error("delivery log write failed", "contact_id", rcpt.ID, "provider_message_id", row.ProviderMessageID, "err", err)
	}
	return row.Status == DeliverySent
}

func outcome(s SendSummary) string {
	switch {
	case s.Failed == 0:
		return "all_sent"
	case s.Sent == 0:
		return "all_failed"
	default:
		return "partial"
	}
}
