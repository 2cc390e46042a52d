// Package events fans out domain events to downstream consumers (notifications, analytics).
// Publishing is best-effort: callers log failures and carry on.
package events

import (
	"context"
	"sync"
	"time"

	"sales-crm/pkg/logger"
)

const (
	TypeCampaignCompleted = "campaign.completed"
	TypeContactOptedOut   = "contact.opted_out"
	TypeLeadResolved      = "lead.resolved"
)

type Event struct {
	ID             string    `json:"id"`
	Type           string    `json:"type"`
	OrganizationID string    `json:"organization_id"`
	OccurredAt     time.Time `json:"occurred_at"`
	Data           any       `json:"data,omitempty"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// LogPublisher writes events to the request logger. Used when no broker is configured.
type LogPublisher struct{}

func (LogPublisher) Publish(ctx context.Context, e Event) error {
	logger.From(ctx).Debug("domain event", "type", e.Type, "organization_id", e.OrganizationID)
	return nil
}

// MemoryPublisher keeps events in memory for tests.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []Event
}

func (p *MemoryPublisher) Publish(ctx context.Context, e Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *MemoryPublisher) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Event, len(p.events))
	copy(out, p.events)
	return out
}

// OfType filters recorded events by type.
func (p *MemoryPublisher) OfType(t string) []Event {
	var out []Event
	for _, e := range p.Events() {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}
