package audit

import "time"

// Event is an immutable, append-only audit log record.
//
// Invariants:
// - Events are never updated or deleted.
// - organization_id is required for tenancy isolation.
// - Recording is best-effort; do not block sends or webhook handling on audit failures.
type Event struct {
	ID             string `json:"id" db:"id"`
	OrganizationID string `json:"organization_id" db:"organization_id"`

	Type EventType `json:"type" db:"type"`

	// Actor is empty for events caused by inbound provider traffic.
	ActorUserID string `json:"actor_user_id,omitempty" db:"actor_user_id"`
	ActorRole   string `json:"actor_role,omitempty" db:"actor_role"`

	// Target identifiers (optional, depending on the event type).
	CampaignID string `json:"campaign_id,omitempty" db:"campaign_id"`
	SenderID   string `json:"sender_id,omitempty" db:"sender_id"`
	Phone      string `json:"phone,omitempty" db:"phone"`

	Message  string `json:"message,omitempty" db:"message"`
	Metadata string `json:"metadata,omitempty" db:"metadata"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type EventType string

const (
	EventTypeOptOut              EventType = "opt_out"
	EventTypeCampaignDeleted     EventType = "campaign_deleted"
	EventTypeCampaignRecovered   EventType = "campaign_recovered"
	EventTypeSenderDeleted       EventType = "sender_deleted"
	EventTypeDefaultOwnerChanged EventType = "default_owner_changed"
)

// Actor is the authenticated user behind an administrative change.
type Actor struct {
	UserID string
	Role   string
}
