package leads

import "time"

// Status is the sales pipeline stage of a lead.
type Status string

const (
	StatusLead      Status = "LEAD"
	StatusContacted Status = "CONTACTED"
	StatusQualified Status = "QUALIFIED"
	StatusProposal  Status = "PROPOSAL"
	StatusWon       Status = "WON"
	StatusLost      Status = "LOST"
)

// Lead is the canonical CRM record for a prospect.
// Within an organization a phone number (ignoring a leading "+") maps to at most one lead.
// Email is unique across all organizations.
type Lead struct {
	ID             string    `json:"id" db:"id"`
	OrganizationID string    `json:"organization_id" db:"organization_id"`
	Name           string    `json:"name" db:"name"`
	Email          string    `json:"email" db:"email"`
	Phone          string    `json:"phone" db:"phone"`
	Status         Status    `json:"status" db:"status"`
	Source         string    `json:"source,omitempty" db:"source"`
	CreatedByID    string    `json:"created_by_id,omitempty" db:"created_by_id"`
	HandlerIDs     []string  `json:"handler_ids" db:"-"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

type InteractionType string

const (
	InteractionReply   InteractionType = "REPLY"
	InteractionCall    InteractionType = "CALL"
	InteractionMeeting InteractionType = "MEETING"
	InteractionNote    InteractionType = "NOTE"
)

// Interaction is one append-only history entry of a lead.
type Interaction struct {
	ID             string          `json:"id" db:"id"`
	OrganizationID string          `json:"organization_id" db:"organization_id"`
	LeadID         string          `json:"lead_id" db:"lead_id"`
	Type           InteractionType `json:"type" db:"type"`
	Notes          string          `json:"notes" db:"notes"`
	CreatedByID    string          `json:"created_by_id,omitempty" db:"created_by_id"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
}
