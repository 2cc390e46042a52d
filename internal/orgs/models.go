package orgs

import "time"

// Organization is a tenant of the CRM.
// DefaultLeadOwnerID is the user who receives leads created from inbound WhatsApp traffic.
type Organization struct {
	ID                 string    `json:"id" db:"id"`
	Name               string    `json:"name" db:"name"`
	DefaultLeadOwnerID string    `json:"default_lead_owner_id,omitempty" db:"default_lead_owner_id"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
}
