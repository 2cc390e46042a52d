// Package contacts holds scrubbed marketing contacts, the recipients of campaigns.
package contacts

import "time"

type List struct {
	ID             string    `json:"id" db:"id"`
	OrganizationID string    `json:"organization_id" db:"organization_id"`
	Name           string    `json:"name" db:"name"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// Contact is a validated marketing contact belonging to one list.
// Only contacts with IsValid set are targeted by campaigns.
type Contact struct {
	ID             string    `json:"id" db:"id"`
	ListID         string    `json:"list_id" db:"list_id"`
	OrganizationID string    `json:"organization_id" db:"organization_id"`
	Name           string    `json:"name" db:"name"`
	Phone          string    `json:"phone" db:"phone"`
	Email          string    `json:"email,omitempty" db:"email"`
	City           string    `json:"city,omitempty" db:"city"`
	Language       string    `json:"language,omitempty" db:"language"`
	IsValid        bool      `json:"is_valid" db:"is_valid"`
	DuplicateInfo  string    `json:"duplicate_info,omitempty" db:"duplicate_info"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}
