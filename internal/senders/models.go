package senders

import (
	"time"

	"sales-crm/internal/messaging"
)

// Identity is one outbound WhatsApp Business line owned by an organization.
type Identity struct {
	ID                string    `json:"id" db:"id"`
	OrganizationID    string    `json:"organization_id" db:"organization_id"`
	Name              string    `json:"name" db:"name"`
	PhoneNumber       string    `json:"phone_number" db:"phone_number"`
	PhoneID           string    `json:"phone_id" db:"phone_id"`
	BusinessAccountID string    `json:"business_account_id" db:"business_account_id"`
	APIKey            string    `json:"-" db:"api_key"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
}

func (i Identity) Credentials() messaging.Credentials {
	return messaging.Credentials{
		PhoneID:           i.PhoneID,
		BusinessAccountID: i.BusinessAccountID,
		AccessToken:       i.APIKey,
	}
}
