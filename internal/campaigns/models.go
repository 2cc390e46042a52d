package campaigns

import (
	"time"

	"sales-crm/internal/templates"
)

// Status is the campaign lifecycle state.
//
//	DRAFT|FAILED --send--> SENDING --(all recipients processed)--> COMPLETED
//
// A campaign never stays in SENDING once its send loop returns.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusSending   Status = "SENDING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

// BatchSettings are the dispatch overrides stored with a campaign.
type BatchSettings struct {
	templates.Overrides
	BatchMode string `json:"batchMode,omitempty"`
}

type Campaign struct {
	ID             string        `json:"id" db:"id"`
	OrganizationID string        `json:"organization_id" db:"organization_id"`
	Name           string        `json:"name" db:"name"`
	ListID         string        `json:"list_id" db:"list_id"`
	TemplateID     string        `json:"template_id,omitempty" db:"template_id"`
	SenderIDs      []string      `json:"sender_ids" db:"-"`
	BatchSettings  BatchSettings `json:"batch_settings" db:"batch_settings"`
	Status         Status        `json:"status" db:"status"`
	CreatedByID    string        `json:"created_by_id,omitempty" db:"created_by_id"`
	StartedAt      *time.Time    `json:"started_at,omitempty" db:"started_at"`
	CompletedAt    *time.Time    `json:"completed_at,omitempty" db:"completed_at"`
	CreatedAt      time.Time     `json:"created_at" db:"created_at"`
}

// DeliveryStatus is the per-recipient state reported by the provider.
type DeliveryStatus string

const (
	DeliverySent      DeliveryStatus = "SENT"
	DeliveryDelivered DeliveryStatus = "DELIVERED"
	DeliveryRead      DeliveryStatus = "READ"
	DeliveryFailed    DeliveryStatus = "FAILED"
)

// DeliveryLog is one send attempt for a (campaign, recipient) pair.
// ProviderMessageID is set only when the provider accepted the send.
type DeliveryLog struct {
	ID                string         `json:"id" db:"id"`
	OrganizationID    string         `json:"organization_id" db:"organization_id"`
	CampaignID        string         `json:"campaign_id" db:"campaign_id"`
	ContactID         string         `json:"contact_id" db:"contact_id"`
	SenderID          string         `json:"sender_id" db:"sender_id"`
	Recipient         string         `json:"recipient" db:"recipient"`
	Status            DeliveryStatus `json:"status" db:"status"`
	ProviderMessageID string         `json:"provider_message_id,omitempty" db:"provider_message_id"`
	ErrorCode         string         `json:"error_code,omitempty" db:"error_code"`
	ErrorMessage      string         `json:"error_message,omitempty" db:"error_message"`
	CreatedAt         time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at" db:"updated_at"`
}

// StatusUpdate is a provider delivery receipt keyed by provider message id.
type StatusUpdate struct {
	ProviderMessageID string
	Status            string
	ErrorCode         string
	ErrorMessage      string
}

// SendSummary reports the outcome of one send loop.
type SendSummary struct {
	CampaignID string   `json:"campaign_id"`
	Status     Status   `json:"status"`
	Recipients int      `json:"recipients"`
	Sent       int      `json:"sent"`
	Failed     int      `json:"failed"`
	Gaps       []string `json:"config_gaps,omitempty"`
}
