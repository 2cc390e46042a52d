package reporting

import (
	"time"

	"sales-crm/internal/campaigns"
)

// DeliveryStats counts delivery log rows by provider status.
type DeliveryStats struct {
	Sent      int `json:"SENT"`
	Delivered int `json:"DELIVERED"`
	Read      int `json:"READ"`
	Failed    int `json:"FAILED"`
}

// Total is the number of send attempts recorded.
func (s DeliveryStats) Total() int { return s.Sent + s.Delivered + s.Read + s.Failed }

func (s *DeliveryStats) add(status campaigns.DeliveryStatus, n int) {
	switch status {
	case campaigns.DeliverySent:
		s.Sent += n
	case campaigns.DeliveryDelivered:
		s.Delivered += n
	case campaigns.DeliveryRead:
		s.Read += n
	case campaigns.DeliveryFailed:
		s.Failed += n
	}
}

// CampaignReport is one row of the campaign list screen.
type CampaignReport struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Status          campaigns.Status `json:"status"`
	ListID          string           `json:"list_id"`
	TemplateID      string           `json:"template_id,omitempty"`
	StartedAt       *time.Time       `json:"started_at,omitempty"`
	CompletedAt     *time.Time       `json:"completed_at,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	Stats           DeliveryStats    `json:"stats"`
	ErrorList       []string         `json:"errorList"`
	TotalRecipients int              `json:"totalRecipients"`
}
