package templates

import (
	"encoding/json"
	"time"
)

// Template is an organization-scoped message template mirrored from the messaging provider.
// Name and Language together form the identity the provider knows it by.
type Template struct {
	ID             string      `json:"id" db:"id"`
	OrganizationID string      `json:"organization_id" db:"organization_id"`
	Name           string      `json:"name" db:"name"`
	Language       string      `json:"language" db:"language"`
	Category       string      `json:"category" db:"category"`
	Status         string      `json:"status" db:"status"`
	Components     []Component `json:"components" db:"components"`
	CreatedAt      time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at" db:"updated_at"`
}

// Component kinds as reported by the provider.
const (
	ComponentHeader  = "HEADER"
	ComponentBody    = "BODY"
	ComponentFooter  = "FOOTER"
	ComponentButtons = "BUTTONS"
)

// Header formats.
const (
	FormatText     = "TEXT"
	FormatImage    = "IMAGE"
	FormatVideo    = "VIDEO"
	FormatDocument = "DOCUMENT"
)

// Button kinds.
const (
	ButtonQuickReply  = "QUICK_REPLY"
	ButtonURL         = "URL"
	ButtonPhoneNumber = "PHONE_NUMBER"
)

// StatusApproved is the provider status of a template usable for sends.
const StatusApproved = "APPROVED"

type Component struct {
	Type    string   `json:"type"`
	Format  string   `json:"format,omitempty"`
	Text    string   `json:"text,omitempty"`
	Example *Example `json:"example,omitempty"`
	Buttons []Button `json:"buttons,omitempty"`
}

type Example struct {
	HeaderHandle []string   `json:"header_handle,omitempty"`
	HeaderText   []string   `json:"header_text,omitempty"`
	BodyText     [][]string `json:"body_text,omitempty"`
}

type Button struct {
	Type        string   `json:"type"`
	Text        string   `json:"text,omitempty"`
	URL         string   `json:"url,omitempty"`
	PhoneNumber string   `json:"phone_number,omitempty"`
	Example     []string `json:"example,omitempty"`
}

// Overrides are the per-campaign dispatch values layered over a template.
// JSON keys match the campaign batch settings stored by the UI.
type Overrides struct {
	HeaderImageURL string        `json:"headerImageUrl,omitempty"`
	HeaderVideoURL string        `json:"headerVideoUrl,omitempty"`
	HeaderDocURL   string        `json:"headerDocUrl,omitempty"`
	BodyParams     []string      `json:"bodyParams,omitempty"`
	ButtonParams   []ButtonParam `json:"buttonParams,omitempty"`
}

// ButtonParam overrides the button at Index (zero-based within the BUTTONS component).
type ButtonParam struct {
	Index   int    `json:"index"`
	Payload string `json:"payload,omitempty"`
	Text    string `json:"text,omitempty"`
}

func (o Overrides) button(i int) (ButtonParam, bool) {
	for _, p := range o.ButtonParams {
		if p.Index == i {
			return p, true
		}
	}
	return ButtonParam{}, false
}

// SendComponent is one entry of the provider's template "components" array.
type SendComponent struct {
	Type       string      `json:"type"`
	SubType    string      `json:"sub_type,omitempty"`
	Index      string      `json:"index,omitempty"`
	Parameters []Parameter `json:"parameters"`
}

type Parameter struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	Payload  string `json:"payload,omitempty"`
	Image    *Media `json:"image,omitempty"`
	Video    *Media `json:"video,omitempty"`
	Document *Media `json:"document,omitempty"`
}

// MarshalJSON always emits "text" for text parameters, including empty values.
func (p Parameter) MarshalJSON() ([]byte, error) {
	type plain Parameter
	if p.Type != "text" {
		return json.Marshal(plain(p))
	}
	return json.Marshal(struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}{Type: p.Type, Text: p.Text})
}

type Media struct {
	Link string `json:"link"`
}

// Resolution is the provider-ready payload for one template send.
// Gaps lists configuration problems that degraded the payload without failing it.
type Resolution struct {
	Components []SendComponent
	Gaps       []string
}
