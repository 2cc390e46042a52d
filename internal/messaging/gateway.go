// Package messaging is the outbound side of the WhatsApp Business channel.
package messaging

import (
	"context"
	"errors"
	"fmt"

	"sales-crm/internal/templates"
)

// Credentials identify one sender line at the provider.
type Credentials struct {
	PhoneID           string
	BusinessAccountID string
	AccessToken       string
}

// OutboundTemplate is a fully resolved template message for one recipient.
type OutboundTemplate struct {
	To         string
	Name       string
	Language   string
	Components []templates.SendComponent
}

type SendResult struct {
	MessageID string
}

// ConnectionInfo is the provider's view of a sender line.
type ConnectionInfo struct {
	ID                 string `json:"id"`
	DisplayPhoneNumber string `json:"display_phone_number,omitempty"`
	VerifiedName       string `json:"verified_name,omitempty"`
	QualityRating      string `json:"quality_rating,omitempty"`
}

// Gateway sends messages and queries sender metadata at the provider.
// A rejected send is returned as *APIError.
type Gateway interface {
	SendTemplate(ctx context.Context, cred Credentials, msg OutboundTemplate) (SendResult, error)
	TestConnection(ctx context.Context, cred Credentials) (ConnectionInfo, error)
	ListTemplates(ctx context.Context, cred Credentials) ([]templates.Template, error)
}

var ErrMissingCredentials = errors.New("messaging: sender credentials incomplete")

// APIError is a provider-side rejection.
type APIError struct {
	HTTPStatus int
	Code       int
	Type       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("provider error %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("provider error (http %d): %s", e.HTTPStatus, e.Message)
}

// ErrorDetails extracts a code and message suitable for a delivery log row.
func ErrorDetails(err error) (code, message string) {
	if err == nil {
		return "", ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code != 0 {
			code = fmt.Sprintf("%d", apiErr.Code)
		}
		return code, apiErr.Message
	}
	return "", err.Error()
}
