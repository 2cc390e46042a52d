package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"sales-crm/internal/metrics"
	"sales-crm/internal/templates"
)

const DefaultGraphBaseURL = "https://graph.facebook.com/v21.0"

// template listing follows at most this many result pages
const maxTemplatePages = 20

// CloudAPI talks to the WhatsApp Cloud API over the Graph HTTP endpoints.
type CloudAPI struct {
	baseURL string
	client  *http.Client
}

func NewCloudAPI(baseURL string, client *http.Client) *CloudAPI {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultGraphBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &CloudAPI{baseURL: baseURL, client: client}
}

type sendPayload struct {
	MessagingProduct string          `json:"messaging_product"`
	To               string          `json:"to"`
	Type             string          `json:"type"`
	Template         templatePayload `json:"template"`
}

type templatePayload struct {
	Name       string                    `json:"name"`
	Language   languagePayload           `json:"language"`
	Components []templates.SendComponent `json:"components,omitempty"`
}

type languagePayload struct {
	Code string `json:"code"`
}

type sendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

type errorEnvelope struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}

func (g *CloudAPI) SendTemplate(ctx context.Context, cred Credentials, msg OutboundTemplate) (SendResult, error) {
	if cred.PhoneID == "" || cred.AccessToken == "" {
		return SendResult{}, ErrMissingCredentials
	}
	lang := msg.Language
	if lang == "" {
		lang = "en_US"
	}
	body := sendPayload{
		MessagingProduct: "whatsapp",
		To:               msg.To,
		Type:             "template",
		Template: templatePayload{
			Name:       msg.Name,
			Language:   languagePayload{Code: lang},
			Components: msg.Components,
		},
	}

	var resp sendResponse
	if err := g.do(ctx, "send", http.MethodPost, g.baseURL+"/"+cred.PhoneID+"/messages", cred.AccessToken, body, &resp); err != nil {
		return SendResult{}, err
	}
	if len(resp.Messages) == 0 || resp.Messages[0].ID == "" {
		return SendResult{}, &APIError{HTTPStatus: http.StatusOK, Message: "response carried no message id"}
	}
	return SendResult{MessageID: resp.Messages[0].ID}, nil
}

func (g *CloudAPI) TestConnection(ctx context.Context, cred Credentials) (ConnectionInfo, error) {
	if cred.PhoneID == "" || cred.AccessToken == "" {
		return ConnectionInfo{}, ErrMissingCredentials
	}
	var info ConnectionInfo
	if err := g.do(ctx, "test_connection", http.MethodGet, g.baseURL+"/"+cred.PhoneID, cred.AccessToken, nil, &info); err != nil {
		return ConnectionInfo{}, err
	}
	return info, nil
}

type templatesPage struct {
	Data []struct {
		Name       string                `json:"name"`
		Language   string                `json:"language"`
		Category   string                `json:"category"`
		Status     string                `json:"status"`
		Components []templates.Component `json:"components"`
	} `json:"data"`
	Paging struct {
		Next string `json:"next"`
	} `json:"paging"`
}

func (g *CloudAPI) ListTemplates(ctx context.Context, cred Credentials) ([]templates.Template, error) {
	if cred.BusinessAccountID == "" || cred.AccessToken == "" {
		return nil, ErrMissingCredentials
	}
	var out []templates.Template
	next := g.baseURL + "/" + cred.BusinessAccountID + "/message_templates"
	for page := 0; next != "" && page < maxTemplatePages; page++ {
		var p templatesPage
		if err := g.do(ctx, "list_templates", http.MethodGet, next, cred.AccessToken, nil, &p); err != nil {
			return nil, err
		}
		for _, d := range p.Data {
			out = append(out, templates.Template{
				Name:       d.Name,
				Language:   d.Language,
				Category:   d.Category,
				Status:     d.Status,
				Components: d.Components,
			})
		}
		next = p.Paging.Next
	}
	return out, nil
}

func (g *CloudAPI) do(ctx context.Context, op, method, url, token string, in, out any) (err error) {
	start := time.Now()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		metrics.GatewayRequestDuration.WithLabelValues(op, outcome).Observe(time.Since(start).Seconds())
	}()

	var reader io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("messaging: %s request: %w", op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("messaging: %s read body: %w", op, err)
	}

	if resp.StatusCode >= 300 {
		apiErr := &APIError{HTTPStatus: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
		var env errorEnvelope
		if json.Unmarshal(raw, &env) == nil && env.Error.Message != "" {
			apiErr.Code = env.Error.Code
			apiErr.Type = env.Error.Type
			apiErr.Message = env.Error.Message
		}
		return apiErr
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("messaging: %s decode: %w", op, err)
	}
	return nil
}
