package messaging

import (
	"context"
	"fmt"
	"sync"

	"sales-crm/internal/templates"
)

// MemoryGateway records sends in memory. Useful for tests and local development.
type MemoryGateway struct {
	mu   sync.Mutex
	sent []Sent
	seq  int

	// FailFor maps a recipient to the error its sends return.
	FailFor map[string]error
	// Templates is returned by ListTemplates.
	Templates []templates.Template
}

// Sent is one recorded send.
type Sent struct {
	Credentials Credentials
	Message     OutboundTemplate
	MessageID   string
}

func NewMemoryGateway() *MemoryGateway {
	return &MemoryGateway{FailFor: map[string]error{}}
}

func (g *MemoryGateway) SendTemplate(ctx context.Context, cred Credentials, msg OutboundTemplate) (SendResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err, ok := g.FailFor[msg.To]; ok {
		return SendResult{}, err
	}
	g.seq++
	id := fmt.Sprintf("wamid.mem.%d", g.seq)
	g.sent = append(g.sent, Sent{Credentials: cred, Message: msg, MessageID: id})
	return SendResult{MessageID: id}, nil
}

func (g *MemoryGateway) TestConnection(ctx context.Context, cred Credentials) (ConnectionInfo, error) {
	if cred.PhoneID == "" {
		return ConnectionInfo{}, ErrMissingCredentials
	}
	return ConnectionInfo{ID: cred.PhoneID}, nil
}

func (g *MemoryGateway) ListTemplates(ctx context.Context, cred Credentials) ([]templates.Template, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]templates.Template, len(g.Templates))
	copy(out, g.Templates)
	return out, nil
}

func (g *MemoryGateway) Sent() []Sent {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Sent, len(g.sent))
	copy(out, g.sent)
	return out
}
