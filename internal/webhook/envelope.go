// Package webhook handles WhatsApp Cloud API callbacks: delivery statuses and inbound messages.
package webhook

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoObject means the payload lacks the top-level "object" marker.
	ErrNoObject  = errors.New("webhook: envelope has no object")
	ErrMalformed = errors.New("webhook: malformed payload")
)

// Event is one decoded callback: StatusEvent, MessageEvent or Unrecognized.
type Event interface {
	kind() string
}

// StatusEvent reports a delivery state change for a message we sent.
type StatusEvent struct {
	ProviderMessageID string
	Status            string
	Recipient         string
	ErrorCode         string
	ErrorMessage      string
}

// MessageEvent is an inbound message from a customer to one of our lines.
type MessageEvent struct {
	ProviderMessageID string
	From              string
	ProfileName       string
	// PhoneNumberID identifies the receiving line.
	PhoneNumberID string
	Type          string
	Text          string
	// ButtonText is set for button and interactive replies.
	ButtonText string
}

// Unrecognized is a change with neither statuses nor messages (e.g. account updates).
type Unrecognized struct {
	Field string
}

func (StatusEvent) kind() string  { return "status" }
func (MessageEvent) kind() string { return "message" }
func (Unrecognized) kind() string { return "unrecognized" }

// Kind returns the metrics label of e.
func Kind(e Event) string { return e.kind() }

// Content summarizes an inbound message for the lead's interaction history.
func (m MessageEvent) Content() string {
	switch {
	case m.Type == "text":
		return m.Text
	case m.ButtonText != "":
		return "Button: " + m.ButtonText
	default:
		return "Incoming " + m.Type
	}
}

// envelope is decoded level by level so one malformed change does not sink the batch.
type envelope struct {
	Object json.RawMessage `json:"object"`
	Entry  json.RawMessage `json:"entry"`
}

type wireEntry struct {
	Changes []json.RawMessage `json:"changes"`
}

type wireChange struct {
	Field string          `json:"field"`
	Value json.RawMessage `json:"value"`
}

type changeValue struct {
	Metadata struct {
		DisplayPhoneNumber string `json:"display_phone_number"`
		PhoneNumberID      string `json:"phone_number_id"`
	} `json:"metadata"`
	Contacts []struct {
		WaID    string `json:"wa_id"`
		Profile struct {
			Name string `json:"name"`
		} `json:"profile"`
	} `json:"contacts"`
	Messages []json.RawMessage `json:"messages"`
	Statuses []json.RawMessage `json:"statuses"`
}

type wireMessage struct {
	From string `json:"from"`
	ID   string `json:"id"`
	Type string `json:"type"`
	Text *struct {
		Body string `json:"body"`
	} `json:"text"`
	Button *struct {
		Text    string `json:"text"`
		Payload string `json:"payload"`
	} `json:"button"`
	Interactive *struct {
		Type        string     `json:"type"`
		ButtonReply *replyPick `json:"button_reply"`
		ListReply   *replyPick `json:"list_reply"`
	} `json:"interactive"`
}

type replyPick struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type wireStatus struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	RecipientID string `json:"recipient_id"`
	Errors      []struct {
		Code    json.Number `json:"code"`
		Title   string      `json:"title"`
		Message string      `json:"message"`
	} `json:"errors"`
}

// Decode parses a POST body into events, statuses before messages within each change.
// Once the object marker is present, parts that fail to decode become Unrecognized
// events and the rest of the batch is still returned.
func Decode(raw []byte) ([]Event, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	var object string
	if err := json.Unmarshal(env.Object, &object); err != nil || strings.TrimSpace(object) == "" {
		return nil, ErrNoObject
	}

	var entries []json.RawMessage
	if len(env.Entry) > 0 {
		if err := json.Unmarshal(env.Entry, &entries); err != nil {
			return []Event{Unrecognized{}}, nil
		}
	}

	var out []Event
	for _, rawEntry := range entries {
		var entry wireEntry
		if err := json.Unmarshal(rawEntry, &entry); err != nil {
			out = append(out, Unrecognized{})
			continue
		}
		for _, rawChange := range entry.Changes {
			out = append(out, decodeChange(rawChange)...)
		}
	}
	return out, nil
}

func decodeChange(raw json.RawMessage) []Event {
	var ch wireChange
	if err := json.Unmarshal(raw, &ch); err != nil {
		return []Event{Unrecognized{}}
	}
	var v changeValue
	if len(ch.Value) > 0 {
		if err := json.Unmarshal(ch.Value, &v); err != nil {
			return []Event{Unrecognized{Field: ch.Field}}
		}
	}
	if len(v.Statuses) == 0 && len(v.Messages) == 0 {
		return []Event{Unrecognized{Field: ch.Field}}
	}

	var out []Event
	for _, rs := range v.Statuses {
		var s wireStatus
		if err := json.Unmarshal(rs, &s); err != nil {
			out = append(out, Unrecognized{Field: ch.Field})
			continue
		}
		out = append(out, decodeStatus(s))
	}
	for i, rm := range v.Messages {
		var m wireMessage
		if err := json.Unmarshal(rm, &m); err != nil {
			out = append(out, Unrecognized{Field: ch.Field})
			continue
		}
		out = append(out, decodeMessage(v, i, m))
	}
	return out
}

func decodeStatus(s wireStatus) StatusEvent {
	ev := StatusEvent{
		ProviderMessageID: s.ID,
		Status:            strings.ToUpper(strings.TrimSpace(s.Status)),
		Recipient:         s.RecipientID,
	}
	if len(s.Errors) > 0 {
		ev.ErrorCode = s.Errors[0].Code.String()
		ev.ErrorMessage = s.Errors[0].Message
		if ev.ErrorMessage == "" {
			ev.ErrorMessage = s.Errors[0].Title
		}
	}
	return ev
}

func decodeMessage(v changeValue, i int, m wireMessage) MessageEvent {
	ev := MessageEvent{
		ProviderMessageID: m.ID,
		From:              strings.TrimSpace(m.From),
		PhoneNumberID:     v.Metadata.PhoneNumberID,
		Type:              m.Type,
	}
	// contacts line up with messages; fall back to the first profile
	switch {
	case i < len(v.Contacts):
		ev.ProfileName = v.Contacts[i].Profile.Name
	case len(v.Contacts) > 0:
		ev.ProfileName = v.Contacts[0].Profile.Name
	}
	if m.Text != nil {
		ev.Text = m.Text.Body
	}
	if m.Button != nil {
		ev.ButtonText = m.Button.Text
	}
	if in := m.Interactive; in != nil {
		switch {
		case in.ButtonReply != nil:
			ev.ButtonText = in.ButtonReply.Title
		case in.ListReply != nil:
			ev.ButtonText = in.ListReply.Title
		}
	}
	return ev
}
