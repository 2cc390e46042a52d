package leads

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"sales-crm/internal/metrics"
	"sales-crm/internal/phone"

	"github.com/google/uuid"
)

const (
	// DefaultName is used when neither the contact list nor the profile supplies a name.
	DefaultName = "WhatsApp Contact"
	// SyntheticEmailDomain hosts placeholder emails for leads created from inbound messages.
	SyntheticEmailDomain = "whatsapp.internal"
	SourceWhatsApp       = "WHATSAPP"
)

// Outcome says how an inbound contact was matched.
type Outcome string

const (
	OutcomeUpdated Outcome = "updated"
	OutcomeAdopted Outcome = "adopted"
	OutcomeCreated Outcome = "created"
)

// Input is an inbound phone number with optional enrichment.
type Input struct {
	OrganizationID string
	Phone          string
	Name           string
	Email          string
	// OwnerID becomes creator of a new lead.
	OwnerID string
}

type Result struct {
	Lead    Lead
	Outcome Outcome
}

// Resolver merges an inbound contact into exactly one lead per phone number.
type Resolver struct {
	store Store
	clock func() time.Time
	// suffix produces the last-resort uniqueness suffix for synthesized emails.
	suffix func() string
}

func NewResolver(store Store) *Resolver {
	return &Resolver{
		store: store,
		clock: time.Now,
		suffix: func() string {
			return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
		},
	}
}

// Resolve finds or creates the lead for in.Phone.
// A concurrent insert of the same phone is absorbed by re-reading once.
func (r *Resolver) Resolve(ctx context.Context, in Input) (Result, error) {
	p := phone.Normalize(in.Phone)
	if in.OrganizationID == "" || p == "" {
		return Result{}, ErrInvalidArgument
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = DefaultName
	}

	res, err := r.resolveOnce(ctx, in, p, name)
	if errors.Is(err, ErrPhoneTaken) {
		res, err = r.resolveOnce(ctx, in, p, name)
	}
	if err != nil {
		return Result{}, err
	}
	metrics.LeadsResolved.WithLabelValues(string(res.Outcome)).Inc()
	return res, nil
}

func (r *Resolver) resolveOnce(ctx context.Context, in Input, p, name string) (Result, error) {
	existing, err := r.store.FindByPhone(ctx, in.OrganizationID, p)
	switch {
	case err == nil:
		l, err := r.store.UpdateContact(ctx, in.OrganizationID, existing.ID, name, p, StatusLead)
		if err != nil {
			return Result{}, err
		}
		return Result{Lead: l, Outcome: OutcomeUpdated}, nil
	case !errors.Is(err, ErrNotFound):
		return Result{}, err
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email != "" {
		byEmail, err := r.store.FindByEmail(ctx, email)
		switch {
		case err == nil:
			// never move a lead that already belongs to another number
			if byEmail.OrganizationID == in.OrganizationID && (byEmail.Phone == "" || phone.Equal(byEmail.Phone, p)) {
				l, err := r.store.UpdateContact(ctx, in.OrganizationID, byEmail.ID, name, p, StatusLead)
				if err != nil {
					return Result{}, err
				}
				return Result{Lead: l, Outcome: OutcomeAdopted}, nil
			}
		case !errors.Is(err, ErrNotFound):
			return Result{}, err
		}
	}

	return r.create(ctx, in, p, name, email)
}

func (r *Resolver) create(ctx context.Context, in Input, p, name, email string) (Result, error) {
	now := r.clock().UTC()
	l := Lead{
		ID:             uuid.NewString(),
		OrganizationID: in.OrganizationID,
		Name:           name,
		Phone:          p,
		Status:         StatusLead,
		Source:         SourceWhatsApp,
		CreatedByID:    in.OwnerID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	for _, candidate := range r.emailCandidates(p, email) {
		taken, err := r.store.EmailTaken(ctx, candidate)
		if err != nil {
			return Result{}, err
		}
		if taken {
			continue
		}
		l.Email = candidate
		err = r.store.Insert(ctx, l)
		if errors.Is(err, ErrEmailTaken) {
			// lost a race for this address; try the next one
			continue
		}
		if err != nil {
			return Result{}, err
		}
		return Result{Lead: l, Outcome: OutcomeCreated}, nil
	}
	return Result{}, fmt.Errorf("%w: no free email for %s", ErrEmailTaken, p)
}

// emailCandidates lists the addresses tried in order for a new lead.
func (r *Resolver) emailCandidates(p, supplied string) []string {
	primary := supplied
	if primary == "" {
		primary = SyntheticEmail(p, "")
	}
	return []string{
		primary,
		SyntheticEmail(p, "system"),
		SyntheticEmail(p, r.suffix()),
	}
}

// SyntheticEmail builds a placeholder address for a phone-only lead.
func SyntheticEmail(p, tag string) string {
	local := phone.Normalize(p)
	if tag != "" {
		local += "." + tag
	}
	return local + "@" + SyntheticEmailDomain
}
