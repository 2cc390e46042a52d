package leads

import (
	"context"
	"errors"
)

var (
	ErrNotFound        = errors.New("leads: not found")
	ErrInvalidArgument = errors.New("leads: invalid argument")

	// ErrPhoneTaken and ErrEmailTaken report uniqueness violations raised by the store.
	ErrPhoneTaken = errors.New("leads: phone already in use")
	ErrEmailTaken = errors.New("leads: email already in use")
)

// Store is the persistence contract for leads.
// Implementations enforce phone uniqueness per organization and email uniqueness globally,
// reporting violations as ErrPhoneTaken / ErrEmailTaken.
type Store interface {
	Get(ctx context.Context, organizationID, id string) (Lead, error)
	List(ctx context.Context, organizationID string) ([]Lead, error)
	// FindByPhone matches with or without a leading "+".
	FindByPhone(ctx context.Context, organizationID, phone string) (Lead, error)
	FindByEmail(ctx context.Context, email string) (Lead, error)
	EmailTaken(ctx context.Context, email string) (bool, error)
	Insert(ctx context.Context, l Lead) error
	// UpdateContact overwrites name, phone and status and returns the stored lead.
	UpdateContact(ctx context.Context, organizationID, id, name, phone string, status Status) (Lead, error)
	// AddHandler is idempotent.
	AddHandler(ctx context.Context, organizationID, leadID, userID string) error
	AppendInteraction(ctx context.Context, in Interaction) error
	Interactions(ctx context.Context, organizationID, leadID string) ([]Interaction, error)
}
