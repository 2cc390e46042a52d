package leads

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Service records inbound and manual activity against leads.
type Service struct {
	store    Store
	resolver *Resolver
	clock    func() time.Time
}

func NewService(store Store, resolver *Resolver) *Service {
	return &Service{store: store, resolver: resolver, clock: time.Now}
}

// RecordInbound resolves the lead for an inbound message, makes sure the owner
// handles it, and appends one REPLY interaction with notes.
func (s *Service) RecordInbound(ctx context.Context, in Input, notes string) (Result, error) {
	res, err := s.resolver.Resolve(ctx, in)
	if err != nil {
		return Result{}, err
	}
	if in.OwnerID != "" {
		if err := s.store.AddHandler(ctx, in.OrganizationID, res.Lead.ID, in.OwnerID); err != nil {
			return res, err
		}
		res.Lead.HandlerIDs = appendUnique(res.Lead.HandlerIDs, in.OwnerID)
	}
	err = s.store.AppendInteraction(ctx, Interaction{
		ID:             uuid.NewString(),
		OrganizationID: in.OrganizationID,
		LeadID:         res.Lead.ID,
		Type:           InteractionReply,
		Notes:          notes,
		CreatedByID:    in.OwnerID,
		CreatedAt:      s.clock().UTC(),
	})
	return res, err
}

// LogInteraction appends a manual history entry written by a user.
func (s *Service) LogInteraction(ctx context.Context, organizationID, leadID, userID string, t InteractionType, notes string) (Interaction, error) {
	if organizationID == "" || leadID == "" || strings.TrimSpace(notes) == "" {
		return Interaction{}, ErrInvalidArgument
	}
	switch t {
	case InteractionReply, InteractionCall, InteractionMeeting, InteractionNote:
	case "":
		t = InteractionNote
	default:
		return Interaction{}, ErrInvalidArgument
	}
	if _, err := s.store.Get(ctx, organizationID, leadID); err != nil {
		return Interaction{}, err
	}
	in := Interaction{
		ID:             uuid.NewString(),
		OrganizationID: organizationID,
		LeadID:         leadID,
		Type:           t,
		Notes:          strings.TrimSpace(notes),
		CreatedByID:    userID,
		CreatedAt:      s.clock().UTC(),
	}
	if err := s.store.AppendInteraction(ctx, in); err != nil {
		return Interaction{}, err
	}
	return in, nil
}

func (s *Service) List(ctx context.Context, organizationID string) ([]Lead, error) {
	if organizationID == "" {
		return nil, ErrInvalidArgument
	}
	return s.store.List(ctx, organizationID)
}

func (s *Service) Interactions(ctx context.Context, organizationID, leadID string) ([]Interaction, error) {
	if organizationID == "" || leadID == "" {
		return nil, ErrInvalidArgument
	}
	return s.store.Interactions(ctx, organizationID, leadID)
}

func appendUnique(ids []string, id string) []string {
	for _, x := range ids {
		if x == id {
			return ids
		}
	}
	return append(ids, id)
}
