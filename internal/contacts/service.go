package contacts

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound        = errors.New("contacts: not found")
	ErrInvalidArgument = errors.New("contacts: invalid argument")
)

// Repository is the persistence contract for contact lists.
// Phone lookups treat a leading "+" as insignificant.
type Repository interface {
	CreateList(ctx context.Context, l List) error
	GetList(ctx context.Context, organizationID, listID string) (List, error)
	Lists(ctx context.Context, organizationID string) ([]List, error)
	AddContacts(ctx context.Context, cs []Contact) error
	// ValidContacts returns the list's valid contacts in insertion order.
	ValidContacts(ctx context.Context, organizationID, listID string) ([]Contact, error)
	CountValid(ctx context.Context, organizationID, listID string) (int, error)
	GetByIDs(ctx context.Context, organizationID string, ids []string) ([]Contact, error)
	FindByPhone(ctx context.Context, organizationID, phone string) (Contact, error)
	// InvalidateByPhone marks every contact of the organization with the phone invalid.
	InvalidateByPhone(ctx context.Context, organizationID, phone, note string) (int64, error)
}

type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

// ImportList stores a new list with contacts produced by the data-quality pipeline.
// Contacts keep their IsValid and DuplicateInfo as supplied.
func (s *Service) ImportList(ctx context.Context, organizationID, name string, cs []Contact) (List, error) {
	if organizationID == "" || strings.TrimSpace(name) == "" {
		return List{}, ErrInvalidArgument
	}
	now := s.clock().UTC()
	l := List{ID: uuid.NewString(), OrganizationID: organizationID, Name: strings.TrimSpace(name), CreatedAt: now}
	if err := s.repo.CreateList(ctx, l); err != nil {
		return List{}, err
	}
	if len(cs) == 0 {
		return l, nil
	}
	rows := make([]Contact, 0, len(cs))
	for i, c := range cs {
		c.ID = uuid.NewString()
		c.ListID = l.ID
		c.OrganizationID = organizationID
		// keep list order stable for stores ordering by insertion time
		c.CreatedAt = now.Add(time.Duration(i) * time.Microsecond)
		rows = append(rows, c)
	}
	if err := s.repo.AddContacts(ctx, rows); err != nil {
		return List{}, err
	}
	return l, nil
}

func (s *Service) Lists(ctx context.Context, organizationID string) ([]List, error) {
	if organizationID == "" {
		return nil, ErrInvalidArgument
	}
	return s.repo.Lists(ctx, organizationID)
}
