package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"sales-crm/internal/leads"
	"sales-crm/internal/phone"

	"github.com/jackc/pgx/v5"
)

const (
	leadsEmailKey    = "leads_email_key"
	leadsOrgPhoneKey = "leads_org_phone_key"
)

const leadColumns = `l.id, l.organization_id, l.name, l.email, l.phone, l.status, l.source, l.created_by_id, l.created_at, l.updated_at,
	COALESCE((SELECT array_agg(h.user_id ORDER BY h.user_id) FROM lead_handlers h WHERE h.lead_id = l.id), '{}')`

// LeadStore persists leads. Uniqueness of phone per organization and of email
// is enforced by unique indexes and surfaced as leads.ErrPhoneTaken / leads.ErrEmailTaken.
type LeadStore struct {
	db DB
}

func NewLeadStore(db DB) *LeadStore { return &LeadStore{db: db} }

func scanLead(row pgx.Row) (leads.Lead, error) {
	var l leads.Lead
	var status string
	err := row.Scan(&l.ID, &l.OrganizationID, &l.Name, &l.Email, &l.Phone, &status, &l.Source,
		&l.CreatedByID, &l.CreatedAt, &l.UpdatedAt, &l.HandlerIDs)
	l.Status = leads.Status(status)
	return l, err
}

func (s *LeadStore) one(ctx context.Context, where string, args ...any) (leads.Lead, error) {
	l, err := scanLead(s.db.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads l WHERE `+where+` LIMIT 1`, args...))
	if noRows(err) {
		return leads.Lead{}, leads.ErrNotFound
	}
	if err != nil {
		return leads.Lead{}, fmt.Errorf("query lead: %w", err)
	}
	return l, nil
}

func (s *LeadStore) Get(ctx context.Context, organizationID, id string) (leads.Lead, error) {
	return s.one(ctx, `l.organization_id = $1 AND l.id = $2`, organizationID, id)
}

func (s *LeadStore) List(ctx context.Context, organizationID string) ([]leads.Lead, error) {
	rows, err := s.db.Query(ctx, `SELECT `+leadColumns+` FROM leads l WHERE l.organization_id = $1 ORDER BY l.updated_at DESC`, organizationID)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	out := make([]leads.Lead, 0)
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *LeadStore) FindByPhone(ctx context.Context, organizationID, p string) (leads.Lead, error) {
	return s.one(ctx, `l.organization_id = $1 AND ltrim(l.phone, '+') = $2`, organizationID, phone.Normalize(p))
}

func (s *LeadStore) FindByEmail(ctx context.Context, email string) (leads.Lead, error) {
	return s.one(ctx, `lower(l.email) = lower($1)`, email)
}

func (s *LeadStore) EmailTaken(ctx context.Context, email string) (bool, error) {
	var taken bool
	err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM leads WHERE lower(email) = lower($1))`, email).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("check lead email: %w", err)
	}
	return taken, nil
}

func (s *LeadStore) Insert(ctx context.Context, l leads.Lead) error {
	_, err := s.db.Exec(ctx, `INSERT INTO leads (id, organization_id, name, email, phone, status, source, created_by_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		l.ID, l.OrganizationID, l.Name, strings.ToLower(l.Email), l.Phone, string(l.Status), l.Source, l.CreatedByID, l.CreatedAt, l.UpdatedAt)
	return mapLeadErr(err)
}

func (s *LeadStore) UpdateContact(ctx context.Context, organizationID, id, name, p string, status leads.Status) (leads.Lead, error) {
	tag, err := s.db.Exec(ctx, `UPDATE leads SET name = $3, phone = $4, status = $5, updated_at = $6
		WHERE organization_id = $1 AND id = $2`,
		organizationID, id, name, p, string(status), time.Now().UTC())
	if err != nil {
		return leads.Lead{}, mapLeadErr(err)
	}
	if tag.RowsAffected() == 0 {
		return leads.Lead{}, leads.ErrNotFound
	}
	return s.Get(ctx, organizationID, id)
}

func (s *LeadStore) AddHandler(ctx context.Context, organizationID, leadID, userID string) error {
	tag, err := s.db.Exec(ctx, `INSERT INTO lead_handlers (lead_id, user_id)
		SELECT id, $3 FROM leads WHERE organization_id = $1 AND id = $2
		ON CONFLICT DO NOTHING`, organizationID, leadID, userID)
	if err != nil {
		return fmt.Errorf("add lead handler: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// either already attached or the lead is gone
		if _, err := s.Get(ctx, organizationID, leadID); err != nil {
			return err
		}
	}
	return nil
}

func (s *LeadStore) AppendInteraction(ctx context.Context, in leads.Interaction) error {
	_, err := s.db.Exec(ctx, `INSERT INTO interactions (id, organization_id, lead_id, type, notes, created_by_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		in.ID, in.OrganizationID, in.LeadID, string(in.Type), in.Notes, in.CreatedByID, in.CreatedAt)
	if err != nil {
		return fmt.Errorf("append interaction: %w", err)
	}
	return nil
}

func (s *LeadStore) Interactions(ctx context.Context, organizationID, leadID string) ([]leads.Interaction, error) {
	rows, err := s.db.Query(ctx, `SELECT id, organization_id, lead_id, type, notes, created_by_id, created_at
		FROM interactions WHERE organization_id = $1 AND lead_id = $2 ORDER BY created_at`, organizationID, leadID)
	if err != nil {
		return nil, fmt.Errorf("list interactions: %w", err)
	}
	defer rows.Close()

	out := make([]leads.Interaction, 0)
	for rows.Next() {
		var in leads.Interaction
		var t string
		if err := rows.Scan(&in.ID, &in.OrganizationID, &in.LeadID, &t, &in.Notes, &in.CreatedByID, &in.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan interaction: %w", err)
		}
		in.Type = leads.InteractionType(t)
		out = append(out, in)
	}
	return out, rows.Err()
}

func mapLeadErr(err error) error {
	switch {
	case err == nil:
		return nil
	case violated(err, leadsOrgPhoneKey):
		return leads.ErrPhoneTaken
	case violated(err, leadsEmailKey):
		return leads.ErrEmailTaken
	default:
		return fmt.Errorf("write lead: %w", err)
	}
}
