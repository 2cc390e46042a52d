package postgres

import (
	"context"
	"fmt"

	"sales-crm/internal/contacts"
	"sales-crm/internal/phone"
	"sales-crm/pkg/utils"

	"github.com/jackc/pgx/v5"
)

const contactColumns = `id, list_id, organization_id, name, phone, email, city, language, is_valid, duplicate_info, created_at`

type ContactRepo struct {
	db DB
}

func NewContactRepo(db DB) *ContactRepo { return &ContactRepo{db: db} }

func (r *ContactRepo) CreateList(ctx context.Context, l contacts.List) error {
	_, err := r.db.Exec(ctx, `INSERT INTO contact_lists (id, organization_id, name, created_at) VALUES ($1, $2, $3, $4)`,
		l.ID, l.OrganizationID, l.Name, l.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert contact list: %w", err)
	}
	return nil
}

func (r *ContactRepo) GetList(ctx context.Context, organizationID, listID string) (contacts.List, error) {
	var l contacts.List
	err := r.db.QueryRow(ctx, `SELECT id, organization_id, name, created_at FROM contact_lists WHERE organization_id = $1 AND id = $2`,
		organizationID, listID).Scan(&l.ID, &l.OrganizationID, &l.Name, &l.CreatedAt)
	if noRows(err) {
		return contacts.List{}, contacts.ErrNotFound
	}
	if err != nil {
		return contacts.List{}, fmt.Errorf("get contact list: %w", err)
	}
	return l, nil
}

func (r *ContactRepo) Lists(ctx context.Context, organizationID string) ([]contacts.List, error) {
	rows, err := r.db.Query(ctx, `SELECT id, organization_id, name, created_at FROM contact_lists WHERE organization_id = $1 ORDER BY created_at DESC`, organizationID)
	if err != nil {
		return nil, fmt.Errorf("list contact lists: %w", err)
	}
	defer rows.Close()

	out := make([]contacts.List, 0)
	for rows.Next() {
		var l contacts.List
		if err := rows.Scan(&l.ID, &l.OrganizationID, &l.Name, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan contact list: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// AddContacts inserts the batch atomically, preserving its order.
func (r *ContactRepo) AddContacts(ctx context.Context, cs []contacts.Contact) error {
	if len(cs) == 0 {
		return nil
	}
	return utils.WithTx(ctx, r.db, pgx.TxOptions{}, func(ctx context.Context, tx pgx.Tx) error {
		for _, c := range cs {
			_, err := tx.Exec(ctx, `INSERT INTO contacts (`+contactColumns+`)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
				c.ID, c.ListID, c.OrganizationID, c.Name, c.Phone, c.Email, c.City, c.Language, c.IsValid, c.DuplicateInfo, c.CreatedAt)
			if err != nil {
				return fmt.Errorf("insert contact: %w", err)
			}
		}
		return nil
	})
}

func (r *ContactRepo) collect(ctx context.Context, sql string, args ...any) ([]contacts.Contact, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query contacts: %w", err)
	}
	defer rows.Close()

	out := make([]contacts.Contact, 0)
	for rows.Next() {
		var c contacts.Contact
		if err := rows.Scan(&c.ID, &c.ListID, &c.OrganizationID, &c.Name, &c.Phone, &c.Email, &c.City, &c.Language,
			&c.IsValid, &c.DuplicateInfo, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *ContactRepo) ValidContacts(ctx context.Context, organizationID, listID string) ([]contacts.Contact, error) {
	return r.collect(ctx, `SELECT `+contactColumns+` FROM contacts
		WHERE organization_id = $1 AND list_id = $2 AND is_valid ORDER BY seq`, organizationID, listID)
}

func (r *ContactRepo) CountValid(ctx context.Context, organizationID, listID string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT count(*) FROM contacts WHERE organization_id = $1 AND list_id = $2 AND is_valid`,
		organizationID, listID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count contacts: %w", err)
	}
	return n, nil
}

func (r *ContactRepo) GetByIDs(ctx context.Context, organizationID string, ids []string) ([]contacts.Contact, error) {
	if len(ids) == 0 {
		return []contacts.Contact{}, nil
	}
	return r.collect(ctx, `SELECT `+contactColumns+` FROM contacts
		WHERE organization_id = $1 AND id = ANY($2) ORDER BY seq`, organizationID, ids)
}

func (r *ContactRepo) FindByPhone(ctx context.Context, organizationID, p string) (contacts.Contact, error) {
	cs, err := r.collect(ctx, `SELECT `+contactColumns+` FROM contacts
		WHERE organization_id = $1 AND ltrim(phone, '+') = $2 ORDER BY seq LIMIT 1`, organizationID, phone.Normalize(p))
	if err != nil {
		return contacts.Contact{}, err
	}
	if len(cs) == 0 {
		return contacts.Contact{}, contacts.ErrNotFound
	}
	return cs[0], nil
}

// InvalidateByPhone flags every matching contact across all lists of the organization.
func (r *ContactRepo) InvalidateByPhone(ctx context.Context, organizationID, p, note string) (int64, error) {
	tag, err := r.db.Exec(ctx, `UPDATE contacts SET is_valid = false, duplicate_info = $3
		WHERE organization_id = $1 AND ltrim(phone, '+') = $2`, organizationID, phone.Normalize(p), note)
	if err != nil {
		return 0, fmt.Errorf("invalidate contacts: %w", err)
	}
	return tag.RowsAffected(), nil
}
