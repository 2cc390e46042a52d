package postgres

import (
	"context"
	"fmt"

	"sales-crm/internal/senders"
	"sales-crm/pkg/utils"

	"github.com/jackc/pgx/v5"
)

const senderColumns = `id, organization_id, name, phone_number, phone_id, business_account_id, api_key, created_at`

type SenderRepo struct {
	db DB
}

func NewSenderRepo(db DB) *SenderRepo { return &SenderRepo{db: db} }

func scanSender(row pgx.Row) (senders.Identity, error) {
	var s senders.Identity
	err := row.Scan(&s.ID, &s.OrganizationID, &s.Name, &s.PhoneNumber, &s.PhoneID, &s.BusinessAccountID, &s.APIKey, &s.CreatedAt)
	return s, err
}

func (r *SenderRepo) Create(ctx context.Context, s senders.Identity) error {
	_, err := r.db.Exec(ctx, `INSERT INTO sender_identities (`+senderColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		s.ID, s.OrganizationID, s.Name, s.PhoneNumber, s.PhoneID, s.BusinessAccountID, s.APIKey, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert sender: %w", err)
	}
	return nil
}

func (r *SenderRepo) one(ctx context.Context, where string, args ...any) (senders.Identity, error) {
	s, err := scanSender(r.db.QueryRow(ctx, `SELECT `+senderColumns+` FROM sender_identities WHERE `+where, args...))
	if noRows(err) {
		return senders.Identity{}, senders.ErrNotFound
	}
	if err != nil {
		return senders.Identity{}, fmt.Errorf("get sender: %w", err)
	}
	return s, nil
}

func (r *SenderRepo) Get(ctx context.Context, organizationID, id string) (senders.Identity, error) {
	return r.one(ctx, `organization_id = $1 AND id = $2`, organizationID, id)
}

func (r *SenderRepo) FindByPhoneID(ctx context.Context, phoneID string) (senders.Identity, error) {
	return r.one(ctx, `phone_id = $1`, phoneID)
}

func (r *SenderRepo) collect(ctx context.Context, sql string, args ...any) ([]senders.Identity, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list senders: %w", err)
	}
	defer rows.Close()

	out := make([]senders.Identity, 0)
	for rows.Next() {
		s, err := scanSender(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sender: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SenderRepo) GetMany(ctx context.Context, organizationID string, ids []string) ([]senders.Identity, error) {
	if len(ids) == 0 {
		return []senders.Identity{}, nil
	}
	return r.collect(ctx, `SELECT `+senderColumns+` FROM sender_identities
		WHERE organization_id = $1 AND id = ANY($2) ORDER BY created_at`, organizationID, ids)
}

func (r *SenderRepo) List(ctx context.Context, organizationID string) ([]senders.Identity, error) {
	return r.collect(ctx, `SELECT `+senderColumns+` FROM sender_identities WHERE organization_id = $1 ORDER BY created_at`, organizationID)
}

// Delete removes the identity, its campaign assignments and every delivery log it produced.
func (r *SenderRepo) Delete(ctx context.Context, organizationID, id string) error {
	return utils.WithTx(ctx, r.db, pgx.TxOptions{}, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM campaign_senders WHERE sender_id = $1`, id); err != nil {
			return fmt.Errorf("detach sender: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM delivery_logs WHERE organization_id = $1 AND sender_id = $2`, organizationID, id); err != nil {
			return fmt.Errorf("purge sender logs: %w", err)
		}
		tag, err := tx.Exec(ctx, `DELETE FROM sender_identities WHERE organization_id = $1 AND id = $2`, organizationID, id)
		if err != nil {
			return fmt.Errorf("delete sender: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return senders.ErrNotFound
		}
		return nil
	})
}
