package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"sales-crm/internal/campaigns"
	"sales-crm/pkg/utils"

	"github.com/jackc/pgx/v5"
)

const campaignColumns = `c.id, c.organization_id, c.name, c.list_id, COALESCE(c.template_id, ''), c.batch_settings, c.status,
	c.created_by_id, c.started_at, c.completed_at, c.created_at,
	COALESCE((SELECT array_agg(cs.sender_id ORDER BY cs.sender_id) FROM campaign_senders cs WHERE cs.campaign_id = c.id), '{}')`

const logColumns = `id, organization_id, campaign_id, contact_id, sender_id, recipient, status,
	COALESCE(provider_message_id, ''), error_code, error_message, created_at, updated_at`

// CampaignRepo stores campaigns, their sender assignments and delivery logs.
type CampaignRepo struct {
	db DB
}

func NewCampaignRepo(db DB) *CampaignRepo { return &CampaignRepo{db: db} }

func scanCampaign(row pgx.Row) (campaigns.Campaign, error) {
	var c campaigns.Campaign
	var status string
	var settings []byte
	err := row.Scan(&c.ID, &c.OrganizationID, &c.Name, &c.ListID, &c.TemplateID, &settings, &status,
		&c.CreatedByID, &c.StartedAt, &c.CompletedAt, &c.CreatedAt, &c.SenderIDs)
	if err != nil {
		return c, err
	}
	c.Status = campaigns.Status(status)
	if len(settings) > 0 {
		if err := json.Unmarshal(settings, &c.BatchSettings); err != nil {
			return c, fmt.Errorf("decode batch settings: %w", err)
		}
	}
	return c, nil
}

func (r *CampaignRepo) Create(ctx context.Context, c campaigns.Campaign) error {
	settings, err := json.Marshal(c.BatchSettings)
	if err != nil {
		return fmt.Errorf("encode batch settings: %w", err)
	}
	return utils.WithTx(ctx, r.db, pgx.TxOptions{}, func(ctx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `INSERT INTO campaigns (id, organization_id, name, list_id, template_id, batch_settings, status, created_by_id, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			c.ID, c.OrganizationID, c.Name, c.ListID, nullIfEmpty(c.TemplateID), settings, string(c.Status), c.CreatedByID, c.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert campaign: %w", err)
		}
		for _, sid := range c.SenderIDs {
			if _, err := tx.Exec(ctx, `INSERT INTO campaign_senders (campaign_id, sender_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, c.ID, sid); err != nil {
				return fmt.Errorf("assign sender: %w", err)
			}
		}
		return nil
	})
}

func (r *CampaignRepo) Get(ctx context.Context, organizationID, id string) (campaigns.Campaign, error) {
	c, err := scanCampaign(r.db.QueryRow(ctx, `SELECT `+campaignColumns+` FROM campaigns c WHERE c.organization_id = $1 AND c.id = $2`, organizationID, id))
	if noRows(err) {
		return campaigns.Campaign{}, campaigns.ErrNotFound
	}
	if err != nil {
		return campaigns.Campaign{}, fmt.Errorf("get campaign: %w", err)
	}
	return c, nil
}

func (r *CampaignRepo) List(ctx context.Context, organizationID string) ([]campaigns.Campaign, error) {
	rows, err := r.db.Query(ctx, `SELECT `+campaignColumns+` FROM campaigns c WHERE c.organization_id = $1 ORDER BY c.created_at DESC`, organizationID)
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	defer rows.Close()

	out := make([]campaigns.Campaign, 0)
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("scan campaign: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// TransitionStatus is a single conditional UPDATE; concurrent callers race on the row lock
// and only one of them observes a matching status.
func (r *CampaignRepo) TransitionStatus(ctx context.Context, organizationID, id string, from []campaigns.Status, to campaigns.Status, at time.Time) (bool, error) {
	fromText := make([]string, len(from))
	for i, f := range from {
		fromText[i] = string(f)
	}
	tag, err := r.db.Exec(ctx, `UPDATE campaigns SET status = $3,
			started_at = CASE WHEN $3 = 'SENDING' THEN $5 ELSE started_at END,
			completed_at = CASE WHEN $3 = 'SENDING' THEN NULL WHEN $3 = 'COMPLETED' THEN $5 ELSE completed_at END
		WHERE organization_id = $1 AND id = $2 AND status = ANY($4)`,
		organizationID, id, string(to), fromText, at)
	if err != nil {
		return false, fmt.Errorf("transition campaign: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return true, nil
	}
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM campaigns WHERE organization_id = $1 AND id = $2)`, organizationID, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("check campaign: %w", err)
	}
	if !exists {
		return false, campaigns.ErrNotFound
	}
	return false, nil
}

func (r *CampaignRepo) Delete(ctx context.Context, organizationID, id string) error {
	return utils.WithTx(ctx, r.db, pgx.TxOptions{}, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM delivery_logs WHERE organization_id = $1 AND campaign_id = $2`, organizationID, id); err != nil {
			return fmt.Errorf("delete delivery logs: %w", err)
		}
		tag, err := tx.Exec(ctx, `DELETE FROM campaigns WHERE organization_id = $1 AND id = $2`, organizationID, id)
		if err != nil {
			return fmt.Errorf("delete campaign: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return campaigns.ErrNotFound
		}
		return nil
	})
}

func (r *CampaignRepo) AppendLog(ctx context.Context, l campaigns.DeliveryLog) error {
	_, err := r.db.Exec(ctx, `INSERT INTO delivery_logs (id, organization_id, campaign_id, contact_id, sender_id, recipient, status,
			provider_message_id, error_code, error_message, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		l.ID, l.OrganizationID, l.CampaignID, l.ContactID, l.SenderID, l.Recipient, string(l.Status),
		nullIfEmpty(l.ProviderMessageID), l.ErrorCode, l.ErrorMessage, l.CreatedAt, l.UpdatedAt)
	if err != nil {
		return fmt.Errorf("append delivery log: %w", err)
	}
	return nil
}

func (r *CampaignRepo) Logs(ctx context.Context, organizationID, campaignID string) ([]campaigns.DeliveryLog, error) {
	rows, err := r.db.Query(ctx, `SELECT `+logColumns+` FROM delivery_logs
		WHERE organization_id = $1 AND campaign_id = $2 ORDER BY created_at`, organizationID, campaignID)
	if err != nil {
		return nil, fmt.Errorf("list delivery logs: %w", err)
	}
	defer rows.Close()

	out := make([]campaigns.DeliveryLog, 0)
	for rows.Next() {
		var l campaigns.DeliveryLog
		var status string
		if err := rows.Scan(&l.ID, &l.OrganizationID, &l.CampaignID, &l.ContactID, &l.SenderID, &l.Recipient, &status,
			&l.ProviderMessageID, &l.ErrorCode, &l.ErrorMessage, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan delivery log: %w", err)
		}
		l.Status = campaigns.DeliveryStatus(status)
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *CampaignRepo) FailedContactIDs(ctx context.Context, organizationID, campaignID string) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT contact_id FROM delivery_logs
		WHERE organization_id = $1 AND campaign_id = $2 AND status = 'FAILED'
		GROUP BY contact_id ORDER BY min(created_at)`, organizationID, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed contacts: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// ApplyDeliveryStatus leaves the stored error untouched when the receipt carries none.
func (r *CampaignRepo) ApplyDeliveryStatus(ctx context.Context, u campaigns.StatusUpdate, at time.Time) (int64, error) {
	if u.ProviderMessageID == "" {
		return 0, nil
	}
	hasErr := u.ErrorCode != "" || u.ErrorMessage != ""
	tag, err := r.db.Exec(ctx, `UPDATE delivery_logs SET status = $2,
			error_code = CASE WHEN $3 THEN $4 ELSE error_code END,
			error_message = CASE WHEN $3 THEN $5 ELSE error_message END,
			updated_at = $6
		WHERE provider_message_id = $1`,
		u.ProviderMessageID, strings.ToUpper(u.Status), hasErr, u.ErrorCode, u.ErrorMessage, at)
	if err != nil {
		return 0, fmt.Errorf("apply delivery status: %w", err)
	}
	return tag.RowsAffected(), nil
}

// StatusCounts, FailureReasons and ValidRecipients back the reporting overview.

func (r *CampaignRepo) Campaigns(ctx context.Context, organizationID string) ([]campaigns.Campaign, error) {
	return r.List(ctx, organizationID)
}

func (r *CampaignRepo) StatusCounts(ctx context.Context, organizationID, campaignID string) (map[campaigns.DeliveryStatus]int, error) {
	rows, err := r.db.Query(ctx, `SELECT status, count(*) FROM delivery_logs
		WHERE organization_id = $1 AND campaign_id = $2 GROUP BY status`, organizationID, campaignID)
	if err != nil {
		return nil, fmt.Errorf("status counts: %w", err)
	}
	defer rows.Close()

	out := map[campaigns.DeliveryStatus]int{}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		out[campaigns.DeliveryStatus(status)] = n
	}
	return out, rows.Err()
}

func (r *CampaignRepo) FailureReasons(ctx context.Context, organizationID, campaignID string) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT DISTINCT error_message FROM delivery_logs
		WHERE organization_id = $1 AND campaign_id = $2 AND status = 'FAILED' AND error_message <> ''
		ORDER BY error_message`, organizationID, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failure reasons: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (r *CampaignRepo) ValidRecipients(ctx context.Context, organizationID, listID string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT count(*) FROM contacts WHERE organization_id = $1 AND list_id = $2 AND is_valid`,
		organizationID, listID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count recipients: %w", err)
	}
	return n, nil
}
