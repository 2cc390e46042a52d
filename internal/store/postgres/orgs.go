package postgres

import (
	"context"
	"fmt"

	"sales-crm/internal/audit"
	"sales-crm/internal/orgs"
)

type OrgRepo struct {
	db DB
}

func NewOrgRepo(db DB) *OrgRepo { return &OrgRepo{db: db} }

func (r *OrgRepo) Get(ctx context.Context, id string) (orgs.Organization, error) {
	var o orgs.Organization
	var owner *string
	err := r.db.QueryRow(ctx, `SELECT id, name, default_lead_owner_id, created_at FROM organizations WHERE id = $1`, id).
		Scan(&o.ID, &o.Name, &owner, &o.CreatedAt)
	if noRows(err) {
		return orgs.Organization{}, orgs.ErrNotFound
	}
	if err != nil {
		return orgs.Organization{}, fmt.Errorf("get organization: %w", err)
	}
	o.DefaultLeadOwnerID = deref(owner)
	return o, nil
}

func (r *OrgRepo) IsMember(ctx context.Context, organizationID, userID string) (bool, error) {
	var orgExists, member bool
	err := r.db.QueryRow(ctx, `SELECT
			EXISTS (SELECT 1 FROM organizations WHERE id = $1),
			EXISTS (SELECT 1 FROM organization_members WHERE organization_id = $1 AND user_id = $2)`,
		organizationID, userID).Scan(&orgExists, &member)
	if err != nil {
		return false, fmt.Errorf("check membership: %w", err)
	}
	if !orgExists {
		return false, orgs.ErrNotFound
	}
	return member, nil
}

func (r *OrgRepo) SetDefaultLeadOwner(ctx context.Context, organizationID, userID string) error {
	tag, err := r.db.Exec(ctx, `UPDATE organizations SET default_lead_owner_id = $2 WHERE id = $1`, organizationID, nullIfEmpty(userID))
	if err != nil {
		return fmt.Errorf("set default lead owner: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return orgs.ErrNotFound
	}
	return nil
}

// AuditRepo appends audit events. Rows are never updated.
type AuditRepo struct {
	db DB
}

func NewAuditRepo(db DB) *AuditRepo { return &AuditRepo{db: db} }

func (r *AuditRepo) Append(ctx context.Context, e audit.Event) error {
	_, err := r.db.Exec(ctx, `INSERT INTO audit_events (id, organization_id, type, actor_user_id, actor_role,
			campaign_id, sender_id, phone, message, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		e.ID, e.OrganizationID, string(e.Type), e.ActorUserID, e.ActorRole,
		e.CampaignID, e.SenderID, e.Phone, e.Message, e.Metadata, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}
