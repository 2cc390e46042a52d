package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"sales-crm/internal/templates"

	"github.com/jackc/pgx/v5"
)

const templateColumns = `id, organization_id, name, language, category, status, components, created_at, updated_at`

type TemplateRepo struct {
	db DB
}

func NewTemplateRepo(db DB) *TemplateRepo { return &TemplateRepo{db: db} }

func scanTemplate(row pgx.Row) (templates.Template, error) {
	var t templates.Template
	var components []byte
	if err := row.Scan(&t.ID, &t.OrganizationID, &t.Name, &t.Language, &t.Category, &t.Status, &components, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return t, err
	}
	if len(components) > 0 {
		if err := json.Unmarshal(components, &t.Components); err != nil {
			return t, fmt.Errorf("decode components: %w", err)
		}
	}
	return t, nil
}

func encodeComponents(cs []templates.Component) ([]byte, error) {
	if cs == nil {
		cs = []templates.Component{}
	}
	return json.Marshal(cs)
}

func (r *TemplateRepo) Create(ctx context.Context, t templates.Template) error {
	components, err := encodeComponents(t.Components)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO message_templates (`+templateColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		t.ID, t.OrganizationID, t.Name, t.Language, t.Category, t.Status, components, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert template: %w", err)
	}
	return nil
}

func (r *TemplateRepo) one(ctx context.Context, where string, args ...any) (templates.Template, error) {
	t, err := scanTemplate(r.db.QueryRow(ctx, `SELECT `+templateColumns+` FROM message_templates WHERE `+where, args...))
	if noRows(err) {
		return templates.Template{}, templates.ErrNotFound
	}
	if err != nil {
		return templates.Template{}, fmt.Errorf("get template: %w", err)
	}
	return t, nil
}

func (r *TemplateRepo) Get(ctx context.Context, organizationID, id string) (templates.Template, error) {
	return r.one(ctx, `organization_id = $1 AND id = $2`, organizationID, id)
}

func (r *TemplateRepo) FindByName(ctx context.Context, organizationID, name, language string) (templates.Template, error) {
	return r.one(ctx, `organization_id = $1 AND name = $2 AND language = $3`, organizationID, name, language)
}

func (r *TemplateRepo) List(ctx context.Context, organizationID string) ([]templates.Template, error) {
	rows, err := r.db.Query(ctx, `SELECT `+templateColumns+` FROM message_templates WHERE organization_id = $1 ORDER BY name, language`, organizationID)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	out := make([]templates.Template, 0)
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Upsert keeps the existing id and created_at when (organization, name, language) already exists.
func (r *TemplateRepo) Upsert(ctx context.Context, t templates.Template) (templates.Template, error) {
	components, err := encodeComponents(t.Components)
	if err != nil {
		return templates.Template{}, err
	}
	out, err := scanTemplate(r.db.QueryRow(ctx, `INSERT INTO message_templates (`+templateColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT ON CONSTRAINT message_templates_org_name_lang_key DO UPDATE SET
			category = EXCLUDED.category,
			status = EXCLUDED.status,
			components = EXCLUDED.components,
			updated_at = EXCLUDED.updated_at
		RETURNING `+templateColumns,
		t.ID, t.OrganizationID, t.Name, t.Language, t.Category, t.Status, components, t.CreatedAt, t.UpdatedAt))
	if err != nil {
		return templates.Template{}, fmt.Errorf("upsert template: %w", err)
	}
	return out, nil
}

func (r *TemplateRepo) IsReferenced(ctx context.Context, organizationID, templateID string) (bool, error) {
	var used bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (
		SELECT 1 FROM campaigns c JOIN delivery_logs d ON d.campaign_id = c.id
		WHERE c.organization_id = $1 AND c.template_id = $2)`, organizationID, templateID).Scan(&used)
	if err != nil {
		return false, fmt.Errorf("template references: %w", err)
	}
	return used, nil
}
