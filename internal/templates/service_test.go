package templates

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_SyncUpsertsByNameAndLanguage(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	_, err := svc.Sync(ctx, "org-1", []Template{
		{Name: "promo", Language: "en_US", Status: "APPROVED", Components: []Component{{Type: "BODY", Text: "v1"}}},
	})
	require.NoError(t, err)

	res, err := svc.Sync(ctx, "org-1", []Template{
		{Name: "promo", Language: "en_US", Status: "APPROVED", Components: []Component{{Type: "BODY", Text: "v2"}}},
		{Name: "promo", Language: "ar", Status: "PENDING"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Upserted)

	all, err := svc.List(ctx, "org-1")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	en, err := repo.FindByName(ctx, "org-1", "promo", "en_US")
	require.NoError(t, err)
	assert.Equal(t, "v2", en.Components[0].Text)

	approved, err := svc.ListApproved(ctx, "org-1")
	require.NoError(t, err)
	assert.Len(t, approved, 1)
}

func TestService_SyncKeepsReferencedTemplates(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, Template{OrganizationID: "org-1", Name: "promo", Components: []Component{{Type: "BODY", Text: "sent"}}})
	require.NoError(t, err)
	repo.Referenced[created.ID] = true

	res, err := svc.Sync(ctx, "org-1", []Template{{Name: "promo", Language: "en_US", Components: []Component{{Type: "BODY", Text: "changed"}}}})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Frozen)
	assert.Equal(t, 0, res.Upserted)

	got, err := svc.Get(ctx, "org-1", created.ID)
	require.NoError(t, err)
	assert.Equal(t, "sent", got.Components[0].Text)
}

func TestService_GetIsOrganizationScoped(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	created, err := svc.Create(context.Background(), Template{OrganizationID: "org-1", Name: "promo"})
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), "org-2", created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
