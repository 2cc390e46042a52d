package senders

import (
	"context"
	"testing"

	"sales-crm/internal/audit"
	"sales-crm/internal/messaging"
	"sales-crm/internal/templates"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, *MemoryRepo, *messaging.MemoryGateway, *templates.MemoryRepo, *audit.MemoryRepo) {
	t.Helper()
	repo := NewMemoryRepo()
	gw := messaging.NewMemoryGateway()
	tplRepo := templates.NewMemoryRepo()
	auditRepo := audit.NewMemoryRepo()
	svc := NewService(repo, gw, templates.NewService(tplRepo), audit.NewService(auditRepo))
	return svc, repo, gw, tplRepo, auditRepo
}

func TestService_CreateValidates(t *testing.T) {
	svc, _, _, _, _ := newTestService(t)

	_, err := svc.Create(context.Background(), "org-1", CreateRequest{PhoneNumber: "+1555"})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	id, err := svc.Create(context.Background(), "org-1", CreateRequest{Name: "Main", PhoneNumber: "+1555", PhoneID: "pid", APIKey: "key"})
	require.NoError(t, err)
	assert.NotEmpty(t, id.ID)
	assert.Equal(t, "key", id.Credentials().AccessToken)
}

func TestService_SyncTemplatesUsesSenderAccount(t *testing.T) {
	svc, _, gw, tplRepo, _ := newTestService(t)
	gw.Templates = []templates.Template{{Name: "promo", Language: "en_US", Status: "APPROVED"}}

	id, err := svc.Create(context.Background(), "org-1", CreateRequest{PhoneNumber: "+1555", PhoneID: "pid", BusinessAccountID: "waba", APIKey: "key"})
	require.NoError(t, err)

	res, err := svc.SyncTemplates(context.Background(), "org-1", id.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Upserted)

	stored, err := tplRepo.List(context.Background(), "org-1")
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestService_DeleteAudits(t *testing.T) {
	svc, repo, _, _, auditRepo := newTestService(t)
	id, err := svc.Create(context.Background(), "org-1", CreateRequest{PhoneNumber: "+1555", PhoneID: "pid", APIKey: "key"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), "org-1", id.ID, audit.Actor{UserID: "u1", Role: "org_admin"}))

	_, err = repo.Get(context.Background(), "org-1", id.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	evs := auditRepo.Events()
	require.Len(t, evs, 1)
	assert.Equal(t, audit.EventTypeSenderDeleted, evs[0].Type)
	assert.Equal(t, id.ID, evs[0].SenderID)
}

func TestService_DeleteOtherOrganizationNotFound(t *testing.T) {
	svc, _, _, _, _ := newTestService(t)
	id, err := svc.Create(context.Background(), "org-1", CreateRequest{PhoneNumber: "+1555", PhoneID: "pid", APIKey: "key"})
	require.NoError(t, err)

	err = svc.Delete(context.Background(), "org-2", id.ID, audit.Actor{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_TestConnection(t *testing.T) {
	svc, _, _, _, _ := newTestService(t)
	id, err := svc.Create(context.Background(), "org-1", CreateRequest{PhoneNumber: "+1555", PhoneID: "pid", APIKey: "key"})
	require.NoError(t, err)

	info, err := svc.TestConnection(context.Background(), "org-1", id.ID)
	require.NoError(t, err)
	assert.Equal(t, "pid", info.ID)
}
