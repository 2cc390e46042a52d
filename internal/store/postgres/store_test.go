package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"sales-crm/internal/campaigns"
	"sales-crm/internal/leads"
	"sales-crm/internal/orgs"
	"sales-crm/internal/senders"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func TestCampaignRepo_TransitionStatus(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	from := []campaigns.Status{campaigns.StatusDraft, campaigns.StatusFailed}

	t.Run("applied", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectExec(`UPDATE campaigns SET status`).
			WithArgs("org-1", "camp-1", "SENDING", []string{"DRAFT", "FAILED"}, at).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		ok, err := NewCampaignRepo(mock).TransitionStatus(ctx, "org-1", "camp-1", from, campaigns.StatusSending, at)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("guard did not match", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectExec(`UPDATE campaigns SET status`).
			WithArgs("org-1", "camp-1", "SENDING", []string{"DRAFT", "FAILED"}, at).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))
		mock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM campaigns`).
			WithArgs("org-1", "camp-1").
			WillReturnRows(mock.NewRows([]string{"exists"}).AddRow(true))

		ok, err := NewCampaignRepo(mock).TransitionStatus(ctx, "org-1", "camp-1", from, campaigns.StatusSending, at)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing campaign", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectExec(`UPDATE campaigns SET status`).
			WithArgs("org-1", "nope", "SENDING", []string{"DRAFT", "FAILED"}, at).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))
		mock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM campaigns`).
			WithArgs("org-1", "nope").
			WillReturnRows(mock.NewRows([]string{"exists"}).AddRow(false))

		_, err := NewCampaignRepo(mock).TransitionStatus(ctx, "org-1", "nope", from, campaigns.StatusSending, at)
		assert.ErrorIs(t, err, campaigns.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCampaignRepo_ApplyDeliveryStatus(t *testing.T) {
	ctx := context.Background()
	at := time.Now().UTC()

	mock := newMock(t)
	mock.ExpectExec(`UPDATE delivery_logs SET status`).
		WithArgs("wamid.A", "DELIVERED", false, "", "", at).
		WillReturnResult(pgxmock.NewResult("UPDATE", 2))

	n, err := NewCampaignRepo(mock).ApplyDeliveryStatus(ctx, campaigns.StatusUpdate{ProviderMessageID: "wamid.A", Status: "delivered"}, at)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	assert.NoError(t, mock.ExpectationsWereMet())

	// no provider id never touches the database
	n, err = NewCampaignRepo(mock).ApplyDeliveryStatus(ctx, campaigns.StatusUpdate{Status: "read"}, at)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCampaignRepo_DeleteRollsBackWhenMissing(t *testing.T) {
	mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM delivery_logs`).WithArgs("org-1", "camp-x").WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec(`DELETE FROM campaigns`).WithArgs("org-1", "camp-x").WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectRollback()

	err := NewCampaignRepo(mock).Delete(context.Background(), "org-1", "camp-x")
	assert.ErrorIs(t, err, campaigns.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCampaignRepo_StatusCounts(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`SELECT status, count\(\*\) FROM delivery_logs`).
		WithArgs("org-1", "camp-1").
		WillReturnRows(mock.NewRows([]string{"status", "count"}).AddRow("SENT", 3).AddRow("FAILED", 1))

	counts, err := NewCampaignRepo(mock).StatusCounts(context.Background(), "org-1", "camp-1")
	require.NoError(t, err)
	assert.Equal(t, map[campaigns.DeliveryStatus]int{campaigns.DeliverySent: 3, campaigns.DeliveryFailed: 1}, counts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeadStore_InsertMapsUniqueViolations(t *testing.T) {
	cases := []struct {
		constraint string
		want       error
	}{
		{leadsOrgPhoneKey, leads.ErrPhoneTaken},
		{leadsEmailKey, leads.ErrEmailTaken},
	}
	for _, tc := range cases {
		t.Run(tc.constraint, func(t *testing.T) {
			mock := newMock(t)
			mock.ExpectExec(`INSERT INTO leads`).
				WillReturnError(&pgconn.PgError{Code: uniqueViolation, ConstraintName: tc.constraint})

			err := NewLeadStore(mock).Insert(context.Background(), leads.Lead{ID: "l1", OrganizationID: "org-1", Email: "A@x.io"})
			assert.ErrorIs(t, err, tc.want)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}

	t.Run("other errors pass through", func(t *testing.T) {
		mock := newMock(t)
		boom := errors.New("connection reset")
		mock.ExpectExec(`INSERT INTO leads`).WillReturnError(boom)

		err := NewLeadStore(mock).Insert(context.Background(), leads.Lead{ID: "l1"})
		assert.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, leads.ErrPhoneTaken)
	})
}

func TestLeadStore_FindByPhoneStripsPlus(t *testing.T) {
	mock := newMock(t)
	now := time.Now().UTC()
	mock.ExpectQuery(`FROM leads l WHERE l.organization_id = \$1 AND ltrim\(l.phone, '\+'\) = \$2`).
		WithArgs("org-1", "15550001").
		WillReturnRows(mock.NewRows([]string{"id", "organization_id", "name", "email", "phone", "status", "source",
			"created_by_id", "created_at", "updated_at", "handlers"}).
			AddRow("l1", "org-1", "Ana", "ana@example.com", "+15550001", "CONTACTED", "WhatsApp", "u1", now, now, []string{"u1"}))

	l, err := NewLeadStore(mock).FindByPhone(context.Background(), "org-1", "+15550001")
	require.NoError(t, err)
	assert.Equal(t, "l1", l.ID)
	assert.Equal(t, leads.StatusContacted, l.Status)
	assert.Equal(t, []string{"u1"}, l.HandlerIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeadStore_GetNotFound(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`FROM leads l WHERE`).WithArgs("org-1", "missing").WillReturnError(pgx.ErrNoRows)

	_, err := NewLeadStore(mock).Get(context.Background(), "org-1", "missing")
	assert.ErrorIs(t, err, leads.ErrNotFound)
}

func TestContactRepo_InvalidateByPhone(t *testing.T) {
	mock := newMock(t)
	mock.ExpectExec(`UPDATE contacts SET is_valid = false`).
		WithArgs("org-1", "15550001", "User Opt-out at 2025-01-01T00:00:00Z").
		WillReturnResult(pgxmock.NewResult("UPDATE", 3))

	n, err := NewContactRepo(mock).InvalidateByPhone(context.Background(), "org-1", "+15550001", "User Opt-out at 2025-01-01T00:00:00Z")
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSenderRepo_DeletePurgesInOneTransaction(t *testing.T) {
	mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM campaign_senders`).WithArgs("s1").WillReturnResult(pgxmock.NewResult("DELETE", 2))
	mock.ExpectExec(`DELETE FROM delivery_logs`).WithArgs("org-1", "s1").WillReturnResult(pgxmock.NewResult("DELETE", 10))
	mock.ExpectExec(`DELETE FROM sender_identities`).WithArgs("org-1", "s1").WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectCommit()

	require.NoError(t, NewSenderRepo(mock).Delete(context.Background(), "org-1", "s1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSenderRepo_FindByPhoneIDNotFound(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`FROM sender_identities WHERE phone_id = \$1`).WithArgs("pid-x").WillReturnError(pgx.ErrNoRows)

	_, err := NewSenderRepo(mock).FindByPhoneID(context.Background(), "pid-x")
	assert.ErrorIs(t, err, senders.ErrNotFound)
}

func TestOrgRepo_IsMember(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`SELECT`).WithArgs("org-1", "u1").
		WillReturnRows(mock.NewRows([]string{"org", "member"}).AddRow(true, true))
	mock.ExpectQuery(`SELECT`).WithArgs("org-x", "u1").
		WillReturnRows(mock.NewRows([]string{"org", "member"}).AddRow(false, false))

	repo := NewOrgRepo(mock)
	ok, err := repo.IsMember(context.Background(), "org-1", "u1")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = repo.IsMember(context.Background(), "org-x", "u1")
	assert.ErrorIs(t, err, orgs.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestViolated(t *testing.T) {
	err := &pgconn.PgError{Code: uniqueViolation, ConstraintName: leadsEmailKey}
	assert.True(t, violated(err, leadsEmailKey))
	assert.False(t, violated(err, leadsOrgPhoneKey))
	assert.False(t, violated(errors.New("x"), leadsEmailKey))
}
