package webhook

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"sales-crm/internal/campaigns"
	"sales-crm/internal/contacts"
	"sales-crm/internal/events"
	"sales-crm/internal/leads"
	"sales-crm/internal/messaging"
	"sales-crm/internal/optout"
	"sales-crm/internal/orgs"
	"sales-crm/internal/senders"
	"sales-crm/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const org = "org-1"

type fixture struct {
	campaigns *campaigns.MemoryRepo
	contacts  *contacts.MemoryRepo
	leads     *leads.MemoryStore
	gateway   *messaging.MemoryGateway
	publisher *events.MemoryPublisher
	processor *Processor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	f := &fixture{
		campaigns: campaigns.NewMemoryRepo(),
		contacts:  contacts.NewMemoryRepo(),
		leads:     leads.NewMemoryStore(),
		gateway:   messaging.NewMemoryGateway(),
		publisher: &events.MemoryPublisher{},
	}
	orgRepo := orgs.NewMemoryRepo()
	orgRepo.Put(orgs.Organization{ID: org, DefaultLeadOwnerID: "u-admin"}, "u-admin")
	senderRepo := senders.NewMemoryRepo(senders.Identity{ID: "s1", OrganizationID: org, PhoneID: "pid-1", APIKey: "k"})

	require.NoError(t, f.contacts.AddContacts(ctx, []contacts.Contact{
		{ID: "c1", OrganizationID: org, ListID: "list-1", Name: "Ana Contact", Phone: "+15550001", Email: "ana@example.com", IsValid: true},
	}))
	require.NoError(t, f.campaigns.AppendLog(ctx, campaigns.DeliveryLog{
		ID: "d1", OrganizationID: org, CampaignID: "camp-1", ContactID: "c1",
		Status: campaigns.DeliverySent, ProviderMessageID: "wamid.A",
	}))

	f.processor = NewProcessor(Deps{
		Statuses:  f.campaigns,
		Senders:   senderRepo,
		Owners:    orgs.NewService(orgRepo, nil),
		Contacts:  f.contacts,
		OptOut:    optout.NewGuard(f.contacts, nil, f.gateway, f.publisher, optout.Confirmation{Name: "opt_out_confirmation", Language: "en_US"}),
		Leads:     leads.NewService(f.leads, leads.NewResolver(f.leads)),
		Dedupe:    NewMemoryDeduper(),
		Publisher: f.publisher,
	})
	return f
}

func (f *fixture) handle(t *testing.T, raw string) {
	t.Helper()
	evs, err := Decode([]byte(raw))
	require.NoError(t, err)
	f.processor.Handle(context.Background(), evs)
}

func TestProcessor_StatusIsIdempotent(t *testing.T) {
	f := newFixture(t)

	f.handle(t, statusPayload)
	first := f.campaigns.AllLogs()
	f.handle(t, statusPayload)
	second := f.campaigns.AllLogs()

	require.Len(t, second, 1)
	assert.Equal(t, campaigns.DeliveryFailed, second[0].Status)
	assert.Equal(t, "131026", second[0].ErrorCode)
	assert.Equal(t, "Message undeliverable", second[0].ErrorMessage)
	assert.Equal(t, first[0].Status, second[0].Status)
	assert.Equal(t, first[0].ErrorCode, second[0].ErrorCode)
	assert.Equal(t, first[0].ErrorMessage, second[0].ErrorMessage)
}

func TestProcessor_StatusForUnknownMessageIsNoop(t *testing.T) {
	f := newFixture(t)
	f.handle(t, `{"object":"x","entry":[{"changes":[{"value":{"statuses":[{"id":"wamid.unknown","status":"read"}]}}]}]}`)

	logs := f.campaigns.AllLogs()
	require.Len(t, logs, 1)
	assert.Equal(t, campaigns.DeliverySent, logs[0].Status)
}

func TestProcessor_InboundMessageCreatesEnrichedLead(t *testing.T) {
	f := newFixture(t)
	f.handle(t, textPayload)

	all, err := f.leads.List(context.Background(), org)
	require.NoError(t, err)
	require.Len(t, all, 1)
	l := all[0]
	assert.Equal(t, "Ana Contact", l.Name)
	assert.Equal(t, "ana@example.com", l.Email)
	assert.Equal(t, "15550001", l.Phone)
	assert.Equal(t, "u-admin", l.CreatedByID)
	assert.Equal(t, []string{"u-admin"}, l.HandlerIDs)

	hist, err := f.leads.Interactions(context.Background(), org, l.ID)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, leads.InteractionReply, hist[0].Type)
	assert.Equal(t, "WA: hello", hist[0].Notes)

	assert.Len(t, f.publisher.OfType(events.TypeLeadResolved), 1)
}

func TestProcessor_DuplicateDeliveryRecordedOnce(t *testing.T) {
	f := newFixture(t)
	f.handle(t, textPayload)
	f.handle(t, textPayload)

	all, _ := f.leads.List(context.Background(), org)
	require.Len(t, all, 1)
	hist, _ := f.leads.Interactions(context.Background(), org, all[0].ID)
	assert.Len(t, hist, 1)
}

func TestProcessor_UnknownLineDropped(t *testing.T) {
	f := newFixture(t)
	f.handle(t, `{"object":"x","entry":[{"changes":[{"value":{"metadata":{"phone_number_id":"pid-unknown"},
	  "messages":[{"from":"15550009","id":"wamid.X","type":"text","text":{"body":"hi"}}]}}]}]}`)

	all, _ := f.leads.List(context.Background(), org)
	assert.Empty(t, all)
}

func TestProcessor_OptOutInvalidatesAndStillRecordsLead(t *testing.T) {
	f := newFixture(t)
	f.handle(t, `{"object":"x","entry":[{"changes":[{"value":{"metadata":{"phone_number_id":"pid-1"},
	  "contacts":[{"profile":{"name":"Ana"}}],
	  "messages":[{"from":"15550001","id":"wamid.STOP","type":"text","text":{"body":" stop "}}]}}]}]}`)

	cs := f.contacts.All()
	require.Len(t, cs, 1)
	assert.False(t, cs[0].IsValid)
	assert.Contains(t, cs[0].DuplicateInfo, "User Opt-out at ")

	sent := f.gateway.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "opt_out_confirmation", sent[0].Message.Name)
	assert.Equal(t, "pid-1", sent[0].Credentials.PhoneID)

	all, _ := f.leads.List(context.Background(), org)
	require.Len(t, all, 1)
	hist, _ := f.leads.Interactions(context.Background(), org, all[0].ID)
	require.Len(t, hist, 1)
	assert.Equal(t, "WA:  stop ", hist[0].Notes)
	assert.Len(t, f.publisher.OfType(events.TypeContactOptedOut), 1)
}

func TestProcessor_MissingDefaultOwnerWarns(t *testing.T) {
	f := newFixture(t)
	orgRepo := orgs.NewMemoryRepo()
	orgRepo.Put(orgs.Organization{ID: org}, "u-admin")
	f.processor.owners = orgs.NewService(orgRepo, nil)

	var buf bytes.Buffer
	ctx := logger.With(context.Background(), slog.New(slog.NewJSONHandler(&buf, nil)))
	evs, err := Decode([]byte(textPayload))
	require.NoError(t, err)
	f.processor.Handle(ctx, evs)

	all, err := f.leads.List(context.Background(), org)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Empty(t, all[0].HandlerIDs)
	assert.Equal(t, 1, strings.Count(buf.String(), "no default lead owner"))
}
