package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"sales-crm/internal/audit"
	"sales-crm/internal/auth"
	"sales-crm/internal/campaigns"
	"sales-crm/internal/contacts"
	"sales-crm/internal/leads"
	"sales-crm/internal/messaging"
	"sales-crm/internal/orgs"
	"sales-crm/internal/reporting"
	"sales-crm/internal/senders"
	"sales-crm/internal/templates"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const org = "org-1"

type env struct {
	router    *gin.Engine
	campaigns *campaigns.MemoryRepo
	audit     *audit.MemoryRepo
	gateway   *messaging.MemoryGateway
	templates *templates.MemoryRepo
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	e := &env{
		campaigns: campaigns.NewMemoryRepo(),
		audit:     audit.NewMemoryRepo(),
		gateway:   messaging.NewMemoryGateway(),
		templates: templates.NewMemoryRepo(),
	}
	auditSvc := audit.NewService(e.audit)
	contactRepo := contacts.NewMemoryRepo()
	contactSvc := contacts.NewService(contactRepo)
	templateRepo := e.templates
	templateSvc := templates.NewService(templateRepo)
	senderRepo := senders.NewMemoryRepo()
	orgRepo := orgs.NewMemoryRepo()
	orgRepo.Put(orgs.Organization{ID: org, Name: "Acme"}, "u-admin", "u-rep")
	leadStore := leads.NewMemoryStore()

	h := Handlers{
		Campaigns:  campaigns.NewService(e.campaigns, contactRepo, contactSvc, templateRepo, senderRepo, auditSvc),
		Dispatcher: campaigns.NewDispatcher(e.campaigns, contactRepo, templateRepo, senderRepo, e.gateway, templates.NewResolver("")),
		Reporting:  reporting.NewService(reporting.NewMemoryRepo(e.campaigns, contactRepo)),
		Senders:    senders.NewService(senderRepo, e.gateway, templateSvc, auditSvc),
		Templates:  templateSvc,
		Contacts:   contactSvc,
		Leads:      leads.NewService(leadStore, leads.NewResolver(leadStore)),
		Orgs:       orgs.NewService(orgRepo, auditSvc),
	}

	r := gin.New()
	v1 := r.Group("/v1", func(c *gin.Context) {
		ctx := auth.WithIdentity(c.Request.Context(), "u-admin", org, "org_admin")
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	})
	v1.GET("/campaigns", h.ListCampaigns)
	v1.POST("/campaigns", h.CreateCampaign)
	v1.POST("/campaigns/:id/send", h.SendCampaign)
	v1.POST("/campaigns/:id/recovery", h.RecoverCampaign)
	v1.DELETE("/campaigns/:id", h.DeleteCampaign)
	v1.POST("/senders", h.CreateSender)
	v1.POST("/senders/:id/test", h.TestSender)
	v1.GET("/templates", h.ListTemplates)
	v1.POST("/templates", h.CreateTemplate)
	v1.POST("/contact-lists", h.ImportContactList)
	v1.GET("/leads", h.ListLeads)
	v1.POST("/leads/:id/interactions", h.LogInteraction)
	v1.PUT("/organization/default-lead-owner", h.SetDefaultLeadOwner)
	e.router = r
	return e
}

func (e *env) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

// seed creates a sender, a template and a two-recipient list, then a campaign using them.
func (e *env) seed(t *testing.T, withTemplate bool) campaigns.Campaign {
	t.Helper()
	w := e.do(t, http.MethodPost, "/v1/senders", senders.CreateRequest{Name: "Main", PhoneNumber: "+15550100", PhoneID: "pid-1", APIKey: "k"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	sender := decode[senders.Identity](t, w)

	w = e.do(t, http.MethodPost, "/v1/contact-lists", gin.H{"name": "Spring", "contacts": []gin.H{
		{"name": "Ana", "phone": "+15550001", "is_valid": true},
		{"name": "Ben", "phone": "+15550002", "is_valid": true},
		{"name": "Dup", "phone": "+15550003", "is_valid": false},
	}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	list := decode[contacts.List](t, w)

	req := campaigns.CreateRequest{Name: "Spring promo", ListID: list.ID, SenderIDs: []string{sender.ID}}
	if withTemplate {
		w = e.do(t, http.MethodPost, "/v1/templates", gin.H{"name": "promo", "language": "en_US",
			"components": []gin.H{{"type": "BODY", "text": "Hi {{1}}"}}})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		req.TemplateID = decode[templates.Template](t, w).ID
	}
	w = e.do(t, http.MethodPost, "/v1/campaigns", req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[campaigns.Campaign](t, w)
}

func TestSendCampaign_EndToEnd(t *testing.T) {
	e := newEnv(t)
	c := e.seed(t, true)
	e.gateway.FailFor["+15550002"] = &messaging.APIError{Code: 131026, Message: "Message undeliverable"}

	w := e.do(t, http.MethodPost, "/v1/campaigns/"+c.ID+"/send", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	sum := decode[campaigns.SendSummary](t, w)
	assert.Equal(t, campaigns.StatusCompleted, sum.Status)
	assert.Equal(t, 1, sum.Sent)
	assert.Equal(t, 1, sum.Failed)

	w = e.do(t, http.MethodGet, "/v1/campaigns", nil)
	require.Equal(t, http.StatusOK, w.Code)
	reports := decode[[]reporting.CampaignReport](t, w)
	require.Len(t, reports, 1)
	assert.Equal(t, 1, reports[0].Stats.Sent)
	assert.Equal(t, 1, reports[0].Stats.Failed)
	assert.Equal(t, []string{"Message undeliverable"}, reports[0].ErrorList)
	assert.Equal(t, 2, reports[0].TotalRecipients)

	// a completed campaign cannot be sent again
	w = e.do(t, http.MethodPost, "/v1/campaigns/"+c.ID+"/send", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = e.do(t, http.MethodPost, "/v1/campaigns/"+c.ID+"/recovery", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, 1, decode[campaigns.Recovery](t, w).Recipients)
}

func TestSendCampaign_PreconditionLeavesDraft(t *testing.T) {
	e := newEnv(t)
	c := e.seed(t, false)

	w := e.do(t, http.MethodPost, "/v1/campaigns/"+c.ID+"/send", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	got, err := e.campaigns.Get(context.Background(), org, c.ID)
	require.NoError(t, err)
	assert.Equal(t, campaigns.StatusDraft, got.Status)
	assert.Empty(t, e.gateway.Sent())
}

func TestListTemplates_ApprovedFilter(t *testing.T) {
	e := newEnv(t)
	w := e.do(t, http.MethodPost, "/v1/templates", gin.H{"name": "promo", "components": []gin.H{{"type": "BODY", "text": "Hi"}}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.NoError(t, e.templates.Create(context.Background(), templates.Template{
		ID: "tpl-pending", OrganizationID: org, Name: "draft_offer", Language: "en_US", Status: "PENDING",
	}))

	w = e.do(t, http.MethodGet, "/v1/templates", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]templates.Template](t, w), 2)

	w = e.do(t, http.MethodGet, "/v1/templates?approved=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	approved := decode[[]templates.Template](t, w)
	require.Len(t, approved, 1)
	assert.Equal(t, "promo", approved[0].Name)
}

func TestDeleteCampaign(t *testing.T) {
	e := newEnv(t)
	c := e.seed(t, true)

	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodDelete, "/v1/campaigns/nope", nil).Code)
	assert.Equal(t, http.StatusNoContent, e.do(t, http.MethodDelete, "/v1/campaigns/"+c.ID, nil).Code)

	evs := e.audit.Events()
	require.NotEmpty(t, evs)
	assert.Equal(t, audit.EventTypeCampaignDeleted, evs[len(evs)-1].Type)
	assert.Equal(t, "u-admin", evs[len(evs)-1].ActorUserID)
}

func TestSetDefaultLeadOwner(t *testing.T) {
	e := newEnv(t)

	w := e.do(t, http.MethodPut, "/v1/organization/default-lead-owner", gin.H{"user_id": "u-rep"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "u-rep", decode[orgs.Organization](t, w).DefaultLeadOwnerID)

	w = e.do(t, http.MethodPut, "/v1/organization/default-lead-owner", gin.H{"user_id": "stranger"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogInteraction_UnknownLead(t *testing.T) {
	e := newEnv(t)
	w := e.do(t, http.MethodPost, "/v1/leads/missing/interactions", gin.H{"type": "CALL", "notes": "left voicemail"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestInvalidJSON(t *testing.T) {
	e := newEnv(t)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/campaigns", bytes.NewBufferString("{")))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{campaigns.ErrNoTemplate, http.StatusBadRequest},
		{campaigns.ErrNoRecipients, http.StatusBadRequest},
		{campaigns.ErrAlreadySending, http.StatusConflict},
		{campaigns.ErrSendCapacity, http.StatusTooManyRequests},
		{fmt.Errorf("lookup: %w", senders.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: unknown sender identity", campaigns.ErrInvalidArgument), http.StatusBadRequest},
		{&messaging.APIError{Code: 190, Message: "token expired"}, http.StatusBadGateway},
		{errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, statusFor(tc.err), tc.err.Error())
	}
}
