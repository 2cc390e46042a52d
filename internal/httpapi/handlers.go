package httpapi

import (
	"errors"
	"net/http"

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
	"sales-crm/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Campaigns  *campaigns.Service
	Dispatcher *campaigns.Dispatcher
	Reporting  *reporting.Service
	Senders    *senders.Service
	Templates  *templates.Service
	Contacts   *contacts.Service
	Leads      *leads.Service
	Orgs       *orgs.Service
}

// scope is the caller identity every /v1 handler acts under.
type scope struct {
	organizationID string
	actor          audit.Actor
}

// identity reads the organization and actor set by auth.RequireAccessToken.
// It aborts with 401 when the organization is missing.
func identity(c *gin.Context) (scope, bool) {
	ctx := c.Request.Context()
	orgID, err := auth.OrganizationID(ctx)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "organization_id required"})
		return scope{}, false
	}
	userID, _ := auth.UserID(ctx)
	role, _ := auth.Role(ctx)
	return scope{organizationID: orgID, actor: audit.Actor{UserID: userID, Role: role}}, true
}

func bind(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return false
	}
	return true
}

// fail maps service errors onto HTTP statuses. Unexpected errors are logged and hidden.
func fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.FromGin(c).Error("request failed", "err", err)
		c.AbortWithStatusJSON(status, gin.H{"error": "internal error"})
		return
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	var apiErr *messaging.APIError
	switch {
	case errors.Is(err, campaigns.ErrPrecondition),
		errors.Is(err, campaigns.ErrNoFailedRecipients),
		errors.Is(err, messaging.ErrMissingCredentials),
		errors.Is(err, orgs.ErrNotMember),
		isInvalid(err):
		return http.StatusBadRequest
	case errors.Is(err, campaigns.ErrAlreadySending), errors.Is(err, campaigns.ErrNotSendable):
		return http.StatusConflict
	case errors.Is(err, campaigns.ErrSendCapacity):
		return http.StatusTooManyRequests
	case isNotFound(err):
		return http.StatusNotFound
	case errors.As(err, &apiErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func isNotFound(err error) bool {
	for _, target := range []error{
		campaigns.ErrNotFound, senders.ErrNotFound, templates.ErrNotFound,
		contacts.ErrNotFound, leads.ErrNotFound, orgs.ErrNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func isInvalid(err error) bool {
	for _, target := range []error{
		campaigns.ErrInvalidArgument, senders.ErrInvalidArgument, templates.ErrInvalidArgument,
		contacts.ErrInvalidArgument, leads.ErrInvalidArgument, orgs.ErrInvalidArgument,
		reporting.ErrInvalidRequest,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// --- Organization ---

type defaultOwnerRequest struct {
	UserID string `json:"user_id"`
}

// SetDefaultLeadOwner chooses who receives leads created from inbound WhatsApp traffic.
// RBAC: org_admin or super_admin.
func (h Handlers) SetDefaultLeadOwner(c *gin.Context) {
	sc, ok := identity(c)
	if !ok {
		return
	}
	var req defaultOwnerRequest
	if !bind(c, &req) {
		return
	}
	o, err := h.Orgs.SetDefaultLeadOwner(c.Request.Context(), sc.organizationID, req.UserID, sc.actor)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}
