package httpapi

import (
	"net/http"

	"sales-crm/internal/campaigns"

	"github.com/gin-gonic/gin"
)

// ListCampaigns returns every campaign of the organization with delivery stats, newest first.
func (h Handlers) ListCampaigns(c *gin.Context) {
	sc, ok := identity(c)
	if !ok {
		return
	}
	out, err := h.Reporting.CampaignOverview(c.Request.Context(), sc.organizationID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h Handlers) CreateCampaign(c *gin.Context) {
	sc, ok := identity(c)
	if !ok {
		return
	}
	var req campaigns.CreateRequest
	if !bind(c, &req) {
		return
	}
	out, err := h.Campaigns.Create(c.Request.Context(), sc.organizationID, sc.actor.UserID, req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

// SendCampaign runs the send loop and answers with its summary.
// The loop keeps running if the client disconnects.
func (h Handlers) SendCampaign(c *gin.Context) {
	sc, ok := identity(c)
	if !ok {
		return
	}
	summary, err := h.Dispatcher.Send(c.Request.Context(), sc.organizationID, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// RecoverCampaign copies failed recipients into a new contact list.
func (h Handlers) RecoverCampaign(c *gin.Context) {
	sc, ok := identity(c)
	if !ok {
		return
	}
	out, err := h.Campaigns.RecoverFailed(c.Request.Context(), sc.organizationID, c.Param("id"), sc.actor)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

// DeleteCampaign removes the campaign and its delivery logs.
// RBAC: org_admin or super_admin.
func (h Handlers) DeleteCampaign(c *gin.Context) {
	sc, ok := identity(c)
	if !ok {
		return
	}
	if err := h.Campaigns.Delete(c.Request.Context(), sc.organizationID, c.Param("id"), sc.actor); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
