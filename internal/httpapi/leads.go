package httpapi

import (
	"net/http"

	"sales-crm/internal/contacts"
	"sales-crm/internal/leads"

	"github.com/gin-gonic/gin"
)

// --- Leads ---

func (h Handlers) ListLeads(c *gin.Context) {
	sc, ok := identity(c)
	if !ok {
		return
	}
	out, err := h.Leads.List(c.Request.Context(), sc.organizationID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h Handlers) LeadInteractions(c *gin.Context) {
	sc, ok := identity(c)
	if !ok {
		return
	}
	out, err := h.Leads.Interactions(c.Request.Context(), sc.organizationID, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

type interactionRequest struct {
	Type  leads.InteractionType `json:"type"`
	Notes string                `json:"notes"`
}

// LogInteraction appends a manual entry (call, meeting, note) to a lead's history.
func (h Handlers) LogInteraction(c *gin.Context) {
	sc, ok := identity(c)
	if !ok {
		return
	}
	var req interactionRequest
	if !bind(c, &req) {
		return
	}
	out, err := h.Leads.LogInteraction(c.Request.Context(), sc.organizationID, c.Param("id"), sc.actor.UserID, req.Type, req.Notes)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

// --- Contact lists ---

func (h Handlers) ListContactLists(c *gin.Context) {
	sc, ok := identity(c)
	if !ok {
		return
	}
	out, err := h.Contacts.Lists(c.Request.Context(), sc.organizationID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

type importListRequest struct {
	Name     string             `json:"name"`
	Contacts []contacts.Contact `json:"contacts"`
}

// ImportContactList stores contacts already scrubbed upstream, keeping their validity flags.
func (h Handlers) ImportContactList(c *gin.Context) {
	sc, ok := identity(c)
	if !ok {
		return
	}
	var req importListRequest
	if !bind(c, &req) {
		return
	}
	out, err := h.Contacts.ImportList(c.Request.Context(), sc.organizationID, req.Name, req.Contacts)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}
