package httpapi

import (
	"net/http"

	"sales-crm/internal/senders"
	"sales-crm/internal/templates"

	"github.com/gin-gonic/gin"
)

// --- Senders ---

func (h Handlers) ListSenders(c *gin.Context) {
	sc, ok := identity(c)
	if !ok {
		return
	}
	out, err := h.Senders.List(c.Request.Context(), sc.organizationID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h Handlers) CreateSender(c *gin.Context) {
	sc, ok := identity(c)
	if !ok {
		return
	}
	var req senders.CreateRequest
	if !bind(c, &req) {
		return
	}
	out, err := h.Senders.Create(c.Request.Context(), sc.organizationID, req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

// TestSender asks the provider for the line's metadata.
func (h Handlers) TestSender(c *gin.Context) {
	sc, ok := identity(c)
	if !ok {
		return
	}
	info, err := h.Senders.TestConnection(c.Request.Context(), sc.organizationID, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

func (h Handlers) SyncSenderTemplates(c *gin.Context) {
	sc, ok := identity(c)
	if !ok {
		return
	}
	res, err := h.Senders.SyncTemplates(c.Request.Context(), sc.organizationID, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h Handlers) DeleteSender(c *gin.Context) {
	sc, ok := identity(c)
	if !ok {
		return
	}
	if err := h.Senders.Delete(c.Request.Context(), sc.organizationID, c.Param("id"), sc.actor); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Templates ---

// ListTemplates lists the organization's templates; ?approved=true keeps only sendable ones.
func (h Handlers) ListTemplates(c *gin.Context) {
	sc, ok := identity(c)
	if !ok {
		return
	}
	list := h.Templates.List
	if c.Query("approved") == "true" {
		list = h.Templates.ListApproved
	}
	out, err := list(c.Request.Context(), sc.organizationID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

type createTemplateRequest struct {
	Name       string                `json:"name"`
	Language   string                `json:"language"`
	Category   string                `json:"category"`
	Components []templates.Component `json:"components"`
}

func (h Handlers) CreateTemplate(c *gin.Context) {
	sc, ok := identity(c)
	if !ok {
		return
	}
	var req createTemplateRequest
	if !bind(c, &req) {
		return
	}
	out, err := h.Templates.Create(c.Request.Context(), templates.Template{
		OrganizationID: sc.organizationID,
		Name:           req.Name,
		Language:       req.Language,
		Category:       req.Category,
		Components:     req.Components,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}
