package main

import (
	"net/http"

	"sales-crm/internal/httpapi"
	"sales-crm/internal/metrics"
	"sales-crm/internal/rbac"
	"sales-crm/internal/webhook"

	"github.com/gin-gonic/gin"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, authMW gin.HandlerFunc, h httpapi.Handlers, wh *webhook.Handler) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", metrics.Handler())

	// Provider webhooks (public). Authenticated by verify token and payload signature.
	wh.Register(r)

	// protected API group
	v1 := r.Group("/v1")
	v1.Use(authMW, rbac.RequireOrganization())
	{
		admin := rbac.RequireAdmin()

		senders := v1.Group("/senders")
		{
			senders.GET("", h.ListSenders)
			senders.POST("", admin, h.CreateSender)
			senders.POST("/:id/test", admin, h.TestSender)
			senders.POST("/:id/sync", admin, h.SyncSenderTemplates)
			senders.DELETE("/:id", admin, h.DeleteSender)
		}

		templates := v1.Group("/templates")
		{
			templates.GET("", h.ListTemplates)
			templates.POST("", admin, h.CreateTemplate)
		}

		lists := v1.Group("/contact-lists")
		{
			lists.GET("", h.ListContactLists)
			lists.POST("", h.ImportContactList)
		}

		campaigns := v1.Group("/campaigns")
		{
			campaigns.GET("", h.ListCampaigns)
			campaigns.POST("", h.CreateCampaign)
			campaigns.POST("/:id/send", h.SendCampaign)
			campaigns.POST("/:id/recovery", h.RecoverCampaign)
			campaigns.DELETE("/:id", admin, h.DeleteCampaign)
		}

		leads := v1.Group("/leads")
		{
			leads.GET("", h.ListLeads)
			leads.GET("/:id/interactions", h.LeadInteractions)
			leads.POST("/:id/interactions", h.LogInteraction)
		}

		v1.PUT("/organization/default-lead-owner", admin, h.SetDefaultLeadOwner)
	}
}
