package rbac

import (
	"net/http"

	"sales-crm/internal/auth"

	"github.com/gin-gonic/gin"
)

// RequireOrganization enforces tenant scoping: every /v1 call acts within one organization.
func RequireOrganization() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := auth.OrganizationID(c.Request.Context()); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "organization_id required"})
			return
		}
		c.Next()
	}
}

// RequireAnyRole allows the caller through if their role is listed.
// super_admin always passes.
func RequireAnyRole(allowed ...string) gin.HandlerFunc {
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, r := range allowed {
		allowedSet[r] = struct{}{}
	}

	return func(c *gin.Context) {
		role, err := auth.Role(c.Request.Context())
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "role required"})
			return
		}
		if IsSuperAdmin(role) {
			c.Next()
			return
		}
		if _, ok := allowedSet[role]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

// RequireAdmin is RequireAnyRole(RoleOrgAdmin).
func RequireAdmin() gin.HandlerFunc { return RequireAnyRole(RoleOrgAdmin) }
