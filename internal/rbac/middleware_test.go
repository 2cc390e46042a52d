package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"sales-crm/internal/auth"

	"github.com/gin-gonic/gin"
)

func serve(t *testing.T, org, role string, chain ...gin.HandlerFunc) int {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	handlers := []gin.HandlerFunc{func(c *gin.Context) {
		ctx := auth.WithIdentity(c.Request.Context(), "u", org, role)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}}
	handlers = append(handlers, chain...)
	handlers = append(handlers, func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/x", handlers...)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	return w.Code
}

func TestRequireAnyRole_SuperAdminBypasses(t *testing.T) {
	if code := serve(t, "org-1", RoleSuperAdmin, RequireOrganization(), RequireAdmin()); code != 200 {
		t.Fatalf("expected 200, got %d", code)
	}
}

func TestRequireAdmin_EmployeeForbidden(t *testing.T) {
	if code := serve(t, "org-1", RoleEmployee, RequireOrganization(), RequireAdmin()); code != 403 {
		t.Fatalf("expected 403, got %d", code)
	}
}

func TestRequireAnyRole_EmployeeAllowedWhenListed(t *testing.T) {
	if code := serve(t, "org-1", RoleEmployee, RequireOrganization(), RequireAnyRole(RoleOrgAdmin, RoleEmployee)); code != 200 {
		t.Fatalf("expected 200, got %d", code)
	}
}

func TestRequireOrganization(t *testing.T) {
	if code := serve(t, "", RoleOrgAdmin, RequireOrganization(), RequireAdmin()); code != 401 {
		t.Fatalf("expected 401, got %d", code)
	}
}

func TestRequireAnyRole_MissingRole(t *testing.T) {
	if code := serve(t, "org-1", "", RequireAnyRole(RoleEmployee)); code != 401 {
		t.Fatalf("expected 401, got %d", code)
	}
}
