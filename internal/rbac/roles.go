package rbac

// Role names carried in access tokens.
const (
	RoleSuperAdmin = "super_admin"
	RoleOrgAdmin   = "org_admin"
	RoleEmployee   = "employee"
)

func IsSuperAdmin(role string) bool { return role == RoleSuperAdmin }

// IsAdmin reports whether the role may manage organization settings, senders and campaigns.
func IsAdmin(role string) bool { return role == RoleSuperAdmin || role == RoleOrgAdmin }
