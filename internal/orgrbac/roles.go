package orgrbac

// GlobalRole is the platform-wide role attached to a user account.
type GlobalRole string

// Global roles.
const (
	RoleUser       GlobalRole = "USER"
	RoleModerator  GlobalRole = "MODERATOR"
	RoleAdmin      GlobalRole = "ADMIN"
	RoleSuperAdmin GlobalRole = "SUPER_ADMIN"
)

// ParseGlobalRole validates a raw role string. Unknown values return false
// so callers fail closed instead of propagating arbitrary strings.
func ParseGlobalRole(raw string) (GlobalRole, bool) {
	switch GlobalRole(raw) {
	case RoleUser, RoleModerator, RoleAdmin, RoleSuperAdmin:
		return GlobalRole(raw), true
	}
	return "", false
}

// isPlatformAdmin reports whether the global role bypasses organization
// permission checks entirely.
func (r GlobalRole) isPlatformAdmin() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// OrgRole is the role a user holds inside a single organization.
type OrgRole string

// Organization roles.
const (
	OrgOwner  OrgRole = "OWNER"
	OrgAdmin  OrgRole = "ADMIN"
	OrgMember OrgRole = "MEMBER"
	OrgViewer OrgRole = "VIEWER"
)

// ParseOrgRole validates a raw organization role string.
func ParseOrgRole(raw string) (OrgRole, bool) {
	switch OrgRole(raw) {
	case OrgOwner, OrgAdmin, OrgMember, OrgViewer:
		return OrgRole(raw), true
	}
	return "", false
}
