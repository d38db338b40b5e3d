// Package orgrbac resolves effective permissions from the dual-role model:
// a platform-wide global role combined with a per-organization role. All
// lookups run against static tables; the package holds no mutable state.
package orgrbac

import (
	"fmt"

	"github.com/loopworks/loopworks/internal/shared"
)

// PermissionError reports a missing organization permission. Its message
// format is load-bearing: callers and clients match on the
// "Forbidden: Missing organization permission <perm>" template.
type PermissionError struct {
	Permission Permission
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("Forbidden: Missing organization permission %s", e.Permission)
}

// Is makes the error match shared.ErrForbidden so transport layers can map
// it without string comparison.
func (e *PermissionError) Is(target error) bool {
	return target == shared.ErrForbidden
}

// HasOrgPermission decides whether a user may perform an organization-scoped
// action. Platform admins bypass the table entirely; unknown organization
// roles resolve to an empty permission set.
func HasOrgPermission(global GlobalRole, org OrgRole, perm Permission) bool {
	if global.isPlatformAdmin() {
		return true
	}
	for _, granted := range rolePermissions[org] {
		if granted == perm {
			return true
		}
	}
	return false
}

// RequireOrgPermission returns a PermissionError when the permission is not
// granted, nil otherwise.
func RequireOrgPermission(global GlobalRole, org OrgRole, perm Permission) error {
	if !HasOrgPermission(global, org, perm) {
		return &PermissionError{Permission: perm}
	}
	return nil
}

// RolePermissions returns a copy of the static permission set for an
// organization role. Unknown roles and VIEWER yield an empty slice.
func RolePermissions(org OrgRole) []Permission {
	perms := rolePermissions[org]
	out := make([]Permission, len(perms))
	copy(out, perms)
	return out
}

// HasGlobalPermission decides a platform-wide permission from the global
// role alone. Unknown roles fail closed.
func HasGlobalPermission(global GlobalRole, perm GlobalPermission) bool {
	if global.isPlatformAdmin() {
		return true
	}
	for _, granted := range globalRolePermissions[global] {
		if granted == perm {
			return true
		}
	}
	return false
}

// CanManageMembers reports whether members may be removed or have their
// roles changed.
func CanManageMembers(global GlobalRole, org OrgRole) bool {
	return HasOrgPermission(global, org, PermMembersRemove) &&
		HasOrgPermission(global, org, PermMembersUpdateRole)
}

// CanInviteMembers reports whether new members may be invited.
func CanInviteMembers(global GlobalRole, org OrgRole) bool {
	return HasOrgPermission(global, org, PermMembersInvite)
}

// CanManageBilling reports whether billing settings may be changed.
func CanManageBilling(global GlobalRole, org OrgRole) bool {
	return HasOrgPermission(global, org, PermSettingsBilling)
}

// CanManageOrgSettings reports whether organization settings may be edited.
func CanManageOrgSettings(global GlobalRole, org OrgRole) bool {
	return HasOrgPermission(global, org, PermSettingsEdit)
}

// CanDeleteOrganization reports whether the organization may be deleted.
func CanDeleteOrganization(global GlobalRole, org OrgRole) bool {
	return HasOrgPermission(global, org, PermOrgDelete)
}

// CanInstallTools reports whether marketplace tools may be installed.
func CanInstallTools(global GlobalRole, org OrgRole) bool {
	return HasOrgPermission(global, org, PermToolsInstall)
}

// CanManageIndustries reports whether industry modules may be toggled.
func CanManageIndustries(global GlobalRole, org OrgRole) bool {
	return HasOrgPermission(global, org, PermIndustryEnable) &&
		HasOrgPermission(global, org, PermIndustryDisable)
}

// IsOrgOwner tests the organization role alone; the global role does not
// participate.
func IsOrgOwner(org OrgRole) bool {
	return org == OrgOwner
}

// IsOrgAdmin tests for OWNER or ADMIN organization roles, ignoring the
// global role.
func IsOrgAdmin(org OrgRole) bool {
	return org == OrgOwner || org == OrgAdmin
}
