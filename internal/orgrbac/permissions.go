package orgrbac

// Permission is an organization-scoped capability key.
type Permission string

// Organization permissions.
const (
	PermMembersInvite       Permission = "members:invite"
	PermMembersRemove       Permission = "members:remove"
	PermMembersUpdateRole   Permission = "members:updateRole"
	PermSettingsEdit        Permission = "settings:edit"
	PermSettingsBilling     Permission = "settings:billing"
	PermSettingsIntegration Permission = "settings:integrations"
	PermIndustryEnable      Permission = "industry:enable"
	PermIndustryDisable     Permission = "industry:disable"
	PermIndustryConfigure   Permission = "industry:configure"
	PermOrgDelete           Permission = "org:delete"
	PermOrgTransfer         Permission = "org:transfer"
	PermToolsInstall        Permission = "tools:install"
	PermToolsUninstall      Permission = "tools:uninstall"
	PermToolsConfigure      Permission = "tools:configure"
)

// rolePermissions is the static role to permission-set table. It is never
// mutated after init; ADMIN's set is OWNER's minus billing and
// ownership transfer/deletion.
var rolePermissions = map[OrgRole][]Permission{
	OrgOwner: {
		PermMembersInvite,
		PermMembersRemove,
		PermMembersUpdateRole,
		PermSettingsEdit,
		PermSettingsBilling,
		PermSettingsIntegration,
		PermIndustryEnable,
		PermIndustryDisable,
		PermIndustryConfigure,
		PermOrgDelete,
		PermOrgTransfer,
		PermToolsInstall,
		PermToolsUninstall,
		PermToolsConfigure,
	},
	OrgAdmin: {
		PermMembersInvite,
		PermMembersRemove,
		PermMembersUpdateRole,
		PermSettingsEdit,
		PermSettingsIntegration,
		PermIndustryEnable,
		PermIndustryDisable,
		PermIndustryConfigure,
		PermToolsInstall,
		PermToolsUninstall,
		PermToolsConfigure,
	},
	OrgMember: {
		PermMembersInvite,
		PermToolsConfigure,
	},
	OrgViewer: {},
}

// GlobalPermission is a platform-wide capability key, independent of any
// organization membership.
type GlobalPermission string

// Global permissions.
const (
	PermCRMAccess          GlobalPermission = "crm:access"
	PermCRMManage          GlobalPermission = "crm:manage"
	PermCRMDelete          GlobalPermission = "crm:delete"
	PermTransactionsAccess GlobalPermission = "transactions:access"
	PermToolsAccess        GlobalPermission = "tools:access"
	PermSettingsManage     GlobalPermission = "settings:manage"
	PermAdminAccess        GlobalPermission = "admin:access"
)

var globalRolePermissions = map[GlobalRole][]GlobalPermission{
	RoleSuperAdmin: {
		PermCRMAccess, PermCRMManage, PermCRMDelete,
		PermTransactionsAccess, PermToolsAccess,
		PermSettingsManage, PermAdminAccess,
	},
	RoleAdmin: {
		PermCRMAccess, PermCRMManage, PermCRMDelete,
		PermTransactionsAccess, PermToolsAccess,
		PermSettingsManage, PermAdminAccess,
	},
	RoleModerator: {
		PermCRMAccess, PermCRMManage, PermCRMDelete,
		PermTransactionsAccess, PermToolsAccess,
		PermSettingsManage,
	},
	RoleUser: {
		PermCRMAccess, PermCRMManage,
		PermTransactionsAccess, PermToolsAccess,
	},
}
