package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/loopworks/loopworks/internal/orgrbac"
)

func testPrincipal(global orgrbac.GlobalRole, tier SubscriptionTier, memberships ...Membership) *Principal {
	p := &Principal{UserID: "u-1", GlobalRole: global, Tier: tier, Memberships: memberships}
	if len(memberships) > 0 {
		p.ActiveOrgID = memberships[0].OrgID
	}
	return p
}

func TestRequireAuth(t *testing.T) {
	g := NewGuards()

	d := g.RequireAuth(nil)
	assert.False(t, d.Allow)
	assert.Equal(t, "/auth/login", d.RedirectTo)

	assert.True(t, g.RequireAuth(testPrincipal(orgrbac.RoleUser, TierFree)).Allow)
}

func TestRequireRole(t *testing.T) {
	g := NewGuards()

	assert.False(t, g.RequireRole(nil, orgrbac.RoleModerator).Allow)

	d := g.RequireRole(testPrincipal(orgrbac.RoleUser, TierFree), orgrbac.RoleModerator)
	assert.False(t, d.Allow)
	assert.Equal(t, "/dashboard", d.RedirectTo)

	assert.True(t, g.RequireRole(testPrincipal(orgrbac.RoleModerator, TierFree), orgrbac.RoleModerator).Allow)
	assert.True(t, g.RequireRole(testPrincipal(orgrbac.RoleAdmin, TierFree), orgrbac.RoleModerator).Allow)
	assert.True(t, g.RequireRole(testPrincipal(orgrbac.RoleSuperAdmin, TierFree), orgrbac.RoleModerator).Allow)
}

func TestRequirePermission(t *testing.T) {
	g := NewGuards()

	assert.True(t, g.RequirePermission(testPrincipal(orgrbac.RoleUser, TierFree), orgrbac.PermCRMAccess).Allow)
	assert.False(t, g.RequirePermission(testPrincipal(orgrbac.RoleUser, TierFree), orgrbac.PermAdminAccess).Allow)
	assert.True(t, g.RequirePermission(testPrincipal(orgrbac.RoleAdmin, TierFree), orgrbac.PermAdminAccess).Allow)
}

func TestRequireOrganization(t *testing.T) {
	g := NewGuards()

	d := g.RequireOrganization(testPrincipal(orgrbac.RoleUser, TierFree))
	assert.False(t, d.Allow)
	assert.Equal(t, "/onboarding/organization", d.RedirectTo)

	member := testPrincipal(orgrbac.RoleUser, TierFree, Membership{OrgID: "org-1", Role: orgrbac.OrgMember})
	assert.True(t, g.RequireOrganization(member).Allow)
}

func TestRequireOrgPermission(t *testing.T) {
	g := NewGuards()

	owner := testPrincipal(orgrbac.RoleUser, TierFree, Membership{OrgID: "org-1", Role: orgrbac.OrgOwner})
	assert.True(t, g.RequireOrgPermission(owner, orgrbac.PermOrgDelete).Allow)

	viewer := testPrincipal(orgrbac.RoleUser, TierFree, Membership{OrgID: "org-1", Role: orgrbac.OrgViewer})
	d := g.RequireOrgPermission(viewer, orgrbac.PermMembersInvite)
	assert.False(t, d.Allow)
	assert.Equal(t, "/dashboard", d.RedirectTo)

	// Global admin bypass applies through the guard as well.
	adminViewer := testPrincipal(orgrbac.RoleAdmin, TierFree, Membership{OrgID: "org-1", Role: orgrbac.OrgViewer})
	assert.True(t, g.RequireOrgPermission(adminViewer, orgrbac.PermOrgDelete).Allow)

	noOrg := testPrincipal(orgrbac.RoleUser, TierFree)
	d = g.RequireOrgPermission(noOrg, orgrbac.PermMembersInvite)
	assert.False(t, d.Allow)
	assert.Equal(t, "/onboarding/organization", d.RedirectTo)
}

func TestRequireTier(t *testing.T) {
	g := NewGuards()

	d := g.RequireTier(testPrincipal(orgrbac.RoleUser, TierFree), Tier2)
	assert.False(t, d.Allow)
	assert.Equal(t, "/settings/billing", d.RedirectTo)

	assert.True(t, g.RequireTier(testPrincipal(orgrbac.RoleUser, Tier2), Tier2).Allow)
	assert.True(t, g.RequireTier(testPrincipal(orgrbac.RoleUser, Tier3), Tier2).Allow)

	// Unknown tiers rank lowest.
	assert.False(t, g.RequireTier(testPrincipal(orgrbac.RoleUser, "PLATINUM"), TierStarter).Allow)
	assert.True(t, g.RequireTier(testPrincipal(orgrbac.RoleUser, "PLATINUM"), TierFree).Allow)
}

func TestTierOrdering(t *testing.T) {
	ordered := []SubscriptionTier{TierFree, TierStarter, Tier1, Tier2, Tier3}
	for i, lower := range ordered {
		for _, higher := range ordered[i:] {
			assert.True(t, higher.AtLeast(lower), "%s should satisfy %s", higher, lower)
		}
		if i > 0 {
			assert.False(t, ordered[i-1].AtLeast(lower))
		}
	}
}
