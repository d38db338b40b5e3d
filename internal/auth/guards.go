package auth

import "github.com/loopworks/loopworks/internal/orgrbac"

// Decision is the outcome of a guard check. When Allow is false RedirectTo
// names the target the web layer should send the client to; the target is
// configuration, the allow/deny logic is not.
type Decision struct {
	Allow      bool
	RedirectTo string
}

// Guards evaluates access requirements against a principal. A nil principal
// always denies towards the login target.
type Guards struct {
	LoginURL      string
	FallbackURL   string
	OnboardingURL string
	BillingURL    string
}

// NewGuards returns Guards with the default redirect targets.
func NewGuards() Guards {
	return Guards{
		LoginURL:      "/auth/login",
		FallbackURL:   "/dashboard",
		OnboardingURL: "/onboarding/organization",
		BillingURL:    "/settings/billing",
	}
}

func allow() Decision {
	return Decision{Allow: true}
}

func (g Guards) deny(target string) Decision {
	return Decision{Allow: false, RedirectTo: target}
}

// RequireAuth denies unauthenticated requests.
func (g Guards) RequireAuth(p *Principal) Decision {
	if p == nil {
		return g.deny(g.LoginURL)
	}
	return allow()
}

// RequireRole demands a specific global role. Platform admins pass any role
// requirement.
func (g Guards) RequireRole(p *Principal, role orgrbac.GlobalRole) Decision {
	if p == nil {
		return g.deny(g.LoginURL)
	}
	if p.GlobalRole == orgrbac.RoleAdmin || p.GlobalRole == orgrbac.RoleSuperAdmin {
		return allow()
	}
	if p.GlobalRole != role {
		return g.deny(g.FallbackURL)
	}
	return allow()
}

// RequirePermission demands a flat platform permission.
func (g Guards) RequirePermission(p *Principal, perm orgrbac.GlobalPermission) Decision {
	if p == nil {
		return g.deny(g.LoginURL)
	}
	if !orgrbac.HasGlobalPermission(p.GlobalRole, perm) {
		return g.deny(g.FallbackURL)
	}
	return allow()
}

// RequireOrganization demands membership in at least one organization.
func (g Guards) RequireOrganization(p *Principal) Decision {
	if p == nil {
		return g.deny(g.LoginURL)
	}
	if len(p.Memberships) == 0 {
		return g.deny(g.OnboardingURL)
	}
	return allow()
}

// RequireOrgPermission demands an organization permission in the active
// organization.
func (g Guards) RequireOrgPermission(p *Principal, perm orgrbac.Permission) Decision {
	if p == nil {
		return g.deny(g.LoginURL)
	}
	membership, ok := p.ActiveMembership()
	if !ok {
		return g.deny(g.OnboardingURL)
	}
	if !orgrbac.HasOrgPermission(p.GlobalRole, membership.Role, perm) {
		return g.deny(g.FallbackURL)
	}
	return allow()
}

// RequireTier demands a minimum subscription tier by ordinal comparison.
func (g Guards) RequireTier(p *Principal, tier SubscriptionTier) Decision {
	if p == nil {
		return g.deny(g.LoginURL)
	}
	if !p.Tier.AtLeast(tier) {
		return g.deny(g.BillingURL)
	}
	return allow()
}
