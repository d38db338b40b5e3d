package auth

import (
	"time"

	"github.com/loopworks/loopworks/internal/orgrbac"
)

// SubscriptionTier gates feature access by plan. Tiers are ordered; a
// higher ordinal grants everything a lower one does.
type SubscriptionTier string

// Subscription tiers, lowest to highest.
const (
	TierFree    SubscriptionTier = "FREE"
	TierStarter SubscriptionTier = "STARTER"
	Tier1       SubscriptionTier = "TIER_1"
	Tier2       SubscriptionTier = "TIER_2"
	Tier3       SubscriptionTier = "TIER_3"
)

var tierOrder = map[SubscriptionTier]int{
	TierFree:    0,
	TierStarter: 1,
	Tier1:       2,
	Tier2:       3,
	Tier3:       4,
}

// AtLeast reports whether the tier meets the required tier. Unknown tiers
// rank lowest.
func (t SubscriptionTier) AtLeast(required SubscriptionTier) bool {
	return tierOrder[t] >= tierOrder[required]
}

// Membership links a user to an organization with an organization role.
type Membership struct {
	OrgID string
	Role  orgrbac.OrgRole
}

// User is a platform account.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	GlobalRole   orgrbac.GlobalRole
	Tier         SubscriptionTier
	IsActive     bool
	Memberships  []Membership
	CreatedAt    time.Time
}

// Principal is the authenticated actor for a single request. It is built
// once per request and read-only afterwards.
type Principal struct {
	UserID      string
	GlobalRole  orgrbac.GlobalRole
	Tier        SubscriptionTier
	Memberships []Membership
	ActiveOrgID string
}

// OrgRole returns the principal's role in the given organization.
func (p *Principal) OrgRole(orgID string) (orgrbac.OrgRole, bool) {
	if p == nil {
		return "", false
	}
	for _, m := range p.Memberships {
		if m.OrgID == orgID {
			return m.Role, true
		}
	}
	return "", false
}

// ActiveMembership returns the membership for the active organization.
func (p *Principal) ActiveMembership() (Membership, bool) {
	if p == nil || p.ActiveOrgID == "" {
		return Membership{}, false
	}
	for _, m := range p.Memberships {
		if m.OrgID == p.ActiveOrgID {
			return m, true
		}
	}
	return Membership{}, false
}
