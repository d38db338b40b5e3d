// Package orgs manages organizations and their memberships. Every
// member-affecting operation is gated on the caller's organization
// permissions and recorded in the audit log.
package orgs

import (
	"time"

	"github.com/loopworks/loopworks/internal/orgrbac"
)

// Organization is one tenant.
type Organization struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	OwnerID   string    `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Member is one user's membership in an organization.
type Member struct {
	UserID   string          `json:"user_id"`
	Email    string          `json:"email"`
	Name     string          `json:"name"`
	Role     orgrbac.OrgRole `json:"role"`
	JoinedAt time.Time       `json:"joined_at"`
}

// Invite is a pending invitation to join an organization.
type Invite struct {
	ID        string          `json:"id"`
	OrgID     string          `json:"organization_id"`
	Email     string          `json:"email"`
	Role      orgrbac.OrgRole `json:"role"`
	InvitedBy string          `json:"invited_by"`
	CreatedAt time.Time       `json:"created_at"`
}
