package auth

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/loopworks/loopworks/internal/orgrbac"
	"github.com/loopworks/loopworks/internal/shared"
)

// Service wraps authentication business rules.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Authenticate validates email/password credentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}

// RegisterSession persists the session metadata in postgres.
func (s *Service) RegisterSession(ctx context.Context, id, userID string, expiresAt time.Time, ip, ua string) error {
	return s.repo.CreateSession(ctx, id, userID, expiresAt, ip, ua)
}

// RemoveSession deletes a session record from postgres.
func (s *Service) RemoveSession(ctx context.Context, id string) error {
	return s.repo.DeleteSession(ctx, id)
}

// CurrentPrincipal builds the request principal from the session. Returns
// shared.ErrUnauthorized when no user is logged in.
func (s *Service) CurrentPrincipal(ctx context.Context) (*Principal, error) {
	sess := shared.SessionFromContext(ctx)
	if sess == nil || sess.User() == "" {
		return nil, shared.ErrUnauthorized
	}
	user, err := s.repo.FindByID(ctx, sess.User())
	if err != nil {
		return nil, shared.ErrUnauthorized
	}
	if !user.IsActive {
		return nil, shared.ErrUnauthorized
	}

	principal := &Principal{
		UserID:      user.ID,
		GlobalRole:  user.GlobalRole,
		Tier:        user.Tier,
		Memberships: user.Memberships,
		ActiveOrgID: sess.Organization(),
	}
	if principal.ActiveOrgID == "" && len(user.Memberships) > 0 {
		principal.ActiveOrgID = user.Memberships[0].OrgID
	}
	return principal, nil
}

// ResolveRoles implements orgrbac.RoleResolver for route middleware.
func (s *Service) ResolveRoles(ctx context.Context) (orgrbac.GlobalRole, orgrbac.OrgRole, bool) {
	principal, err := s.CurrentPrincipal(ctx)
	if err != nil {
		return "", "", false
	}
	membership, ok := principal.ActiveMembership()
	if !ok {
		// No membership: the global role still participates so platform
		// admins keep their bypass.
		return principal.GlobalRole, "", true
	}
	return principal.GlobalRole, membership.Role, true
}
