package orgs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/loopworks/loopworks/internal/auth"
	"github.com/loopworks/loopworks/internal/orgrbac"
	"github.com/loopworks/loopworks/internal/shared"
)

// RepositoryProvider describes the persistence operations required by the
// service.
type RepositoryProvider interface {
	Create(ctx context.Context, name, slug, ownerID string) (Organization, error)
	Get(ctx context.Context, orgID string) (Organization, error)
	Rename(ctx context.Context, orgID, name string) error
	Delete(ctx context.Context, orgID string) error
	ListMembers(ctx context.Context, orgID string) ([]Member, error)
	GetMemberRole(ctx context.Context, orgID, userID string) (orgrbac.OrgRole, error)
	AddMember(ctx context.Context, orgID, userID string, role orgrbac.OrgRole) error
	RemoveMember(ctx context.Context, orgID, userID string) error
	UpdateMemberRole(ctx context.Context, orgID, userID string, role orgrbac.OrgRole) error
	TransferOwnership(ctx context.Context, orgID, fromUserID, toUserID string) error
	CreateInvite(ctx context.Context, invite Invite) (Invite, error)
}

// AuditRecorder captures audit events.
type AuditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// InviteNotifier delivers invitation notifications, typically by enqueueing
// a background email job.
type InviteNotifier interface {
	NotifyInvite(ctx context.Context, invite Invite, orgName string) error
}

// Service enforces organization permissions around membership changes.
type Service struct {
	repo     RepositoryProvider
	audit    AuditRecorder
	notifier InviteNotifier
	logger   *slog.Logger
	now      func() time.Time
}

// NewService wires the organization service.
func NewService(repo RepositoryProvider, audit AuditRecorder, notifier InviteNotifier, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		audit:    audit,
		notifier: notifier,
		logger:   logger,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// CreateOrganization creates a tenant with the caller as owner.
func (s *Service) CreateOrganization(ctx context.Context, actor *auth.Principal, name, slug string) (Organization, error) {
	if actor == nil {
		return Organization{}, shared.ErrUnauthorized
	}
	org, err := s.repo.Create(ctx, name, slug, actor.UserID)
	if err != nil {
		return Organization{}, err
	}
	s.recordAudit(ctx, actor, org.ID, "created_organization", "organization", org.ID, map[string]any{"name": name, "slug": slug})
	return org, nil
}

// GetOrganization fetches an organization the caller belongs to. Platform
// admins may fetch any tenant.
func (s *Service) GetOrganization(ctx context.Context, actor *auth.Principal, orgID string) (Organization, error) {
	if actor == nil {
		return Organization{}, shared.ErrUnauthorized
	}
	if _, ok := actor.OrgRole(orgID); !ok && !orgrbac.HasGlobalPermission(actor.GlobalRole, orgrbac.PermAdminAccess) {
		return Organization{}, shared.ErrNotFound
	}
	return s.repo.Get(ctx, orgID)
}

// ListMembers returns the members of an organization the caller belongs to.
func (s *Service) ListMembers(ctx context.Context, actor *auth.Principal, orgID string) ([]Member, error) {
	if actor == nil {
		return nil, shared.ErrUnauthorized
	}
	if _, ok := actor.OrgRole(orgID); !ok && !orgrbac.HasGlobalPermission(actor.GlobalRole, orgrbac.PermAdminAccess) {
		return nil, shared.ErrNotFound
	}
	return s.repo.ListMembers(ctx, orgID)
}

// RenameOrganization updates the tenant name.
func (s *Service) RenameOrganization(ctx context.Context, actor *auth.Principal, orgID, name string) error {
	if err := s.requirePermission(actor, orgID, orgrbac.PermSettingsEdit); err != nil {
		return err
	}
	if err := s.repo.Rename(ctx, orgID, name); err != nil {
		return err
	}
	s.recordAudit(ctx, actor, orgID, "renamed_organization", "organization", orgID, map[string]any{"name": name})
	return nil
}

// DeleteOrganization removes the tenant entirely.
func (s *Service) DeleteOrganization(ctx context.Context, actor *auth.Principal, orgID string) error {
	if err := s.requirePermission(actor, orgID, orgrbac.PermOrgDelete); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, orgID); err != nil {
		return err
	}
	s.recordAudit(ctx, actor, orgID, "deleted_organization", "organization", orgID, nil)
	return nil
}

// InviteMember records an invitation and notifies the invitee.
func (s *Service) InviteMember(ctx context.Context, actor *auth.Principal, orgID, email string, role orgrbac.OrgRole) (Invite, error) {
	if err := s.requirePermission(actor, orgID, orgrbac.PermMembersInvite); err != nil {
		return Invite{}, err
	}
	if role == orgrbac.OrgOwner {
		return Invite{}, fmt.Errorf("%w: owner role cannot be granted by invitation", shared.ErrInvalidArgument)
	}
	if _, ok := orgrbac.ParseOrgRole(string(role)); !ok {
		return Invite{}, fmt.Errorf("%w: unknown organization role %q", shared.ErrInvalidArgument, role)
	}

	invite, err := s.repo.CreateInvite(ctx, Invite{OrgID: orgID, Email: email, Role: role, InvitedBy: actor.UserID})
	if err != nil {
		return Invite{}, err
	}
	s.recordAudit(ctx, actor, orgID, "invited_member", "organization_invite", invite.ID, map[string]any{"email": email, "role": string(role)})

	if s.notifier != nil {
		org, err := s.repo.Get(ctx, orgID)
		if err == nil {
			if err := s.notifier.NotifyInvite(ctx, invite, org.Name); err != nil && s.logger != nil {
				s.logger.Warn("invite notification failed",
					slog.String("organization_id", orgID),
					slog.String("invite_id", invite.ID),
					slog.String("error", err.Error()))
			}
		}
	}
	return invite, nil
}

// RemoveMember removes a member. The owner cannot be removed; ownership
// must be transferred first.
func (s *Service) RemoveMember(ctx context.Context, actor *auth.Principal, orgID, userID string) error {
	if err := s.requirePermission(actor, orgID, orgrbac.PermMembersRemove); err != nil {
		return err
	}
	role, err := s.repo.GetMemberRole(ctx, orgID, userID)
	if err != nil {
		return err
	}
	if role == orgrbac.OrgOwner {
		return fmt.Errorf("%w: the owner cannot be removed", shared.ErrInvalidArgument)
	}
	if err := s.repo.RemoveMember(ctx, orgID, userID); err != nil {
		return err
	}
	s.recordAudit(ctx, actor, orgID, "removed_member", "organization_member", userID, nil)
	return nil
}

// UpdateMemberRole changes a member's role. OWNER cannot be assigned or
// revoked here; ownership transfer is a separate operation.
func (s *Service) UpdateMemberRole(ctx context.Context, actor *auth.Principal, orgID, userID string, role orgrbac.OrgRole) error {
	if err := s.requirePermission(actor, orgID, orgrbac.PermMembersUpdateRole); err != nil {
		return err
	}
	if role == orgrbac.OrgOwner {
		return fmt.Errorf("%w: use ownership transfer to assign the owner role", shared.ErrInvalidArgument)
	}
	if _, ok := orgrbac.ParseOrgRole(string(role)); !ok {
		return fmt.Errorf("%w: unknown organization role %q", shared.ErrInvalidArgument, role)
	}
	current, err := s.repo.GetMemberRole(ctx, orgID, userID)
	if err != nil {
		return err
	}
	if current == orgrbac.OrgOwner {
		return fmt.Errorf("%w: the owner role cannot be changed here", shared.ErrInvalidArgument)
	}
	if err := s.repo.UpdateMemberRole(ctx, orgID, userID, role); err != nil {
		return err
	}
	s.recordAudit(ctx, actor, orgID, "updated_member_role", "organization_member", userID, map[string]any{"role": string(role)})
	return nil
}

// TransferOwnership hands the organization to another existing member. The
// previous owner stays on as an admin.
func (s *Service) TransferOwnership(ctx context.Context, actor *auth.Principal, orgID, toUserID string) error {
	if err := s.requirePermission(actor, orgID, orgrbac.PermOrgTransfer); err != nil {
		return err
	}
	org, err := s.repo.Get(ctx, orgID)
	if err != nil {
		return err
	}
	if org.OwnerID == toUserID {
		return fmt.Errorf("%w: user already owns the organization", shared.ErrInvalidArgument)
	}
	if _, err := s.repo.GetMemberRole(ctx, orgID, toUserID); err != nil {
		return err
	}
	if err := s.repo.TransferOwnership(ctx, orgID, org.OwnerID, toUserID); err != nil {
		return err
	}
	s.recordAudit(ctx, actor, orgID, "transferred_ownership", "organization", orgID, map[string]any{"from": org.OwnerID, "to": toUserID})
	return nil
}

func (s *Service) requirePermission(actor *auth.Principal, orgID string, perm orgrbac.Permission) error {
	if actor == nil {
		return shared.ErrUnauthorized
	}
	role, _ := actor.OrgRole(orgID)
	return orgrbac.RequireOrgPermission(actor.GlobalRole, role, perm)
}

func (s *Service) recordAudit(ctx context.Context, actor *auth.Principal, orgID, action, entity, entityID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.UserID,
		OrgID:    orgID,
		Action:   action,
		Entity:   entity,
		EntityID: entityID,
		Meta:     meta,
		At:       s.now(),
	})
}
