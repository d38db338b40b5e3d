package orgs

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loopworks/loopworks/internal/auth"
	"github.com/loopworks/loopworks/internal/orgrbac"
	"github.com/loopworks/loopworks/internal/shared"
)

type stubRepo struct {
	orgs    map[string]Organization
	roles   map[string]orgrbac.OrgRole
	invites []Invite
	removed []string
	updated map[string]orgrbac.OrgRole
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		orgs:    map[string]Organization{},
		roles:   map[string]orgrbac.OrgRole{},
		updated: map[string]orgrbac.OrgRole{},
	}
}

func (r *stubRepo) Create(_ context.Context, name, slug, ownerID string) (Organization, error) {
	org := Organization{ID: "org-new", Name: name, Slug: slug, OwnerID: ownerID}
	r.orgs[org.ID] = org
	r.roles[org.ID+"/"+ownerID] = orgrbac.OrgOwner
	return org, nil
}

func (r *stubRepo) Get(_ context.Context, orgID string) (Organization, error) {
	org, ok := r.orgs[orgID]
	if !ok {
		return Organization{}, shared.ErrNotFound
	}
	return org, nil
}

func (r *stubRepo) Rename(_ context.Context, orgID, name string) error {
	org, ok := r.orgs[orgID]
	if !ok {
		return shared.ErrNotFound
	}
	org.Name = name
	r.orgs[orgID] = org
	return nil
}

func (r *stubRepo) Delete(_ context.Context, orgID string) error {
	if _, ok := r.orgs[orgID]; !ok {
		return shared.ErrNotFound
	}
	delete(r.orgs, orgID)
	return nil
}

func (r *stubRepo) ListMembers(_ context.Context, _ string) ([]Member, error) {
	return nil, nil
}

func (r *stubRepo) GetMemberRole(_ context.Context, orgID, userID string) (orgrbac.OrgRole, error) {
	role, ok := r.roles[orgID+"/"+userID]
	if !ok {
		return "", shared.ErrNotFound
	}
	return role, nil
}

func (r *stubRepo) AddMember(_ context.Context, orgID, userID string, role orgrbac.OrgRole) error {
	r.roles[orgID+"/"+userID] = role
	return nil
}

func (r *stubRepo) RemoveMember(_ context.Context, orgID, userID string) error {
	delete(r.roles, orgID+"/"+userID)
	r.removed = append(r.removed, userID)
	return nil
}

func (r *stubRepo) UpdateMemberRole(_ context.Context, orgID, userID string, role orgrbac.OrgRole) error {
	r.roles[orgID+"/"+userID] = role
	r.updated[userID] = role
	return nil
}

func (r *stubRepo) TransferOwnership(_ context.Context, orgID, fromUserID, toUserID string) error {
	org := r.orgs[orgID]
	org.OwnerID = toUserID
	r.orgs[orgID] = org
	r.roles[orgID+"/"+toUserID] = orgrbac.OrgOwner
	r.roles[orgID+"/"+fromUserID] = orgrbac.OrgAdmin
	return nil
}

func (r *stubRepo) CreateInvite(_ context.Context, invite Invite) (Invite, error) {
	invite.ID = "invite-1"
	r.invites = append(r.invites, invite)
	return invite, nil
}

type stubAudit struct {
	logs []shared.AuditLog
}

func (a *stubAudit) Record(_ context.Context, log shared.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

type stubNotifier struct {
	invites []Invite
}

func (n *stubNotifier) NotifyInvite(_ context.Context, invite Invite, _ string) error {
	n.invites = append(n.invites, invite)
	return nil
}

func principalWithRole(userID, orgID string, role orgrbac.OrgRole) *auth.Principal {
	return &auth.Principal{
		UserID:      userID,
		GlobalRole:  orgrbac.RoleUser,
		Memberships: []auth.Membership{{OrgID: orgID, Role: role}},
		ActiveOrgID: orgID,
	}
}

func newTestService(repo *stubRepo, audit *stubAudit, notifier *stubNotifier) *Service {
	return NewService(repo, audit, notifier, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func seedOrg(repo *stubRepo, ownerID string) Organization {
	org := Organization{ID: "org-1", Name: "Acme Realty", Slug: "acme", OwnerID: ownerID}
	repo.orgs[org.ID] = org
	repo.roles[org.ID+"/"+ownerID] = orgrbac.OrgOwner
	return org
}

func TestCreateOrganizationMakesCallerOwner(t *testing.T) {
	repo := newStubRepo()
	audit := &stubAudit{}
	svc := newTestService(repo, audit, &stubNotifier{})

	actor := &auth.Principal{UserID: "user-1", GlobalRole: orgrbac.RoleUser}
	org, err := svc.CreateOrganization(context.Background(), actor, "Acme Realty", "acme")
	require.NoError(t, err)

	assert.Equal(t, "user-1", org.OwnerID)
	assert.Equal(t, orgrbac.OrgOwner, repo.roles[org.ID+"/user-1"])
	require.Len(t, audit.logs, 1)
	assert.Equal(t, "created_organization", audit.logs[0].Action)
}

func TestInviteMemberRequiresPermission(t *testing.T) {
	repo := newStubRepo()
	seedOrg(repo, "owner-1")
	svc := newTestService(repo, &stubAudit{}, &stubNotifier{})

	viewer := principalWithRole("viewer-1", "org-1", orgrbac.OrgViewer)
	_, err := svc.InviteMember(context.Background(), viewer, "org-1", "new@example.com", orgrbac.OrgMember)
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrForbidden)
	assert.Equal(t, "Forbidden: Missing organization permission members:invite", err.Error())
}

func TestInviteMemberNotifiesAndAudits(t *testing.T) {
	repo := newStubRepo()
	seedOrg(repo, "owner-1")
	audit := &stubAudit{}
	notifier := &stubNotifier{}
	svc := newTestService(repo, audit, notifier)

	owner := principalWithRole("owner-1", "org-1", orgrbac.OrgOwner)
	invite, err := svc.InviteMember(context.Background(), owner, "org-1", "new@example.com", orgrbac.OrgMember)
	require.NoError(t, err)

	assert.Equal(t, "new@example.com", invite.Email)
	require.Len(t, notifier.invites, 1)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, "invited_member", audit.logs[0].Action)
	assert.Equal(t, "owner-1", audit.logs[0].ActorID)
}

func TestInviteMemberRejectsOwnerRole(t *testing.T) {
	repo := newStubRepo()
	seedOrg(repo, "owner-1")
	svc := newTestService(repo, &stubAudit{}, &stubNotifier{})

	owner := principalWithRole("owner-1", "org-1", orgrbac.OrgOwner)
	_, err := svc.InviteMember(context.Background(), owner, "org-1", "new@example.com", orgrbac.OrgOwner)
	assert.ErrorIs(t, err, shared.ErrInvalidArgument)

	_, err = svc.InviteMember(context.Background(), owner, "org-1", "new@example.com", "SUPERUSER")
	assert.ErrorIs(t, err, shared.ErrInvalidArgument)
}

func TestRemoveMemberCannotRemoveOwner(t *testing.T) {
	repo := newStubRepo()
	seedOrg(repo, "owner-1")
	repo.roles["org-1/member-1"] = orgrbac.OrgMember
	svc := newTestService(repo, &stubAudit{}, &stubNotifier{})

	admin := principalWithRole("admin-1", "org-1", orgrbac.OrgAdmin)
	err := svc.RemoveMember(context.Background(), admin, "org-1", "owner-1")
	assert.ErrorIs(t, err, shared.ErrInvalidArgument)

	require.NoError(t, svc.RemoveMember(context.Background(), admin, "org-1", "member-1"))
	assert.Equal(t, []string{"member-1"}, repo.removed)
}

func TestUpdateMemberRoleGuards(t *testing.T) {
	repo := newStubRepo()
	seedOrg(repo, "owner-1")
	repo.roles["org-1/member-1"] = orgrbac.OrgMember
	svc := newTestService(repo, &stubAudit{}, &stubNotifier{})

	admin := principalWithRole("admin-1", "org-1", orgrbac.OrgAdmin)

	// OWNER is not assignable through role updates.
	err := svc.UpdateMemberRole(context.Background(), admin, "org-1", "member-1", orgrbac.OrgOwner)
	assert.ErrorIs(t, err, shared.ErrInvalidArgument)

	// The owner's own role is immutable here.
	err = svc.UpdateMemberRole(context.Background(), admin, "org-1", "owner-1", orgrbac.OrgAdmin)
	assert.ErrorIs(t, err, shared.ErrInvalidArgument)

	require.NoError(t, svc.UpdateMemberRole(context.Background(), admin, "org-1", "member-1", orgrbac.OrgAdmin))
	assert.Equal(t, orgrbac.OrgAdmin, repo.updated["member-1"])

	// Members lack members:updateRole.
	member := principalWithRole("member-2", "org-1", orgrbac.OrgMember)
	err = svc.UpdateMemberRole(context.Background(), member, "org-1", "member-1", orgrbac.OrgViewer)
	assert.ErrorIs(t, err, shared.ErrForbidden)
}

func TestTransferOwnership(t *testing.T) {
	repo := newStubRepo()
	seedOrg(repo, "owner-1")
	repo.roles["org-1/member-1"] = orgrbac.OrgMember
	audit := &stubAudit{}
	svc := newTestService(repo, audit, &stubNotifier{})

	owner := principalWithRole("owner-1", "org-1", orgrbac.OrgOwner)
	require.NoError(t, svc.TransferOwnership(context.Background(), owner, "org-1", "member-1"))

	assert.Equal(t, "member-1", repo.orgs["org-1"].OwnerID)
	assert.Equal(t, orgrbac.OrgOwner, repo.roles["org-1/member-1"])
	assert.Equal(t, orgrbac.OrgAdmin, repo.roles["org-1/owner-1"])
	require.Len(t, audit.logs, 1)
	assert.Equal(t, "transferred_ownership", audit.logs[0].Action)
}

func TestTransferOwnershipDeniedForAdmin(t *testing.T) {
	repo := newStubRepo()
	seedOrg(repo, "owner-1")
	svc := newTestService(repo, &stubAudit{}, &stubNotifier{})

	// org-ADMIN lacks org:transfer; a platform admin bypasses.
	admin := principalWithRole("admin-1", "org-1", orgrbac.OrgAdmin)
	err := svc.TransferOwnership(context.Background(), admin, "org-1", "admin-1")
	assert.ErrorIs(t, err, shared.ErrForbidden)

	repo.roles["org-1/member-1"] = orgrbac.OrgMember
	platform := &auth.Principal{UserID: "staff-1", GlobalRole: orgrbac.RoleAdmin}
	require.NoError(t, svc.TransferOwnership(context.Background(), platform, "org-1", "member-1"))
}

func TestDeleteOrganizationOwnerOnly(t *testing.T) {
	repo := newStubRepo()
	seedOrg(repo, "owner-1")
	svc := newTestService(repo, &stubAudit{}, &stubNotifier{})

	admin := principalWithRole("admin-1", "org-1", orgrbac.OrgAdmin)
	err := svc.DeleteOrganization(context.Background(), admin, "org-1")
	assert.ErrorIs(t, err, shared.ErrForbidden)

	owner := principalWithRole("owner-1", "org-1", orgrbac.OrgOwner)
	require.NoError(t, svc.DeleteOrganization(context.Background(), owner, "org-1"))
	assert.Empty(t, repo.orgs)
}

func TestGetOrganizationCrossTenant(t *testing.T) {
	repo := newStubRepo()
	seedOrg(repo, "owner-1")
	svc := newTestService(repo, &stubAudit{}, &stubNotifier{})

	outsider := principalWithRole("user-9", "org-9", orgrbac.OrgOwner)
	_, err := svc.GetOrganization(context.Background(), outsider, "org-1")
	assert.ErrorIs(t, err, shared.ErrNotFound)

	platform := &auth.Principal{UserID: "staff-1", GlobalRole: orgrbac.RoleSuperAdmin}
	org, err := svc.GetOrganization(context.Background(), platform, "org-1")
	require.NoError(t, err)
	assert.Equal(t, "org-1", org.ID)
}
