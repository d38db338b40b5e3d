package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/loopworks/loopworks/internal/orgrbac"
	"github.com/loopworks/loopworks/internal/shared"
)

type stubRepo struct {
	users    map[string]*User
	byEmail  map[string]*User
	sessions map[string]string
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		users:    make(map[string]*User),
		byEmail:  make(map[string]*User),
		sessions: make(map[string]string),
	}
}

func (s *stubRepo) add(u *User) {
	s.users[u.ID] = u
	s.byEmail[u.Email] = u
}

func (s *stubRepo) FindByEmail(_ context.Context, email string) (*User, error) {
	u, ok := s.byEmail[email]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return u, nil
}

func (s *stubRepo) FindByID(_ context.Context, id string) (*User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return u, nil
}

func (s *stubRepo) CreateSession(_ context.Context, id, userID string, _ time.Time, _, _ string) error {
	s.sessions[id] = userID
	return nil
}

func (s *stubRepo) DeleteSession(_ context.Context, id string) error {
	delete(s.sessions, id)
	return nil
}

func newTestHandler(t *testing.T, repo *stubRepo) (*Handler, *shared.SessionManager) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessions := shared.NewSessionManager(client, "loopworks_session", "test-secret", time.Hour, false)
	csrf := shared.NewCSRFManager("csrf-secret")
	service := NewService(repo)
	return NewHandler(slog.Default(), service, sessions, csrf), sessions
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestLoginSuccess(t *testing.T) {
	repo := newStubRepo()
	repo.add(&User{
		ID:           "u-1",
		Email:        "agent@example.com",
		PasswordHash: mustHash(t, "correct-horse"),
		GlobalRole:   orgrbac.RoleUser,
		Tier:         TierStarter,
		IsActive:     true,
		Memberships:  []Membership{{OrgID: "org-1", Role: orgrbac.OrgOwner}},
	})
	handler, sessions := newTestHandler(t, repo)

	body, _ := json.Marshal(map[string]string{"email": "agent@example.com", "password": "correct-horse"})
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	sess, err := sessions.Load(req.Context(), req)
	require.NoError(t, err)
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))
	rec := httptest.NewRecorder()

	handler.handleLogin(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp principalResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "u-1", resp.UserID)
	assert.Equal(t, "org-1", resp.ActiveOrganization)
	assert.NotEmpty(t, resp.CSRFToken)
	assert.Contains(t, repo.sessions, sess.ID)
}

func TestLoginRejectsBadPassword(t *testing.T) {
	repo := newStubRepo()
	repo.add(&User{
		ID:           "u-1",
		Email:        "agent@example.com",
		PasswordHash: mustHash(t, "correct-horse"),
		IsActive:     true,
	})
	handler, sessions := newTestHandler(t, repo)

	body, _ := json.Marshal(map[string]string{"email": "agent@example.com", "password": "wrong-password"})
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	sess, err := sessions.Load(req.Context(), req)
	require.NoError(t, err)
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))
	rec := httptest.NewRecorder()

	handler.handleLogin(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginRejectsInactiveUser(t *testing.T) {
	repo := newStubRepo()
	repo.add(&User{
		ID:           "u-1",
		Email:        "agent@example.com",
		PasswordHash: mustHash(t, "correct-horse"),
		IsActive:     false,
	})
	handler, sessions := newTestHandler(t, repo)

	body, _ := json.Marshal(map[string]string{"email": "agent@example.com", "password": "correct-horse"})
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	sess, err := sessions.Load(req.Context(), req)
	require.NoError(t, err)
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))
	rec := httptest.NewRecorder()

	handler.handleLogin(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCurrentPrincipalWithoutSession(t *testing.T) {
	service := NewService(newStubRepo())
	_, err := service.CurrentPrincipal(context.Background())
	assert.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestResolveRolesWithoutMembership(t *testing.T) {
	repo := newStubRepo()
	repo.add(&User{ID: "u-1", Email: "a@b.co", GlobalRole: orgrbac.RoleAdmin, IsActive: true})
	service := NewService(repo)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessions := shared.NewSessionManager(client, "loopworks_session", "test-secret", time.Hour, false)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sessions.Load(req.Context(), req)
	require.NoError(t, err)
	sess.SetUser("u-1")
	ctx := shared.ContextWithSession(context.Background(), sess)

	global, org, ok := service.ResolveRoles(ctx)
	require.True(t, ok)
	assert.Equal(t, orgrbac.RoleAdmin, global)
	assert.Empty(t, org)
	// The platform admin bypass still grants everything despite the empty
	// organization role.
	assert.True(t, orgrbac.HasOrgPermission(global, org, orgrbac.PermOrgDelete))
}

func TestSwitchOrganizationRejectsNonMember(t *testing.T) {
	repo := newStubRepo()
	repo.add(&User{
		ID:          "u-1",
		Email:       "agent@example.com",
		IsActive:    true,
		GlobalRole:  orgrbac.RoleUser,
		Memberships: []Membership{{OrgID: "org-1", Role: orgrbac.OrgMember}},
	})
	handler, sessions := newTestHandler(t, repo)

	body, _ := json.Marshal(map[string]string{"organization_id": "org-2"})
	req := httptest.NewRequest(http.MethodPost, "/auth/organization", bytes.NewReader(body))
	sess, err := sessions.Load(req.Context(), req)
	require.NoError(t, err)
	sess.SetUser("u-1")
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))
	rec := httptest.NewRecorder()

	handler.handleSwitchOrganization(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
