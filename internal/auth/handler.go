package auth

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/loopworks/loopworks/internal/platform/httpx"
	"github.com/loopworks/loopworks/internal/shared"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	sessionManager *shared.SessionManager
	csrfManager    *shared.CSRFManager
	validator      *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, sessions *shared.SessionManager, csrf *shared.CSRFManager) *Handler {
	return &Handler{
		logger:         logger,
		service:        service,
		sessionManager: sessions,
		csrfManager:    csrf,
		validator:      validator.New(),
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
	r.Get("/me", h.handleMe)
	r.Post("/organization", h.handleSwitchOrganization)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type membershipResponse struct {
	OrganizationID string `json:"organization_id"`
	Role           string `json:"role"`
}

type principalResponse struct {
	UserID             string               `json:"user_id"`
	GlobalRole         string               `json:"global_role"`
	SubscriptionTier   string               `json:"subscription_tier"`
	ActiveOrganization string               `json:"active_organization_id,omitempty"`
	Memberships        []membershipResponse `json:"memberships"`
	CSRFToken          string               `json:"csrf_token,omitempty"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Argument", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	user, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid email or password")
		return
	}

	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		h.logger.Error("session missing during login")
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	sess.SetUser(user.ID)
	if len(user.Memberships) > 0 {
		sess.SetOrganization(user.Memberships[0].OrgID)
	}

	expiresAt := time.Now().Add(h.sessionManager.TTL())
	if err := h.service.RegisterSession(r.Context(), sess.ID, user.ID, expiresAt, r.RemoteAddr, r.UserAgent()); err != nil {
		h.logger.Warn("register session", slog.Any("error", err))
	}

	csrfToken, _ := h.csrfManager.EnsureToken(r.Context(), sess)
	httpx.JSON(w, http.StatusOK, h.principalResponse(&Principal{
		UserID:      user.ID,
		GlobalRole:  user.GlobalRole,
		Tier:        user.Tier,
		Memberships: user.Memberships,
		ActiveOrgID: sess.Organization(),
	}, csrfToken))
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess != nil && sess.ID != "" {
		if err := h.service.RemoveSession(r.Context(), sess.ID); err != nil {
			h.logger.Warn("remove session", slog.Any("error", err))
		}
		h.sessionManager.Destroy(sess)
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	principal, err := h.service.CurrentPrincipal(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, h.principalResponse(principal, ""))
}

type switchOrgRequest struct {
	OrganizationID string `json:"organization_id" validate:"required"`
}

func (h *Handler) handleSwitchOrganization(w http.ResponseWriter, r *http.Request) {
	principal, err := h.service.CurrentPrincipal(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	var req switchOrgRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Argument", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	if _, ok := principal.OrgRole(req.OrganizationID); !ok {
		// Membership absence is reported as not-found so organization ids
		// cannot be probed.
		httpx.RespondError(w, shared.ErrNotFound)
		return
	}

	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return
	}
	sess.SetOrganization(req.OrganizationID)
	principal.ActiveOrgID = req.OrganizationID
	httpx.JSON(w, http.StatusOK, h.principalResponse(principal, ""))
}

func (h *Handler) principalResponse(p *Principal, csrfToken string) principalResponse {
	memberships := make([]membershipResponse, 0, len(p.Memberships))
	for _, m := range p.Memberships {
		memberships = append(memberships, membershipResponse{
			OrganizationID: m.OrgID,
			Role:           string(m.Role),
		})
	}
	return principalResponse{
		UserID:             p.UserID,
		GlobalRole:         string(p.GlobalRole),
		SubscriptionTier:   string(p.Tier),
		ActiveOrganization: p.ActiveOrgID,
		Memberships:        memberships,
		CSRFToken:          csrfToken,
	}
}
