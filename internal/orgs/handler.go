package orgs

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/loopworks/loopworks/internal/auth"
	"github.com/loopworks/loopworks/internal/orgrbac"
	"github.com/loopworks/loopworks/internal/platform/httpx"
)

// Handler exposes organization management endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	auth      *auth.Service
	validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, authService *auth.Service) *Handler {
	return &Handler{logger: logger, service: service, auth: authService, validator: validator.New()}
}

// MountRoutes registers organization routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/{orgID}", h.get)
	r.Patch("/{orgID}", h.rename)
	r.Delete("/{orgID}", h.delete)
	r.Get("/{orgID}/members", h.listMembers)
	r.Post("/{orgID}/invites", h.invite)
	r.Delete("/{orgID}/members/{userID}", h.removeMember)
	r.Put("/{orgID}/members/{userID}/role", h.updateRole)
	r.Post("/{orgID}/transfer", h.transfer)
}

type createOrgRequest struct {
	Name string `json:"name" validate:"required,max=200"`
	Slug string `json:"slug" validate:"required,max=100,lowercase"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.principal(w, r)
	if !ok {
		return
	}
	var req createOrgRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Argument", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	org, err := h.service.CreateOrganization(r.Context(), actor, req.Name, req.Slug)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, org)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.principal(w, r)
	if !ok {
		return
	}
	org, err := h.service.GetOrganization(r.Context(), actor, chi.URLParam(r, "orgID"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, org)
}

type renameRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

func (h *Handler) rename(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.principal(w, r)
	if !ok {
		return
	}
	var req renameRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Argument", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.service.RenameOrganization(r.Context(), actor, chi.URLParam(r, "orgID"), req.Name); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.principal(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteOrganization(r.Context(), actor, chi.URLParam(r, "orgID")); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) listMembers(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.principal(w, r)
	if !ok {
		return
	}
	members, err := h.service.ListMembers(r.Context(), actor, chi.URLParam(r, "orgID"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"members": members})
}

type inviteRequest struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"required"`
}

func (h *Handler) invite(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.principal(w, r)
	if !ok {
		return
	}
	var req inviteRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Argument", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	invite, err := h.service.InviteMember(r.Context(), actor, chi.URLParam(r, "orgID"), req.Email, orgrbac.OrgRole(req.Role))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, invite)
}

func (h *Handler) removeMember(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.principal(w, r)
	if !ok {
		return
	}
	if err := h.service.RemoveMember(r.Context(), actor, chi.URLParam(r, "orgID"), chi.URLParam(r, "userID")); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}

type updateRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

func (h *Handler) updateRole(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.principal(w, r)
	if !ok {
		return
	}
	var req updateRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Argument", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.service.UpdateMemberRole(r.Context(), actor, chi.URLParam(r, "orgID"), chi.URLParam(r, "userID"), orgrbac.OrgRole(req.Role)); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}

type transferRequest struct {
	ToUserID string `json:"to_user_id" validate:"required"`
}

func (h *Handler) transfer(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.principal(w, r)
	if !ok {
		return
	}
	var req transferRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Argument", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.service.TransferOwnership(r.Context(), actor, chi.URLParam(r, "orgID"), req.ToUserID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) principal(w http.ResponseWriter, r *http.Request) (*auth.Principal, bool) {
	principal, err := h.auth.CurrentPrincipal(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return nil, false
	}
	return principal, true
}
