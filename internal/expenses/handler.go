package expenses

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/loopworks/loopworks/internal/auth"
	"github.com/loopworks/loopworks/internal/platform/httpx"
	"github.com/loopworks/loopworks/internal/shared"
)

// Handler exposes expense endpoints.
type Handler struct {
	logger    *slog.Logger
	repo      *Repository
	auth      *auth.Service
	validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, repo *Repository, authService *auth.Service) *Handler {
	return &Handler{logger: logger, repo: repo, auth: authService, validator: validator.New()}
}

// MountRoutes registers expense routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Delete("/{id}", h.delete)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	orgID, ok := h.requireOrg(w, r)
	if !ok {
		return
	}

	var input CreateInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Argument", "malformed request body")
		return
	}
	if err := h.validator.Struct(input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	exp, err := h.repo.Create(r.Context(), orgID, input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, exp)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	orgID, ok := h.requireOrg(w, r)
	if !ok {
		return
	}
	exp, err := h.repo.Get(r.Context(), orgID, chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, exp)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	orgID, ok := h.requireOrg(w, r)
	if !ok {
		return
	}
	if err := h.repo.Delete(r.Context(), orgID, chi.URLParam(r, "id")); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	orgID, ok := h.requireOrg(w, r)
	if !ok {
		return
	}

	filter := ListFilter{Category: r.URL.Query().Get("category")}
	filter.Page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	filter.PerPage, _ = strconv.Atoi(r.URL.Query().Get("per_page"))
	filter.DeductibleOnly = r.URL.Query().Get("deductible") == "true"
	if raw := r.URL.Query().Get("from"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Argument", "from must be RFC3339")
			return
		}
		filter.From = &ts
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Argument", "to must be RFC3339")
			return
		}
		filter.To = &ts
	}

	items, pagination, err := h.repo.List(r.Context(), orgID, filter)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"expenses": items, "pagination": pagination})
}

func (h *Handler) requireOrg(w http.ResponseWriter, r *http.Request) (string, bool) {
	principal, err := h.auth.CurrentPrincipal(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return "", false
	}
	if principal.ActiveOrgID == "" {
		httpx.RespondError(w, shared.ErrForbidden)
		return "", false
	}
	return principal.ActiveOrgID, true
}
