package loops

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/loopworks/loopworks/internal/auth"
	"github.com/loopworks/loopworks/internal/platform/httpx"
	"github.com/loopworks/loopworks/internal/shared"
)

// Handler exposes loop progress endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	auth    *auth.Service
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, authService *auth.Service) *Handler {
	return &Handler{logger: logger, service: service, auth: authService}
}

// MountRoutes registers loop routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/{id}/progress", h.calculate)
	r.Post("/progress/recalculate", h.recalculateAll)
	r.Get("/progress/summary", h.summary)
	r.Get("/milestones", h.milestones)
}

func (h *Handler) calculate(w http.ResponseWriter, r *http.Request) {
	orgID, ok := h.requireOrg(w, r)
	if !ok {
		return
	}
	result, err := h.service.CalculateProgress(r.Context(), orgID, chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) recalculateAll(w http.ResponseWriter, r *http.Request) {
	orgID, ok := h.requireOrg(w, r)
	if !ok {
		return
	}
	result, err := h.service.RecalculateAll(r.Context(), orgID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	orgID, ok := h.requireOrg(w, r)
	if !ok {
		return
	}
	summary, err := h.service.ProgressSummary(r.Context(), orgID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) milestones(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireOrg(w, r); !ok {
		return
	}
	loopType := TransactionType(r.URL.Query().Get("type"))
	milestones := MilestonesForType(loopType)
	if len(milestones) == 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Argument", "unknown transaction type")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"type": loopType, "milestones": milestones})
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
