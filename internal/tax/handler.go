package tax

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/loopworks/loopworks/internal/auth"
	"github.com/loopworks/loopworks/internal/platform/httpx"
	"github.com/loopworks/loopworks/internal/shared"
)

// Handler exposes tax estimate endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	auth      *auth.Service
	validator *validator.Validate
	printer   *message.Printer
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, authService *auth.Service) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		auth:      authService,
		validator: validator.New(),
		printer:   message.NewPrinter(language.AmericanEnglish),
	}
}

// MountRoutes registers tax routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/estimate", h.calculate)
	r.Get("/estimates", h.list)
	r.Post("/estimates", h.create)
	r.Get("/estimates/{id}", h.get)
	r.Put("/estimates/{id}", h.update)
}

type estimateResponse struct {
	Estimate
	FormattedTax        string `json:"formatted_tax"`
	FormattedDeductions string `json:"formatted_deductions"`
}

type calculationResponse struct {
	CalculationResult
	FormattedTax        string `json:"formatted_tax"`
	FormattedDeductions string `json:"formatted_deductions"`
}

func (h *Handler) calculate(w http.ResponseWriter, r *http.Request) {
	orgID, ok := h.requireOrg(w, r)
	if !ok {
		return
	}

	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Argument", "year is required")
		return
	}

	var result CalculationResult
	if rawQuarter := r.URL.Query().Get("quarter"); rawQuarter != "" {
		quarter, convErr := strconv.Atoi(rawQuarter)
		if convErr != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Argument", "quarter must be a number")
			return
		}
		result, err = h.service.QuarterlyEstimate(r.Context(), orgID, year, quarter)
	} else {
		result, err = h.service.YearlyEstimate(r.Context(), orgID, year)
	}
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, calculationResponse{
		CalculationResult:   result,
		FormattedTax:        h.usd(result.EstimatedTax),
		FormattedDeductions: h.usd(result.TotalDeductions),
	})
}

type estimateRequest struct {
	Year    int  `json:"year" validate:"required,min=2000,max=2100"`
	Quarter *int `json:"quarter,omitempty" validate:"omitempty,min=1,max=4"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	orgID, ok := h.requireOrg(w, r)
	if !ok {
		return
	}

	var req estimateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Argument", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	est, err := h.service.CreateEstimate(r.Context(), orgID, CreateEstimateInput{Year: req.Year, Quarter: req.Quarter})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, h.estimateResponse(est))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	orgID, ok := h.requireOrg(w, r)
	if !ok {
		return
	}
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Argument", "year is required")
		return
	}
	estimates, err := h.service.ListEstimates(r.Context(), orgID, year)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]estimateResponse, 0, len(estimates))
	for _, est := range estimates {
		out = append(out, h.estimateResponse(est))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"estimates": out})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	orgID, ok := h.requireOrg(w, r)
	if !ok {
		return
	}
	est, err := h.service.GetEstimate(r.Context(), orgID, chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, h.estimateResponse(est))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	orgID, ok := h.requireOrg(w, r)
	if !ok {
		return
	}

	var req estimateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Argument", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	est, err := h.service.UpdateEstimate(r.Context(), orgID, chi.URLParam(r, "id"), CreateEstimateInput{Year: req.Year, Quarter: req.Quarter})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, h.estimateResponse(est))
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

func (h *Handler) estimateResponse(est Estimate) estimateResponse {
	return estimateResponse{
		Estimate:            est,
		FormattedTax:        h.usd(est.Result.EstimatedTax),
		FormattedDeductions: h.usd(est.Result.TotalDeductions),
	}
}

func (h *Handler) usd(amount float64) string {
	return h.printer.Sprintf("$%.2f", amount)
}
