package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/loopworks/loopworks/internal/auth"
	"github.com/loopworks/loopworks/internal/expenses"
	"github.com/loopworks/loopworks/internal/loops"
	"github.com/loopworks/loopworks/internal/observability"
	"github.com/loopworks/loopworks/internal/orgrbac"
	"github.com/loopworks/loopworks/internal/orgs"
	"github.com/loopworks/loopworks/internal/shared"
	"github.com/loopworks/loopworks/internal/tax"
	"github.com/loopworks/loopworks/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager

	AuthHandler    *auth.Handler
	OrgsHandler    *orgs.Handler
	LoopsHandler   *loops.Handler
	TaxHandler     *tax.Handler
	ExpenseHandler *expenses.Handler
	JobHandler     *jobs.Handler

	RBACMiddleware orgrbac.Middleware
	Metrics        *observability.Metrics
}

// NewRouter constructs the chi.Router for the JSON API.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)
	r.Route("/orgs", params.OrgsHandler.MountRoutes)
	r.Route("/loops", params.LoopsHandler.MountRoutes)
	r.Route("/tax", params.TaxHandler.MountRoutes)
	r.Route("/expenses", params.ExpenseHandler.MountRoutes)
	if params.JobHandler != nil {
		// Queue introspection is for platform staff only.
		r.Route("/jobs", func(r chi.Router) {
			r.Use(params.RBACMiddleware.RequireGlobal(orgrbac.PermAdminAccess))
			params.JobHandler.MountRoutes(r)
		})
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
