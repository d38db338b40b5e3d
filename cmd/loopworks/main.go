package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/loopworks/loopworks/internal/app"
	"github.com/loopworks/loopworks/internal/auth"
	"github.com/loopworks/loopworks/internal/expenses"
	"github.com/loopworks/loopworks/internal/loops"
	"github.com/loopworks/loopworks/internal/observability"
	"github.com/loopworks/loopworks/internal/orgrbac"
	"github.com/loopworks/loopworks/internal/orgs"
	"github.com/loopworks/loopworks/internal/platform/cache"
	"github.com/loopworks/loopworks/internal/platform/db"
	"github.com/loopworks/loopworks/internal/shared"
	"github.com/loopworks/loopworks/internal/tax"
	"github.com/loopworks/loopworks/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "loopworks_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	auditLogger := shared.NewAuditLogger(dbpool)
	metrics := observability.NewMetrics()

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager, csrfManager)

	rbacMiddleware := orgrbac.Middleware{Resolver: authService, Logger: logger}

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	orgsRepo := orgs.NewRepository(dbpool)
	orgsService := orgs.NewService(orgsRepo, auditLogger, jobs.NewInviteNotifier(jobClient), logger)
	orgsHandler := orgs.NewHandler(logger, orgsService, authService)

	loopsRepo := loops.NewRepository(dbpool)
	progressEngine := loops.NewEngine(loopsRepo, auditLogger, logger)
	summaryCache := loops.NewSummaryCache(redisClient, cfg.SummaryCacheTTL)
	loopsService := loops.NewService(loopsRepo, progressEngine, summaryCache, logger)
	loopsHandler := loops.NewHandler(logger, loopsService, authService)

	expenseRepo := expenses.NewRepository(dbpool)
	expenseHandler := expenses.NewHandler(logger, expenseRepo, authService)

	taxService := tax.NewService(expenseRepo, tax.NewEstimateRepository(dbpool), logger)
	taxHandler := tax.NewHandler(logger, taxService, authService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		SessionManager: sessionManager,
		CSRFManager:    csrfManager,
		AuthHandler:    authHandler,
		OrgsHandler:    orgsHandler,
		LoopsHandler:   loopsHandler,
		TaxHandler:     taxHandler,
		ExpenseHandler: expenseHandler,
		JobHandler:     jobHandler,
		RBACMiddleware: rbacMiddleware,
		Metrics:        metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
