package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/loopworks/loopworks/internal/app"
	"github.com/loopworks/loopworks/internal/loops"
	"github.com/loopworks/loopworks/internal/observability"
	"github.com/loopworks/loopworks/internal/orgs"
	"github.com/loopworks/loopworks/internal/platform/cache"
	"github.com/loopworks/loopworks/internal/platform/db"
	"github.com/loopworks/loopworks/internal/shared"
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

	logger := app.NewLogger(cfg).With(slog.String("process", "worker"))

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

	metrics := observability.NewMetrics()
	auditLogger := shared.NewAuditLogger(dbpool)

	loopsRepo := loops.NewRepository(dbpool)
	progressEngine := loops.NewEngine(loopsRepo, auditLogger, logger)
	summaryCache := loops.NewSummaryCache(redisClient, cfg.SummaryCacheTTL)
	loopsService := loops.NewService(loopsRepo, progressEngine, summaryCache, logger)

	orgsRepo := orgs.NewRepository(dbpool)

	recalcJob := jobs.NewProgressRecalcJob(loopsService, orgsRepo, logger, metrics)
	inviteJob := &jobs.InviteEmailJob{
		Logger:   logger,
		SMTPAddr: net.JoinHostPort(cfg.SMTPHost, strconv.Itoa(cfg.SMTPPort)),
		From:     cfg.SMTPFrom,
	}

	nightly, err := jobs.NewProgressRecalcTask(jobs.ProgressRecalcPayload{})
	if err != nil {
		logger.Error("build nightly task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeProgressRecalc, Handler: recalcJob.Handle},
			{Type: jobs.TaskTypeInviteEmail, Handler: inviteJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{
				Spec:    cfg.ProgressRecalcCron,
				Task:    nightly,
				Options: []asynq.Option{asynq.Queue(jobs.QueueDefault), asynq.MaxRetry(3)},
			},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("starting worker", slog.String("redis", cfg.RedisAddr))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("worker shut down")
}
