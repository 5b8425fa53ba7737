package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/greengrocer/storefront/internal/app"
	"github.com/greengrocer/storefront/internal/catalog"
	jobmetrics "github.com/greengrocer/storefront/internal/jobs"
	"github.com/greengrocer/storefront/internal/platform/cache"
	"github.com/greengrocer/storefront/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)
	if cfg.RedisAddr == "" {
		logger.Error("worker requires REDIS_ADDR")
		os.Exit(1)
	}
	if cfg.StoreDriver == app.DriverMemory {
		logger.Warn("worker running against an in-memory store; catalog audits will see no products")
	}

	stores, err := app.OpenStores(ctx, cfg, logger)
	if err != nil {
		logger.Error("open stores", slog.Any("error", err))
		os.Exit(1)
	}
	defer stores.Close()

	catalogCache := cache.NewVersioned(stores.RedisClient(), "catalog", cfg.CatalogCacheTTL)
	catalogService := catalog.NewService(stores.Catalog, catalogCache, logger)
	metrics := jobmetrics.NewMetrics(nil)

	mailer := jobs.SMTPMailer{Addr: cfg.SMTPAddr(), From: cfg.SMTPFrom}
	confirmationJob := jobs.NewOrderConfirmationJob(mailer, logger, metrics)
	auditJob := jobs.NewPriceAuditJob(catalogService, logger, metrics)

	auditTask, err := jobs.NewPriceAuditTask()
	if err != nil {
		logger.Error("build price audit task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskOrderConfirmation, Handler: confirmationJob.Handle},
			{Type: jobs.TaskCatalogPriceAudit, Handler: auditJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "@hourly", Task: auditTask, Options: []asynq.Option{asynq.MaxRetry(1)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("starting worker")
	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
