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

	"github.com/greengrocer/storefront/internal/app"
	"github.com/greengrocer/storefront/internal/observability"
	"github.com/greengrocer/storefront/internal/orders"
	"github.com/greengrocer/storefront/internal/platform/broker"
	"github.com/greengrocer/storefront/internal/seed"
	"github.com/greengrocer/storefront/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	stores, err := app.OpenStores(ctx, cfg, logger)
	if err != nil {
		logger.Error("open stores", slog.Any("error", err))
		os.Exit(1)
	}
	defer stores.Close()

	if stores.MemorySessions != nil {
		go stores.MemorySessions.RunPruner(ctx, cfg.SessionPruneInterval, logger)
	}

	var notifiers orders.Notifiers
	var inspector jobs.QueueInspector
	if cfg.RedisAddr != "" {
		redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
		jobClient := jobs.NewClient(redisOpts)
		defer func() {
			if err := jobClient.Close(); err != nil {
				logger.Warn("job client close", slog.Any("error", err))
			}
		}()
		notifiers = append(notifiers, jobClient)

		asynqInspector := asynq.NewInspector(redisOpts)
		defer func() {
			if err := asynqInspector.Close(); err != nil {
				logger.Warn("inspector close", slog.Any("error", err))
			}
		}()
		inspector = asynqInspector
	}
	if cfg.AMQPURL != "" {
		publisher, err := broker.Dial(cfg.AMQPURL, cfg.AMQPExchange, "storefront")
		if err != nil {
			logger.Error("connect amqp", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() {
			if err := publisher.Close(); err != nil {
				logger.Warn("amqp close", slog.Any("error", err))
			}
		}()
		notifiers = append(notifiers, orders.NewEventProducer(publisher))
	}

	var notifier orders.Notifier
	if len(notifiers) > 0 {
		notifier = notifiers
	}

	metrics := observability.NewMetrics()
	router, services := app.Assemble(app.Deps{
		Config:       cfg,
		Logger:       logger,
		Stores:       stores,
		Metrics:      metrics,
		Notifier:     notifier,
		JobInspector: inspector,
	})

	if cfg.SeedDemoData {
		if _, err := seed.Run(ctx, services.Catalog, stores.Users, logger); err != nil {
			logger.Error("seed demo data", slog.Any("error", err))
			os.Exit(1)
		}
	}

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
