package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/stockroom-hq/stockroom/internal/app"
	"github.com/stockroom-hq/stockroom/internal/importer"
	"github.com/stockroom-hq/stockroom/internal/inventory"
	"github.com/stockroom-hq/stockroom/internal/masterdata/categories"
	"github.com/stockroom-hq/stockroom/internal/masterdata/products"
	"github.com/stockroom-hq/stockroom/internal/masterdata/suppliers"
	"github.com/stockroom-hq/stockroom/internal/masterdata/warehouses"
	"github.com/stockroom-hq/stockroom/internal/platform/db"
	"github.com/stockroom-hq/stockroom/internal/shared"
	"github.com/stockroom-hq/stockroom/jobs"
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	client, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init queue client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Warn("queue client close", slog.Any("error", err))
		}
	}()

	auditLogger := shared.NewAuditLogger(pool)
	idempotencyStore := shared.NewIdempotencyStore(pool)

	inventoryRepo := inventory.NewRepository(pool)
	inventoryService := inventory.NewService(inventoryRepo, auditLogger, idempotencyStore, nil,
		inventory.ServiceConfig{AllowNegativeStock: cfg.AllowNegativeStock})

	reorderJob := jobs.NewReorderScanJob(inventoryService, client, logger)
	cleanupJob := jobs.NewIdempotencyCleanupJob(idempotencyStore, logger)

	importService := importer.NewService(logger,
		products.NewService(products.NewRepository(pool)),
		categories.NewService(categories.NewRepository(pool)),
		suppliers.NewService(suppliers.NewRepository(pool)),
		warehouses.NewService(warehouses.NewRepository(pool)),
		cfg.ImportMaxRows)
	importJob := jobs.NewImportProcessJob(importService, logger)

	reorderTask, err := jobs.NewReorderScanTask(jobs.ReorderScanPayload{NotifyEmail: cfg.ReorderNotifyEmail})
	if err != nil {
		logger.Error("build reorder task", slog.Any("error", err))
		os.Exit(1)
	}
	cleanupTask, err := jobs.NewIdempotencyCleanupTask(jobs.IdempotencyCleanupPayload{RetentionHours: 72})
	if err != nil {
		logger.Error("build cleanup task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeReorderScan, Handler: reorderJob.Handle},
			{Type: jobs.TaskTypeIdempotencyCleanup, Handler: cleanupJob.Handle},
			{Type: jobs.TaskTypeImportProcess, Handler: importJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 6 * * *", Task: reorderTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "30 3 * * *", Task: cleanupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("worker started")
	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
