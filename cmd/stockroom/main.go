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

	"github.com/stockroom-hq/stockroom/internal/app"
	"github.com/stockroom-hq/stockroom/internal/auth"
	"github.com/stockroom-hq/stockroom/internal/authz"
	"github.com/stockroom-hq/stockroom/internal/importer"
	"github.com/stockroom-hq/stockroom/internal/inventory"
	"github.com/stockroom-hq/stockroom/internal/masterdata/categories"
	"github.com/stockroom-hq/stockroom/internal/masterdata/products"
	"github.com/stockroom-hq/stockroom/internal/masterdata/suppliers"
	"github.com/stockroom-hq/stockroom/internal/masterdata/warehouses"
	"github.com/stockroom-hq/stockroom/internal/observability"
	"github.com/stockroom-hq/stockroom/internal/platform/cache"
	"github.com/stockroom-hq/stockroom/internal/platform/db"
	"github.com/stockroom-hq/stockroom/internal/procurement"
	"github.com/stockroom-hq/stockroom/internal/shared"
	"github.com/stockroom-hq/stockroom/jobs"
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

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

	tokenStore := shared.NewTokenStore(redisClient, cfg.TokenTTL)
	auditLogger := shared.NewAuditLogger(pool)
	idempotencyStore := shared.NewIdempotencyStore(pool)

	policy := authz.UniformPolicy{}
	authzMiddleware := authz.Middleware{Tokens: tokenStore, Policy: policy, Logger: logger}

	metrics := observability.NewMetrics()

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo, tokenStore)
	authHandler := auth.NewHandler(logger, authService)

	categoriesService := categories.NewService(categories.NewRepository(pool))
	categoriesHandler := categories.NewHandler(logger, categoriesService, authzMiddleware)

	suppliersService := suppliers.NewService(suppliers.NewRepository(pool))
	suppliersHandler := suppliers.NewHandler(logger, suppliersService, authzMiddleware)

	warehousesService := warehouses.NewService(warehouses.NewRepository(pool))
	warehousesHandler := warehouses.NewHandler(logger, warehousesService, authzMiddleware)

	productsService := products.NewService(products.NewRepository(pool))
	productsHandler := products.NewHandler(logger, productsService, authzMiddleware)

	inventoryRepo := inventory.NewRepository(pool)
	inventoryService := inventory.NewService(inventoryRepo, auditLogger, idempotencyStore, metrics,
		inventory.ServiceConfig{AllowNegativeStock: cfg.AllowNegativeStock})
	inventoryHandler := inventory.NewHandler(logger, inventoryService, authzMiddleware)

	procurementRepo := procurement.NewRepository(pool)
	procurementService := procurement.NewService(procurementRepo, inventoryService, auditLogger, idempotencyStore)
	procurementHandler := procurement.NewHandler(logger, procurementService, authzMiddleware)

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init queue client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("queue client close", slog.Any("error", err))
		}
	}()

	importService := importer.NewService(logger, productsService, categoriesService, suppliersService, warehousesService, cfg.ImportMaxRows)
	importHandler := importer.NewHandler(logger, importService, jobClient, authzMiddleware)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		AuthHandler:        authHandler,
		CategoriesHandler:  categoriesHandler,
		SuppliersHandler:   suppliersHandler,
		WarehousesHandler:  warehousesHandler,
		ProductsHandler:    productsHandler,
		InventoryHandler:   inventoryHandler,
		ProcurementHandler: procurementHandler,
		ImportHandler:      importHandler,
		JobHandler:         jobHandler,
		Metrics:            metrics,
		Middlewares: app.MiddlewareStack(app.MiddlewareConfig{
			Logger:  logger,
			Config:  cfg,
			Authz:   authzMiddleware,
			Metrics: metrics,
		}),
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
