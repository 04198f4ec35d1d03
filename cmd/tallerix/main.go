package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tallerix/tallerix/internal/app"
	"github.com/tallerix/tallerix/internal/billing"
	billinghttp "github.com/tallerix/tallerix/internal/billing/http"
	"github.com/tallerix/tallerix/internal/bus"
	"github.com/tallerix/tallerix/internal/kpi"
	kpihttp "github.com/tallerix/tallerix/internal/kpi/http"
	"github.com/tallerix/tallerix/internal/observability"
	"github.com/tallerix/tallerix/internal/platform/cache"
	"github.com/tallerix/tallerix/internal/platform/db"
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, running without aggregate cache", slog.Any("error", err))
	}
	defer func() {
		if redisClient != nil {
			_ = redisClient.Close()
		}
	}()

	metrics := observability.NewMetrics()

	mutationBus := bus.New(logger).WithDeliveryCounter(metrics.CountBusDelivery)

	kpiCache := kpi.NewCache(redisClient, cfg.KpiCacheTTL)
	if err := kpiCache.ListenForInvalidation(ctx); err != nil {
		logger.Warn("cache invalidation listener", slog.Any("error", err))
	}
	kpiService := kpi.NewService(kpi.NewEngine(kpi.NewPGRepository(pool)), kpiCache)

	billingService := billing.NewService(billing.NewRepository(pool), mutationBus, kpiCache)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		KpiHandler:     kpihttp.NewHandler(logger, kpiService),
		BillingHandler: billinghttp.NewHandler(logger, billingService),
		Metrics:        metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown", slog.Any("error", err))
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			os.Exit(1)
		}
	}
}
