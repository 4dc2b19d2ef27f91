package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/merchantpulse/merchantpulse-backend/api/controllers"
	"github.com/merchantpulse/merchantpulse-backend/api/routes"
	"github.com/merchantpulse/merchantpulse-backend/internal/dashboard"
	"github.com/merchantpulse/merchantpulse-backend/internal/dashboard/live"
	"github.com/merchantpulse/merchantpulse-backend/internal/dashboard/sources"
	"github.com/merchantpulse/merchantpulse-backend/pkg/config"
	"github.com/merchantpulse/merchantpulse-backend/pkg/logger"
	"github.com/merchantpulse/merchantpulse-backend/pkg/metrics"
	"github.com/merchantpulse/merchantpulse-backend/pkg/pubsub"
	"github.com/merchantpulse/merchantpulse-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub", err)
		}
	}()

	registry := prometheus.NewRegistry()
	dashboardMetrics := metrics.NewDashboardMetrics(registry)

	engine, err := dashboard.New(cfg.Dashboard, sources.NewRegistry(cfg.Sources), cfg.Sources.FetchTimeout, logg, dashboardMetrics)
	if err != nil {
		logg.Error(ctx, "failed to create dashboard engine", err)
		os.Exit(1)
	}

	liveRouter, err := live.NewRouter(engine.Store(), engine.Windows(), live.Caps{
		Transactions: cfg.Dashboard.TransactionsCap,
		Products:     cfg.Dashboard.ProductsCap,
	}, logg, nil)
	if err != nil {
		logg.Error(ctx, "failed to create live router", err)
		os.Exit(1)
	}

	idempotency, err := live.NewIdempotencyManager(redisClient, cfg.Live.IdempotencyTTL)
	if err != nil {
		logg.Error(ctx, "failed to create idempotency manager", err)
		os.Exit(1)
	}

	liveService, err := live.NewService(pubsubClient.LiveSubscription(), liveRouter, idempotency, logg, dashboardMetrics)
	if err != nil {
		logg.Error(ctx, "failed to create live service", err)
		os.Exit(1)
	}

	liveRunner, err := live.NewRunner(liveService, engine.Store(), logg, cfg.Live.BackoffInitial, cfg.Live.BackoffMax)
	if err != nil {
		logg.Error(ctx, "failed to create live runner", err)
		os.Exit(1)
	}

	go func() {
		if err := engine.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logg.Error(ctx, "dashboard engine stopped unexpectedly", err)
		}
	}()

	go func() {
		if err := liveRunner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logg.Error(ctx, "live runner stopped unexpectedly", err)
		}
	}()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case hint := <-engine.FilterHints():
				logg.Warn(logg.WithField(ctx, "hint", hint), "search filter rejected")
			}
		}
	}()

	deps := map[string]controllers.Pinger{
		"redis":  redisClient,
		"pubsub": pubsubClient,
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(logCtx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, registry, deps, engine),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "error shutting down api server", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(logCtx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(context.Background(), "api server stopped")
}
