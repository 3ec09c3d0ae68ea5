package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/olist-insights/api/controllers"
	"github.com/angelmondragon/olist-insights/api/routes"
	"github.com/angelmondragon/olist-insights/internal/cache"
	"github.com/angelmondragon/olist-insights/internal/dashboard"
	"github.com/angelmondragon/olist-insights/internal/dataset"
	"github.com/angelmondragon/olist-insights/pkg/boundaries"
	"github.com/angelmondragon/olist-insights/pkg/config"
	"github.com/angelmondragon/olist-insights/pkg/env"
	"github.com/angelmondragon/olist-insights/pkg/instance"
	"github.com/angelmondragon/olist-insights/pkg/logger"
	"github.com/angelmondragon/olist-insights/pkg/metrics"
	"github.com/angelmondragon/olist-insights/pkg/redis"
)

const shutdownTimeout = 10 * time.Second

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

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	pipelineMetrics := metrics.NewPipelineMetrics(reg)

	cacheOpts := cache.Options{
		MaxEntries: cfg.Cache.MaxEntries,
		TTL:        cfg.Cache.TTL,
		RemoteTTL:  cfg.Cache.RemoteTTL,
	}
	var redisPinger controllers.Pinger
	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		cacheOpts.Store = redisClient
		cacheOpts.IsMiss = redis.IsMiss
		redisPinger = redisClient
	}

	dashboardService, err := dashboard.NewService(dashboard.ServiceParams{
		Loader: dataset.NewLoader(cfg.Data, logg, pipelineMetrics),
		Boundaries: boundaries.NewClient(
			boundaries.WithBaseURL(cfg.Boundaries.BaseURL),
			boundaries.WithTimeout(cfg.Boundaries.Timeout),
		),
		Pipeline: cfg.Pipeline,
		Cache:    cacheOpts,
		Logger:   logg,
		Metrics:  pipelineMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create dashboard service", err)
		os.Exit(1)
	}

	if err := dashboardService.Reload(context.Background()); err != nil {
		logg.Error(context.Background(), "failed to load dataset", err)
		os.Exit(1)
	}

	addr := ":" + env.Get("PORT", cfg.App.Port)
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
		"data_dir": cfg.Data.Dir,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, dashboardService, redisPinger, reg),
		ReadHeaderTimeout: 5 * time.Second,
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-runCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
		}
		logg.Info(ctx, "api server stopped")
	}
}
