package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/olist-insights/internal/cache"
	"github.com/angelmondragon/olist-insights/internal/dashboard"
	"github.com/angelmondragon/olist-insights/internal/dataset"
	"github.com/angelmondragon/olist-insights/internal/report"
	"github.com/angelmondragon/olist-insights/pkg/boundaries"
	"github.com/angelmondragon/olist-insights/pkg/config"
	"github.com/angelmondragon/olist-insights/pkg/enums"
	"github.com/angelmondragon/olist-insights/pkg/logger"
)

func main() {
	start := flag.String("start", "", "first purchase day to include (YYYY-MM-DD)")
	end := flag.String("end", "", "last purchase day to include (YYYY-MM-DD)")
	window := flag.String("window", enums.RFMWindow30.String(), "rfm window in days: 30|60|90")
	limit := flag.Int("limit", 8, "leaderboard size")
	format := flag.String("format", string(report.FormatXLSX), "output format: xlsx|json")
	outDir := flag.String("out", "reports", "output directory")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "report"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "report",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	req, outFormat, err := parseArgs(*start, *end, *window, *limit, *format)
	if err != nil {
		logg.Error(context.Background(), "invalid report arguments", err)
		os.Exit(2)
	}

	service, err := dashboard.NewService(dashboard.ServiceParams{
		Loader: dataset.NewLoader(cfg.Data, logg, nil),
		Boundaries: boundaries.NewClient(
			boundaries.WithBaseURL(cfg.Boundaries.BaseURL),
			boundaries.WithTimeout(cfg.Boundaries.Timeout),
		),
		Pipeline: cfg.Pipeline,
		Cache:    cache.Options{MaxEntries: cfg.Cache.MaxEntries},
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create dashboard service", err)
		os.Exit(1)
	}

	ctx := context.Background()
	if err := service.Reload(ctx); err != nil {
		logg.Error(ctx, "failed to load dataset", err)
		os.Exit(1)
	}

	now := time.Now()
	bundle, err := report.Collect(ctx, service, req, now)
	if err != nil {
		logg.Error(ctx, "failed to collect report", err)
		os.Exit(1)
	}

	path := report.TimestampedFilename(*outDir, "olist_dashboard", outFormat, now)
	if err := report.Export(path, outFormat, bundle); err != nil {
		logg.Error(ctx, "failed to export report", err)
		os.Exit(1)
	}
	logg.Info(logg.WithFields(ctx, map[string]any{
		"path":   path,
		"format": outFormat,
		"window": req.Window.String(),
	}), "report exported")
}

func parseArgs(start, end, window string, limit int, format string) (report.Request, report.Format, error) {
	var req report.Request
	startDay, err := parseDay("start", start)
	if err != nil {
		return req, "", err
	}
	endDay, err := parseDay("end", end)
	if err != nil {
		return req, "", err
	}
	if req.Range, err = dataset.NewDateRange(startDay, endDay); err != nil {
		return req, "", err
	}
	if req.Window, err = enums.ParseRFMWindow(window); err != nil {
		return req, "", err
	}
	if limit < 1 {
		return req, "", fmt.Errorf("limit must be positive, got %d", limit)
	}
	req.Limit = limit
	outFormat, err := report.ParseFormat(format)
	if err != nil {
		return req, "", err
	}
	return req, outFormat, nil
}

func parseDay(name, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	day, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s date %q: expected %s", name, value, time.DateOnly)
	}
	return day, nil
}
