package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/TWRT/asana-dashboard/internal/analytics"
	"github.com/TWRT/asana-dashboard/internal/api"
	"github.com/TWRT/asana-dashboard/internal/client/asana"
	"github.com/TWRT/asana-dashboard/internal/config"
	"github.com/TWRT/asana-dashboard/internal/repository"
	"github.com/TWRT/asana-dashboard/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to an optional YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repository.InitDB(cfg.DBPath)
	if err != nil {
		logger.Error("failed to initialize database", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	var cache repository.ReportCache = repository.NewReportCacheRepository(db)
	if cfg.Cache.PostgresURL != "" {
		pool, err := pgxpool.New(ctx, cfg.Cache.PostgresURL)
		if err != nil {
			logger.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		pgCache := repository.NewPgReportCache(pool)
		if err := pgCache.EnsureTable(ctx); err != nil {
			logger.Error("failed to prepare report cache table", "error", err)
			os.Exit(1)
		}
		cache = pgCache
	}

	var builder service.Builder
	if cfg.CanRefresh() {
		asanaClient := asana.NewAsanaClient(cfg.Asana.Token)
		builder = service.NewReportBuilder(asanaClient, cfg.Asana.ProjectGID, cfg.Asana.TeamGID, cfg.FetchConcurrency, logger)
	} else {
		logger.Warn("asana token or project not configured, serving cached reports only")
	}

	reportService := service.NewReportService(cache, builder, cfg.Cache.TTL, logger)
	dashboardService := service.NewDashboardService(
		reportService,
		repository.NewUserRoleRepository(db),
		repository.NewPreferenceRepository(db),
		analytics.Options{Weeks: cfg.Stats.Weeks, Months: cfg.Stats.Months},
		logger,
	)
	adminService := service.NewAdminService(
		repository.NewDepartmentRepository(db),
		repository.NewUserRoleRepository(db),
	)

	router := api.SetupRouter(reportService, dashboardService, adminService, logger)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown failed", "error", err)
		}
	}()

	logger.Info("asana-dashboard starting",
		"addr", cfg.HTTPAddr,
		"db_path", cfg.DBPath,
		"cache_ttl", cfg.Cache.TTL,
		"postgres_cache", cfg.Cache.PostgresURL != "",
		"fetch_concurrency", cfg.FetchConcurrency,
	)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
