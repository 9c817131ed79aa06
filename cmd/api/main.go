package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/freightquote-backend/api/routes"
	"github.com/angelmondragon/freightquote-backend/internal/catalog"
	"github.com/angelmondragon/freightquote-backend/internal/drafts"
	"github.com/angelmondragon/freightquote-backend/internal/submissions"
	"github.com/angelmondragon/freightquote-backend/pkg/catalogapi"
	"github.com/angelmondragon/freightquote-backend/pkg/config"
	"github.com/angelmondragon/freightquote-backend/pkg/db"
	"github.com/angelmondragon/freightquote-backend/pkg/logger"
	"github.com/angelmondragon/freightquote-backend/pkg/metrics"
	"github.com/angelmondragon/freightquote-backend/pkg/migrate"
	"github.com/angelmondragon/freightquote-backend/pkg/redis"
)

const (
	serviceName     = "freightquote-api"
	shutdownTimeout = 15 * time.Second
)

func main() {
	logg := logger.New(logger.Options{ServiceName: serviceName})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	instance := os.Getenv("DYNO")
	if instance == "" {
		instance = "local"
	}
	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Fields:      map[string]any{"env": cfg.App.Env, "instance": instance},
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

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

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	api, err := catalogapi.NewClient(cfg.Catalog.BaseURL,
		catalogapi.WithHTTPClient(&http.Client{Timeout: cfg.Catalog.Timeout}),
		catalogapi.WithTokenSource(catalogapi.StaticToken(cfg.Catalog.APIToken)),
		catalogapi.WithPageSize(cfg.Catalog.PageSize),
		catalogapi.WithMaxPages(cfg.Catalog.MaxPages),
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog api client", err)
		os.Exit(1)
	}
	source := catalog.NewAPISource(api)

	catalogs := catalog.NewSet(source,
		catalog.WithLogger(logg),
		catalog.WithMetrics(metrics.NewCatalogFetchMetrics(registry)),
	)
	defer catalogs.Close()

	lookups := catalog.NewLookups(source, cfg.Catalog.SearchDebounce, cfg.Catalog.Timeout, logg)
	defer lookups.Close()

	draftService, err := drafts.NewService(drafts.ServiceParams{
		Repo:      drafts.NewRedisRepository(redisClient, cfg.Drafts.WorkspaceTTL),
		Offers:    catalogs,
		Submitter: submissions.NewRepository(dbClient),
		Logger:    logg,
		Metrics:   metrics.NewDraftMetrics(registry),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create draft service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithField(context.Background(), "addr", addr)

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Warm the catalogs; failures stay visible in the snapshots until a refresh.
	go func() {
		if err := catalogs.EnsureAll(runCtx); err != nil {
			logg.Warn(logg.WithField(ctx, "error", err.Error()), "initial catalog load incomplete")
		}
	}()

	server := &http.Server{
		Addr:              addr,
		ReadHeaderTimeout: 10 * time.Second,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			catalogs,
			lookups,
			draftService,
			promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		),
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-runCtx.Done():
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}
