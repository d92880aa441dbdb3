package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/echiveai-alt/funnytime2-sub001/internal/config"
	"github.com/echiveai-alt/funnytime2-sub001/internal/db"
	"github.com/echiveai-alt/funnytime2-sub001/internal/observability"
	"github.com/echiveai-alt/funnytime2-sub001/internal/server"
	"github.com/echiveai-alt/funnytime2-sub001/internal/server/ratelimit"
)

// cacheSweepInterval is how often expired analysis cache rows are purged
const cacheSweepInterval = 10 * time.Minute

var (
	servePort    int
	serveMigrate bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes authenticated endpoints for running job-fit analyses.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides PORT and the config file)")
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", false, "Apply database migrations before serving")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort > 0 {
		cfg.Port = servePort
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is required")
	}

	logger, err := newLogger(os.Stderr, cfg)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	jwtConfig, err := config.NewJWTConfig(os.Getenv)
	if err != nil {
		return fmt.Errorf("invalid JWT configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	if serveMigrate {
		if err := database.Migrate(ctx); err != nil {
			return err
		}
		logger.Info("migrations applied")
	}

	client, err := newLLMClient(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeClient(client)

	store, closeStore, err := newCacheStore(ctx, cfg, database)
	if err != nil {
		return err
	}
	defer closeStore()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)

	quota := newQuota(database)
	orchestrator := newOrchestrator(client, cfg, stageDeps{
		Candidates: database,
		Cache:      newCache(store, cfg, logger),
		Quota:      quota,
		Metrics:    metrics,
		Logger:     logger,
	})

	if sweeper, ok := store.(expiringStore); ok {
		go sweepExpired(ctx, sweeper, cacheSweepInterval, logger)
	}

	serverConfig := server.DefaultConfig()
	serverConfig.Port = cfg.Port

	srv := server.New(serverConfig, server.Deps{
		Analyzer:       orchestrator,
		Tokens:         server.NewJWTService(jwtConfig).AsTokenValidator(),
		Usage:          quota,
		Limiter:        ratelimit.NewLimiter(ratelimit.LoadConfig(os.Getenv)),
		Metrics:        metrics,
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		Health:         database.Ping,
		Logger:         logger,
	})

	logger.Info("starting server", "port", cfg.Port, "cache_backend", cfg.CacheBackend)
	return srv.Start(ctx)
}

// sweepExpired purges expired cache entries until ctx is done
func sweepExpired(ctx context.Context, store expiringStore, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := store.DeleteExpired(ctx, now)
			if err != nil {
				logger.Warn("failed to purge expired cache entries", "error", err)
				continue
			}
			if n > 0 {
				logger.Debug("purged expired cache entries", "count", n)
			}
		}
	}
}
