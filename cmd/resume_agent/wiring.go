package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/echiveai-alt/funnytime2-sub001/internal/analysiscache"
	"github.com/echiveai-alt/funnytime2-sub001/internal/config"
	"github.com/echiveai-alt/funnytime2-sub001/internal/db"
	"github.com/echiveai-alt/funnytime2-sub001/internal/llm"
	"github.com/echiveai-alt/funnytime2-sub001/internal/observability"
	"github.com/echiveai-alt/funnytime2-sub001/internal/parsing"
	"github.com/echiveai-alt/funnytime2-sub001/internal/pipeline"
	"github.com/echiveai-alt/funnytime2-sub001/internal/ranking"
	"github.com/echiveai-alt/funnytime2-sub001/internal/rewriting"
	"github.com/echiveai-alt/funnytime2-sub001/internal/types"
	"github.com/echiveai-alt/funnytime2-sub001/internal/usage"
	"github.com/echiveai-alt/funnytime2-sub001/internal/validation"
)

// loadConfig reads --config (if set) and the environment
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func newLogger(w io.Writer, cfg *config.Config) (*slog.Logger, error) {
	logger, err := observability.NewLogger(w, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, fmt.Errorf("failed to configure logging: %w", err)
	}
	return logger, nil
}

func newLLMClient(ctx context.Context, cfg *config.Config) (llm.Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required (set GEMINI_API_KEY environment variable or api_key in the config file)")
	}
	llmConfig := llm.DefaultConfig().WithCallTimeout(cfg.LLMCallTimeout.Std())
	client, err := llm.NewClient(ctx, llmConfig, cfg.APIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	return client, nil
}

// expiringStore is implemented by backends without native expiry
type expiringStore interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// closeClient releases the client's connection if it holds one
func closeClient(client llm.Client) {
	if c, ok := client.(io.Closer); ok {
		c.Close() //nolint:errcheck
	}
}

// newCacheStore builds the configured cache backend. The returned close func is never nil.
func newCacheStore(ctx context.Context, cfg *config.Config, database *db.DB) (analysiscache.Store, func(), error) {
	switch cfg.CacheBackend {
	case config.CacheBackendPostgres:
		if database == nil {
			return nil, nil, fmt.Errorf("cache backend %q requires a database connection", cfg.CacheBackend)
		}
		return analysiscache.NewPostgresStore(database), func() {}, nil
	case config.CacheBackendRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close() //nolint:errcheck
			return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		closeFn := func() {
			client.Close() //nolint:errcheck
		}
		return analysiscache.NewRedisStore(client, ""), closeFn, nil
	default:
		return analysiscache.NewMemoryStore(), func() {}, nil
	}
}

// newQuota keeps usage in Postgres when a database is available
func newQuota(database *db.DB) *usage.Service {
	if database == nil {
		return usage.NewService()
	}
	return usage.NewServiceWithStore(usage.NewPGStore(database.SQLDB()))
}

// stageDeps are the collaborators shared by serve and analyze
type stageDeps struct {
	Candidates pipeline.CandidateSource
	Cache      pipeline.Stage1Cache
	Quota      pipeline.Quota
	Metrics    pipeline.Metrics
	Logger     *slog.Logger
	OnProgress pipeline.ProgressCallback
}

// newOrchestrator wires the three stages with the configured tunables
func newOrchestrator(client llm.Client, cfg *config.Config, deps stageDeps) *pipeline.Orchestrator {
	extractor := parsing.NewExtractor(client, parsing.Options{
		MaxOutputTokens: cfg.ExtractionMaxTokens,
	})
	scorer := ranking.NewScorer(ranking.WithThreshold(cfg.FitThreshold))
	synthesizer := rewriting.NewSynthesizer(client, rewriting.Options{
		Temperature:       cfg.GenerationTemperature,
		MaxOutputTokens:   cfg.GenerationMaxTokens,
		MaxBulletsPerRole: cfg.MaxBulletsPerRole,
		MaxVisualWidth:    cfg.MaxVisualWidth,
		Logger:            deps.Logger,
	})

	return pipeline.New(pipeline.Deps{
		Extractor:   extractor,
		Scorer:      scorer,
		Synthesizer: synthesizer,
		Candidates:  deps.Candidates,
		Cache:       deps.Cache,
		Quota:       deps.Quota,
		Metrics:     deps.Metrics,
		Logger:      deps.Logger,
		OnProgress:  deps.OnProgress,
	}, pipelineConfig(cfg))
}

func pipelineConfig(cfg *config.Config) pipeline.Config {
	return pipeline.Config{
		JobDescriptionLimits: validation.JobDescriptionLimits{
			MinChars: cfg.MinJobDescriptionChars,
			MaxChars: cfg.MaxJobDescriptionChars,
			MinWords: cfg.MinJobDescriptionWords,
		},
		RetryAttempts:    cfg.RetryAttempts,
		RetryDelay:       cfg.RetryDelay.Std(),
		DefaultMatchMode: types.MatchMode(cfg.DefaultMatchMode),
	}
}

// newCache wraps a store with the configured TTL
func newCache(store analysiscache.Store, cfg *config.Config, logger *slog.Logger) *analysiscache.Cache {
	return analysiscache.New(store,
		analysiscache.WithTTL(cfg.CacheTTL.Std()),
		analysiscache.WithLogger(logger),
	)
}
