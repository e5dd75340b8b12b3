package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/questhub/questhub/internal/auth"
	"github.com/questhub/questhub/internal/moderation"
	"github.com/questhub/questhub/internal/observability"
	"github.com/questhub/questhub/internal/platform/cache"
	"github.com/questhub/questhub/internal/platform/db"
	"github.com/questhub/questhub/internal/questions"
)

// Runtime is the assembled application.
type Runtime struct {
	Handler http.Handler
	closers []func()
}

// Close releases pools and clients in reverse order of acquisition.
func (rt *Runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
	rt.closers = nil
}

// Build opens storage and assembles handlers according to cfg. Postgres is
// required for the postgres driver; Redis is best effort.
func Build(ctx context.Context, cfg *Config, logger *slog.Logger) (*Runtime, error) {
	rt := &Runtime{}

	var (
		accounts  auth.Store
		questRepo questions.Repository
	)
	switch cfg.StoreDriver {
	case "memory":
		logger.Warn("using in-memory stores, data is lost on restart")
		accounts = auth.NewMemoryStore()
		questRepo = questions.NewMemoryRepository()
	default:
		pool, err := db.New(ctx, cfg.PGDSN, db.Options{})
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		rt.closers = append(rt.closers, pool.Close)
		accounts = auth.NewPGStore(pool)
		questRepo = questions.NewPGRepository(pool)
	}

	checker := buildChecker(ctx, cfg, logger, rt)

	metrics := observability.NewMetrics()
	tokens := auth.NewTokenManager([]byte(cfg.TokenSecret), cfg.TokenTTL)
	guard := auth.NewGuard(tokens, logger)
	authService := auth.NewService(accounts, auth.NewPasswordHasher(auth.DefaultArgon2Params), tokens,
		auth.WithHashConcurrency(cfg.HashConcurrency))

	rt.Handler = NewRouter(RouterParams{
		Logger:           logger,
		Config:           cfg,
		AuthHandler:      auth.NewHandler(logger, authService, guard, metrics),
		QuestionsHandler: questions.NewHandler(logger, questions.NewService(questRepo, checker), guard),
		Metrics:          metrics,
	})
	return rt, nil
}

func buildChecker(ctx context.Context, cfg *Config, logger *slog.Logger, rt *Runtime) moderation.Checker {
	if !cfg.ModerationEnabled() {
		logger.Warn("API_KEY not set, moderation disabled")
		return moderation.Passthrough{}
	}
	var checker moderation.Checker = moderation.NewClient(moderation.Config{
		URL:    cfg.ModerationURL,
		APIKey: cfg.APIKey,
		Model:  cfg.ModerationModel,
	})
	if cfg.RedisAddr == "" {
		return checker
	}
	client, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, moderation cache disabled", slog.Any("error", err))
		return checker
	}
	rt.closers = append(rt.closers, func() {
		if err := client.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	})
	return moderation.NewCachedChecker(checker, client, cfg.ModerationCacheTTL, logger)
}
