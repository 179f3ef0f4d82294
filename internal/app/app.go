package app

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"fourline-server/internal/analytics"
	"fourline-server/internal/config"
	"fourline-server/internal/core"
	"fourline-server/internal/game"
	"fourline-server/internal/matchmaking"
	"fourline-server/internal/store"
	"fourline-server/internal/store/sqlite"
	transporthttp "fourline-server/internal/transport/http"
)

// App wires together the match engine, collaborators and transport.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	store           store.Store
	publisher       analytics.Publisher
	cache           *redis.Client
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	logger.Info().Str("db_path", cfg.DatabasePath).Msg("database initialized")

	var publisher analytics.Publisher = analytics.Nop{}
	if cfg.AMQPURL != "" {
		p, err := analytics.NewAMQP(cfg.AMQPURL, cfg.AnalyticsQueue, logger)
		if err != nil {
			// Analytics is best-effort; a dead broker never stops the server.
			logger.Warn().Err(err).Msg("analytics broker unavailable, events disabled")
		} else {
			publisher = p
			logger.Info().Str("queue", cfg.AnalyticsQueue).Msg("analytics publisher connected")
		}
	}

	var cache *redis.Client
	if cfg.RedisAddr != "" {
		cache = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		logger.Info().Str("redis_addr", cfg.RedisAddr).Msg("leaderboard cache enabled")
	}

	registry := core.NewRegistry()
	engine := core.NewEngine(registry, core.Options{
		Strategy:     game.ChooseColumn,
		Recorder:     st,
		Publisher:    publisher,
		Log:          logger,
		GracePeriod:  cfg.DisconnectGrace,
		BotMoveDelay: cfg.BotMoveDelay,
	})
	mm := matchmaking.New(engine, logger, cfg.MatchWaitTimeout)

	server := transporthttp.NewServer(engine, mm, st, cache, *cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		store:           st,
		publisher:       publisher,
		cache:           cache,
		log:             logger,
	}, nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		a.cleanup()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup()
			return err
		}

		a.cleanup()
		return <-serverErr
	}
}

// cleanup closes the store, analytics publisher and cache.
func (a *App) cleanup() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close analytics publisher")
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close redis client")
		}
	}
}
