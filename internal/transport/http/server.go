package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"fourline-server/internal/config"
	"fourline-server/internal/core"
	"fourline-server/internal/matchmaking"
	"fourline-server/internal/store"
)

// NewServer builds the HTTP server: WebSocket bridge, health check, and
// the leaderboard REST endpoints. cache may be nil when redis is not
// configured.
func NewServer(engine *core.Engine, mm *matchmaking.Matchmaker, st store.Store,
	cache *redis.Client, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))

	router.GET("/health", func(c *gin.Context) {
		c.String(stdhttp.StatusOK, "ok")
	})

	handlers := NewAPIHandlers(st, logger)
	api := router.Group("/api")
	api.Use(RateLimitMiddleware(cfg.RateLimitPerMinute))
	api.GET("/leaderboard", CacheMiddleware(cache, cfg.LeaderboardCacheTTL, logger), handlers.Leaderboard)
	api.GET("/games/recent", handlers.RecentGames)

	// The websocket upgrade needs the raw ResponseWriter to hijack the
	// connection, so /ws sits on a plain mux in front of gin.
	mux := stdhttp.NewServeMux()
	mux.Handle("/ws", NewWSHandler(engine, mm, logger))
	mux.Handle("/", router)

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}
