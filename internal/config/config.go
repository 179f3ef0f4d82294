package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`
	DatabasePath      string        `mapstructure:"database_path" yaml:"database_path"`

	// Match session engine timings.
	DisconnectGrace  time.Duration `mapstructure:"disconnect_grace" yaml:"disconnect_grace"`
	BotMoveDelay     time.Duration `mapstructure:"bot_move_delay" yaml:"bot_move_delay"`
	MatchWaitTimeout time.Duration `mapstructure:"match_wait_timeout" yaml:"match_wait_timeout"`

	// API glue.
	RateLimitPerMinute  int           `mapstructure:"rate_limit_per_minute" yaml:"rate_limit_per_minute"`
	LeaderboardCacheTTL time.Duration `mapstructure:"leaderboard_cache_ttl" yaml:"leaderboard_cache_ttl"`

	// Optional collaborators; empty disables them.
	AMQPURL        string `mapstructure:"amqp_url" yaml:"amqp_url"`
	AnalyticsQueue string `mapstructure:"analytics_queue" yaml:"analytics_queue"`
	RedisAddr      string `mapstructure:"redis_addr" yaml:"redis_addr"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:                ":8080",
		ReadHeaderTimeout:   5 * time.Second,
		ShutdownTimeout:     5 * time.Second,
		LogLevel:            "info",
		DatabasePath:        "fourline.db",
		DisconnectGrace:     30 * time.Second,
		BotMoveDelay:        600 * time.Millisecond,
		MatchWaitTimeout:    5 * time.Second,
		RateLimitPerMinute:  120,
		LeaderboardCacheTTL: 10 * time.Second,
		AnalyticsQueue:      "game.events",
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.DatabasePath != "" {
		c.DatabasePath = other.DatabasePath
	}
	if other.DisconnectGrace != 0 {
		c.DisconnectGrace = other.DisconnectGrace
	}
	if other.BotMoveDelay != 0 {
		c.BotMoveDelay = other.BotMoveDelay
	}
	if other.MatchWaitTimeout != 0 {
		c.MatchWaitTimeout = other.MatchWaitTimeout
	}
	if other.RateLimitPerMinute != 0 {
		c.RateLimitPerMinute = other.RateLimitPerMinute
	}
	if other.LeaderboardCacheTTL != 0 {
		c.LeaderboardCacheTTL = other.LeaderboardCacheTTL
	}
	if other.AMQPURL != "" {
		c.AMQPURL = other.AMQPURL
	}
	if other.AnalyticsQueue != "" {
		c.AnalyticsQueue = other.AnalyticsQueue
	}
	if other.RedisAddr != "" {
		c.RedisAddr = other.RedisAddr
	}
}
