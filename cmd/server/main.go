package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"fourline-server/internal/app"
	"fourline-server/internal/config"
	"fourline-server/internal/log"
)

func main() {
	var (
		configPath string
		overrides  config.Config
	)
	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.StringVar(&overrides.Addr, "addr", "", "HTTP listen address")
	flag.StringVar(&overrides.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	flag.StringVar(&overrides.DatabasePath, "db", "", "path to sqlite database")
	flag.DurationVar(&overrides.DisconnectGrace, "disconnect-grace", 0, "rejoin grace period after a disconnect")
	flag.DurationVar(&overrides.BotMoveDelay, "bot-move-delay", 0, "delay before the automated opponent moves")
	flag.Parse()

	bootLogger := log.New("info")
	cfg, cfgPath, err := config.Load(bootLogger, configPath)
	if err != nil {
		bootLogger.Fatal().Err(err).Str("path", cfgPath).Msg("failed to load config")
	}
	cfg.UpdateFrom(overrides)

	logger := log.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(&cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build application")
	}

	logger.Info().Str("addr", cfg.Addr).Msg("starting fourline server")
	if err := application.Run(ctx); err != nil {
		logger.Fatal().Err(err).Msg("server exited with error")
	}
	logger.Info().Msg("server stopped")
}
