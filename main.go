package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/quoridor/theseus-api/internal/config"
	"github.com/quoridor/theseus-api/internal/engine"
	"github.com/quoridor/theseus-api/internal/httpserver"
	"github.com/quoridor/theseus-api/internal/journal"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	zerolog.SetGlobalLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	runner, err := engine.New(engine.Options{
		Path:          cfg.EnginePath,
		Args:          cfg.EngineArgs,
		Timeout:       cfg.EngineTimeout,
		MaxConcurrent: cfg.EngineMaxConcurrent,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to configure engine")
	}

	j, err := openJournal(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open journal")
	}
	defer j.Close()

	srv := httpserver.New(runner, j, httpserver.Options{
		CORSOrigin:      cfg.CORSOrigin,
		StrictToken:     cfg.StrictToken,
		ShutdownTimeout: cfg.ShutdownTimeout,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info().
		Str("port", cfg.Port).
		Str("engine", runner.Path()).
		Dur("engineTimeout", cfg.EngineTimeout).
		Int64("maxConcurrent", cfg.EngineMaxConcurrent).
		Msg("starting theseus-api")
	if err := srv.Start(ctx, cfg.Addr()); err != nil {
		log.Error().Err(err).Msg("server exited")
		j.Close()
		os.Exit(1)
	}
	log.Info().Msg("bye")
}

func openJournal(cfg config.Config) (journal.Journal, error) {
	if cfg.JournalDSN == "" {
		return journal.NewMemory(cfg.JournalMemorySize), nil
	}
	log.Info().Str("dsn", cfg.JournalDSN).Msg("opening sqlite journal")
	return journal.OpenSQLite(cfg.JournalDSN)
}
