// Package main is the entry point for the qphi service: a simulator for
// open quantum systems under Lindblad dynamics that measures integrated
// information across noise-amplitude sweeps.
//
// The application follows clean architecture principles:
// - Core numerics (operators, density matrices, solver) carry no infrastructure dependencies
// - Repository pattern for sweep persistence
// - Service layer for orchestration
// - HTTP handlers for API endpoints
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/avermex/qphi/internal/config"
	"github.com/avermex/qphi/internal/database"
	"github.com/avermex/qphi/internal/modules/partition"
	"github.com/avermex/qphi/internal/modules/phi"
	"github.com/avermex/qphi/internal/modules/sweep"
	"github.com/avermex/qphi/internal/server"
	"github.com/avermex/qphi/internal/workers"
	"github.com/avermex/qphi/pkg/logger"
)

// main orchestrates the startup sequence:
// 1. Loads configuration from environment variables
// 2. Initializes logging
// 3. Opens the results database (sweeps, Phi result cache)
// 4. Wires the worker pool, partition searcher and services
// 5. Starts the HTTP server
// 6. Waits for a shutdown signal and drains gracefully
func main() {
	cfg, err := config.Load()
	if err != nil {
		// Use fallback logger if config fails
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().
		Int("port", cfg.Port).
		Str("partition_policy", cfg.PartitionPolicy).
		Int("workers", cfg.Workers).
		Msg("Starting qphi service")

	resultsDB, err := database.New(database.Config{
		Path:    cfg.ResultsDBPath(),
		Profile: database.ProfileResults,
		Name:    "results",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open results database")
	}
	defer func() {
		if err := resultsDB.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close results database")
		}
	}()

	repo, err := sweep.NewRepository(resultsDB.Conn(), log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize sweep repository")
	}
	cache := sweep.NewCache(resultsDB.Conn(), log)

	pool := workers.NewPool(cfg.Workers)

	searcher := partition.NewSearcher(partition.SearchConfig{
		Policy:             partition.Policy(cfg.PartitionPolicy),
		MaxExhaustiveModes: cfg.MaxExhaustiveModes,
	}, pool, log)

	phiService := phi.NewService(searcher, cfg.PhiSampleEvery, log)
	sweepService := sweep.NewService(phiService, repo, cache, pool, log)

	srv := server.New(server.Config{
		Log:          log,
		Config:       cfg,
		ResultsDB:    resultsDB,
		PhiService:   phiService,
		SweepService: sweepService,
		Port:         cfg.Port,
		DevMode:      cfg.DevMode,
	})

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		log.Fatal().Err(err).Msg("HTTP server failed")
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	log.Info().Msg("Shutdown complete")
}
