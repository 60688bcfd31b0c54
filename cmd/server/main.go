// Plantry - Grocery Intelligence for Forgetful Households
// Copyright 2026 Plantry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plantryhq/plantry

// Command server runs the Plantry API: grocery suggestion inference,
// shopping history capture, feedback, and the background training jobs.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/plantryhq/plantry/internal/api"
	"github.com/plantryhq/plantry/internal/config"
	"github.com/plantryhq/plantry/internal/export"
	"github.com/plantryhq/plantry/internal/jobs"
	"github.com/plantryhq/plantry/internal/logging"
	"github.com/plantryhq/plantry/internal/mining"
	"github.com/plantryhq/plantry/internal/parse"
	"github.com/plantryhq/plantry/internal/store"
	"github.com/plantryhq/plantry/internal/suggest"
)

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("server exited")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	log := logging.With().Str("component", "server").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := store.Open(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Err(err).Msg("closing store")
		}
	}()

	transactions := store.NewTransactionStore(db)
	modelStore := store.NewModelStore(db)
	feedback := store.NewFeedbackStore(db,
		cfg.Suggest.RejectTTL, cfg.Suggest.PenaltyBase, cfg.Suggest.PenaltyFloor)

	trainer := mining.NewTrainer(transactions, modelStore, cfg.Mining)
	engine := suggest.NewEngine(modelStore, feedback, cfg.Suggest, nil)
	parser := parse.NewService(cfg.Parse)

	handler := api.NewHandler(db, transactions, modelStore, feedback, engine, trainer, parser)
	router := api.NewRouter(cfg.Server, handler)

	supervisor := jobs.NewSupervisor()
	if cfg.Training.Enabled {
		supervisor.Add(jobs.NewTrainingService(trainer, cfg.Training))
	}
	if cfg.Cleanup.Enabled {
		supervisor.Add(jobs.NewCleanupService(feedback, cfg.Cleanup))
	}
	if cfg.Storage.Path != "" {
		supervisor.Add(jobs.NewGCService(db, cfg.Storage.GCInterval))
	}
	if cfg.Export.Enabled {
		exporter, err := export.NewExporter(ctx, transactions, cfg.Export)
		if err != nil {
			return fmt.Errorf("init exporter: %w", err)
		}
		supervisor.Add(jobs.NewExportService(exporter, cfg.Export))
	}
	supervisorErr := supervisor.ServeBackground(ctx)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  2 * cfg.Server.Timeout,
	}

	go func() {
		<-ctx.Done()
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Err(err).Msg("http shutdown")
		}
	}()

	log.Info().Str("addr", addr).Str("storage", cfg.Storage.Path).Msg("plantry listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	if err := <-supervisorErr; err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("supervisor: %w", err)
	}
	return nil
}
