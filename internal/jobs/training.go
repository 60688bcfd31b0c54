// Plantry - Grocery Intelligence for Forgetful Households
// Copyright 2026 Plantry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plantryhq/plantry

package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/plantryhq/plantry/internal/config"
	"github.com/plantryhq/plantry/internal/logging"
	"github.com/plantryhq/plantry/internal/mining"
)

// TrainingService retrains every household's models on a fixed interval.
type TrainingService struct {
	trainer   *mining.Trainer
	interval  time.Duration
	onStartup bool
	log       zerolog.Logger
}

// NewTrainingService builds the periodic training job.
func NewTrainingService(trainer *mining.Trainer, cfg config.TrainingConfig) *TrainingService {
	return &TrainingService{
		trainer:   trainer,
		interval:  cfg.Interval,
		onStartup: cfg.OnStartup,
		log:       logging.With().Str("component", "jobs.training").Logger(),
	}
}

// Serve runs the training loop until the context is canceled.
func (s *TrainingService) Serve(ctx context.Context) error {
	if s.onStartup {
		s.runOnce(ctx)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *TrainingService) runOnce(ctx context.Context) {
	trained, err := s.trainer.TrainAll(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("scheduled training failed")
		return
	}
	s.log.Info().Int("households", trained).Msg("scheduled training complete")
}

func (s *TrainingService) String() string { return "training" }
