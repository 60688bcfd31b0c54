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
	"github.com/plantryhq/plantry/internal/metrics"
	"github.com/plantryhq/plantry/internal/store"
)

// CleanupService sweeps expired reject feedback out of the store so
// suggestion reads never accumulate stale windows.
type CleanupService struct {
	feedback *store.FeedbackStore
	interval time.Duration
	log      zerolog.Logger
	now      func() time.Time
}

// NewCleanupService builds the periodic feedback sweep.
func NewCleanupService(feedback *store.FeedbackStore, cfg config.CleanupConfig) *CleanupService {
	return &CleanupService{
		feedback: feedback,
		interval: cfg.Interval,
		log:      logging.With().Str("component", "jobs.cleanup").Logger(),
		now:      time.Now,
	}
}

// Serve runs the sweep loop until the context is canceled.
func (s *CleanupService) Serve(ctx context.Context) error {
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

func (s *CleanupService) runOnce(ctx context.Context) {
	removed, err := s.feedback.CleanupExpiredRejects(ctx, s.now())
	if err != nil {
		s.log.Error().Err(err).Msg("reject cleanup failed")
		return
	}
	if removed > 0 {
		metrics.RejectsCleaned.Add(float64(removed))
		s.log.Info().Int("removed", removed).Msg("expired rejects cleaned")
	}
}

func (s *CleanupService) String() string { return "cleanup" }
