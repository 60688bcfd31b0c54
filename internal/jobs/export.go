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
	"github.com/plantryhq/plantry/internal/export"
	"github.com/plantryhq/plantry/internal/logging"
)

// ExportService ships the analytics tables on a fixed interval.
type ExportService struct {
	exporter *export.Exporter
	interval time.Duration
	log      zerolog.Logger
}

// NewExportService builds the periodic analytics export job.
func NewExportService(exporter *export.Exporter, cfg config.ExportConfig) *ExportService {
	return &ExportService{
		exporter: exporter,
		interval: cfg.Interval,
		log:      logging.With().Str("component", "jobs.export").Logger(),
	}
}

// Serve runs the export loop until the context is canceled.
func (s *ExportService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.exporter.Run(ctx); err != nil {
				s.log.Error().Err(err).Msg("analytics export failed")
			}
		}
	}
}

func (s *ExportService) String() string { return "export" }
