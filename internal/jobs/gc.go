// Plantry - Grocery Intelligence for Forgetful Households
// Copyright 2026 Plantry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plantryhq/plantry

package jobs

import (
	"context"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"

	"github.com/plantryhq/plantry/internal/logging"
	"github.com/plantryhq/plantry/internal/store"
)

// GCService runs Badger value-log garbage collection on an interval.
// On-disk databases only; in-memory stores have no value log.
type GCService struct {
	db       *badger.DB
	interval time.Duration
	log      zerolog.Logger
}

// NewGCService builds the periodic garbage-collection job.
func NewGCService(db *badger.DB, interval time.Duration) *GCService {
	return &GCService{
		db:       db,
		interval: interval,
		log:      logging.With().Str("component", "jobs.gc").Logger(),
	}
}

// Serve runs the GC loop until the context is canceled.
func (s *GCService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := store.RunValueLogGC(s.db); err != nil {
				s.log.Warn().Err(err).Msg("value log gc failed")
			}
		}
	}
}

func (s *GCService) String() string { return "badger-gc" }
