// Plantry - Grocery Intelligence for Forgetful Households
// Copyright 2026 Plantry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plantryhq/plantry

package mining

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/plantryhq/plantry/internal/config"
	"github.com/plantryhq/plantry/internal/logging"
	"github.com/plantryhq/plantry/internal/metrics"
	"github.com/plantryhq/plantry/internal/models"
	"github.com/plantryhq/plantry/internal/store"
)

// Trainer runs the full training pipeline for households: load history,
// build the three models, persist them atomically per document.
type Trainer struct {
	transactions *store.TransactionStore
	modelStore   *store.ModelStore
	cfg          config.MiningConfig
	log          zerolog.Logger

	// now is swappable for deterministic tests.
	now func() time.Time
}

// TrainStats summarizes one household's training pass.
type TrainStats struct {
	HouseholdID   string        `json:"household_id"`
	Events        int           `json:"events"`
	Reports       int           `json:"reports"`
	Rules         int           `json:"rules"`
	ForgetScores  int           `json:"forget_scores"`
	TemporalItems int           `json:"temporal_items"`
	Duration      time.Duration `json:"-"`
	DurationMS    int64         `json:"duration_ms"`
}

// NewTrainer creates a trainer over the given stores.
func NewTrainer(transactions *store.TransactionStore, modelStore *store.ModelStore, cfg config.MiningConfig) *Trainer {
	return &Trainer{
		transactions: transactions,
		modelStore:   modelStore,
		cfg:          cfg,
		log:          logging.With().Str("component", "trainer").Logger(),
		now:          time.Now,
	}
}

// Train rebuilds all three models for one household. A household with no
// history (or fewer events than the configured floor) gets empty models,
// not an error: downstream inference treats empty and missing alike.
func (t *Trainer) Train(ctx context.Context, householdID string) (TrainStats, error) {
	start := t.now()
	stats := TrainStats{HouseholdID: householdID}

	events, err := t.transactions.ListShoppingEvents(ctx, householdID)
	if err != nil {
		return stats, fmt.Errorf("load events: %w", err)
	}
	reports, err := t.transactions.ListForgottenReports(ctx, householdID)
	if err != nil {
		return stats, fmt.Errorf("load forgotten reports: %w", err)
	}
	stats.Events = len(events)
	stats.Reports = len(reports)

	if len(events) < t.cfg.MinEvents {
		events = nil
		reports = nil
	}

	now := t.now()
	associations := BuildAssociations(events, AssociationConfig{
		MinSupport:    t.cfg.MinSupport,
		MinConfidence: t.cfg.MinConfidence,
	}, now)
	forgetfulness := BuildForgetfulness(events, reports, ForgetConfig{
		Alpha: t.cfg.ForgetAlpha,
		Beta:  t.cfg.ForgetBeta,
	}, now)
	temporal := BuildTemporal(events, now)

	if err := t.modelStore.SaveModel(ctx, models.ModelAssociations, householdID, associations); err != nil {
		return stats, err
	}
	if err := t.modelStore.SaveModel(ctx, models.ModelForgetfulness, householdID, forgetfulness); err != nil {
		return stats, err
	}
	if err := t.modelStore.SaveModel(ctx, models.ModelTemporal, householdID, temporal); err != nil {
		return stats, err
	}

	stats.Rules = countRules(associations)
	stats.ForgetScores = len(forgetfulness.Scores)
	stats.TemporalItems = len(temporal.Items)
	stats.Duration = t.now().Sub(start)
	stats.DurationMS = stats.Duration.Milliseconds()

	metrics.RecordTraining(stats.Duration)

	t.log.Info().
		Str("household", householdID).
		Int("events", stats.Events).
		Int("rules", stats.Rules).
		Int("forget_scores", stats.ForgetScores).
		Int("temporal_items", stats.TemporalItems).
		Dur("duration", stats.Duration).
		Msg("training complete")

	return stats, nil
}

// TrainAll retrains every household that has history. Failures on one
// household are logged and do not stop the sweep.
func (t *Trainer) TrainAll(ctx context.Context) (int, error) {
	households, err := t.transactions.ListHouseholds(ctx)
	if err != nil {
		return 0, fmt.Errorf("list households: %w", err)
	}

	trained := 0
	for _, household := range households {
		if ctx.Err() != nil {
			return trained, ctx.Err()
		}
		if _, err := t.Train(ctx, household); err != nil {
			t.log.Err(err).Str("household", household).Msg("training failed")
			continue
		}
		trained++
	}
	return trained, nil
}

func countRules(model models.AssociationModel) int {
	n := 0
	for _, rules := range model.Rules {
		n += len(rules)
	}
	return n
}
