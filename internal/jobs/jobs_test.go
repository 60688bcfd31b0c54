// Plantry - Grocery Intelligence for Forgetful Households
// Copyright 2026 Plantry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plantryhq/plantry

package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plantryhq/plantry/internal/config"
	"github.com/plantryhq/plantry/internal/metrics"
	"github.com/plantryhq/plantry/internal/mining"
	"github.com/plantryhq/plantry/internal/models"
	"github.com/plantryhq/plantry/internal/store"
)

type testStores struct {
	db           *badger.DB
	transactions *store.TransactionStore
	modelStore   *store.ModelStore
	feedback     *store.FeedbackStore
}

func newTestStores(t *testing.T) *testStores {
	t.Helper()
	db, err := store.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return &testStores{
		db:           db,
		transactions: store.NewTransactionStore(db),
		modelStore:   store.NewModelStore(db),
		feedback:     store.NewFeedbackStore(db, 7*24*time.Hour, 0.85, 0.3),
	}
}

func TestTrainingServiceRunsOnStartup(t *testing.T) {
	s := newTestStores(t)
	ctx := context.Background()

	_, err := s.transactions.AppendEvent(ctx, models.ShoppingEvent{
		HouseholdID: "h1",
		Items:       []string{"milk", "bread"},
		Date:        time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	trainer := mining.NewTrainer(s.transactions, s.modelStore, config.MiningConfig{
		MinSupport:    0.05,
		MinConfidence: 0.35,
		ForgetAlpha:   1,
		ForgetBeta:    2,
		MinEvents:     1,
	})
	svc := NewTrainingService(trainer, config.TrainingConfig{
		Interval:  time.Hour,
		OnStartup: true,
	})

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- svc.Serve(runCtx) }()

	// The startup pass runs before the first tick; the model appears
	// well before the hour-long interval fires.
	require.Eventually(t, func() bool {
		var model models.AssociationModel
		return s.modelStore.LoadModel(ctx, models.ModelAssociations, "h1", &model) == nil
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestCleanupServiceSweepsExpiredRejects(t *testing.T) {
	s := newTestStores(t)
	ctx := context.Background()

	past := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.feedback.Record(ctx, "h1", "okra", models.FeedbackReject, past))

	svc := NewCleanupService(s.feedback, config.CleanupConfig{Interval: 20 * time.Millisecond})
	// The reject from January is long past its window by now.
	svc.now = func() time.Time { return past.Add(30 * 24 * time.Hour) }

	cleanedBefore := testutil.ToFloat64(metrics.RejectsCleaned)

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- svc.Serve(runCtx) }()

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(metrics.RejectsCleaned) >= cleanedBefore+1
	}, 2*time.Second, 10*time.Millisecond)

	removed, err := s.feedback.CleanupExpiredRejects(ctx, svc.now())
	require.NoError(t, err)
	assert.Zero(t, removed)

	cancel()
	require.True(t, errors.Is(<-done, context.Canceled))
}

func TestServicesStopOnCancel(t *testing.T) {
	s := newTestStores(t)

	gc := NewGCService(s.db, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- gc.Serve(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("gc service did not stop on cancel")
	}
}
