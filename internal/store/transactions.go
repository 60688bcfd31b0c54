// Plantry - Grocery Intelligence for Forgetful Households
// Copyright 2026 Plantry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plantryhq/plantry

package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/plantryhq/plantry/internal/models"
)

const (
	eventKeyPrefix     = "evt:"
	forgottenKeyPrefix = "fgt:"
)

// TransactionStore persists the append-only shopping history: completed
// trips and forgotten-item reports. Records are immutable once written;
// corrections happen by appending, never by rewriting.
type TransactionStore struct {
	db *badger.DB
}

// NewTransactionStore creates a transaction store on the shared database.
func NewTransactionStore(db *badger.DB) *TransactionStore {
	return &TransactionStore{db: db}
}

// AppendEvent stores a completed shopping trip. The event's ID is generated
// here if empty, and the stored (possibly normalized) event is returned.
func (s *TransactionStore) AppendEvent(ctx context.Context, event models.ShoppingEvent) (models.ShoppingEvent, error) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	event.Items = models.NormalizeItems(event.Items)

	data, err := json.Marshal(event)
	if err != nil {
		return models.ShoppingEvent{}, fmt.Errorf("marshal event: %w", err)
	}

	key := []byte(eventKeyPrefix + event.HouseholdID + ":" + keyTimestamp(event.Date) + ":" + event.ID)
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
	if err != nil {
		return models.ShoppingEvent{}, fmt.Errorf("append event: %w", err)
	}
	return event, nil
}

// AppendForgotten stores forgotten-item reports for one event. Items are
// normalized; duplicates of an item within the same event overwrite the
// prior report, which keeps reporting idempotent.
func (s *TransactionStore) AppendForgotten(ctx context.Context, reports []models.ForgottenReport) error {
	return s.db.Update(func(txn *badger.Txn) error {
		for _, report := range reports {
			report.Item = models.NormalizeItem(report.Item)
			if report.Item == "" {
				continue
			}
			data, err := json.Marshal(report)
			if err != nil {
				return fmt.Errorf("marshal forgotten report: %w", err)
			}
			key := []byte(forgottenKeyPrefix + report.HouseholdID + ":" + report.EventID + ":" + report.Item)
			if err := txn.Set(key, data); err != nil {
				return fmt.Errorf("append forgotten report: %w", err)
			}
		}
		return nil
	})
}

// ListShoppingEvents returns all trips for one household in chronological
// order (the key encoding makes iteration order chronological).
func (s *TransactionStore) ListShoppingEvents(ctx context.Context, householdID string) ([]models.ShoppingEvent, error) {
	var events []models.ShoppingEvent

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(eventKeyPrefix + householdID + ":")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var event models.ShoppingEvent
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &event)
			})
			if err != nil {
				return err
			}
			events = append(events, event)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// ListForgottenReports returns all forgotten-item reports for one household.
func (s *TransactionStore) ListForgottenReports(ctx context.Context, householdID string) ([]models.ForgottenReport, error) {
	var reports []models.ForgottenReport

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(forgottenKeyPrefix + householdID + ":")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var report models.ForgottenReport
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &report)
			})
			if err != nil {
				return err
			}
			reports = append(reports, report)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list forgotten reports: %w", err)
	}
	return reports, nil
}

// ListHouseholds returns every household id that has at least one shopping
// event. Used by the background trainer to enumerate training targets.
func (s *TransactionStore) ListHouseholds(ctx context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	var households []string

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(eventKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := string(it.Item().Key())
			rest := strings.TrimPrefix(key, eventKeyPrefix)
			idx := strings.IndexByte(rest, ':')
			if idx <= 0 {
				continue
			}
			household := rest[:idx]
			if _, dup := seen[household]; dup {
				continue
			}
			seen[household] = struct{}{}
			households = append(households, household)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list households: %w", err)
	}
	return households, nil
}
