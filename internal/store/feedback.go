// Plantry - Grocery Intelligence for Forgetful Households
// Copyright 2026 Plantry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plantryhq/plantry

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/plantryhq/plantry/internal/logging"
	"github.com/plantryhq/plantry/internal/models"
)

const feedbackKeyPrefix = "fb:"

// FeedbackStore persists user verdicts on suggestions and answers the
// filter queries the suggestion engine runs per request.
//
// Reject expiry is evaluated at read time: an expired record still on disk
// behaves exactly as if deleted. The cleanup sweep only reclaims space.
type FeedbackStore struct {
	db *badger.DB

	// rejectTTL is how long a reject verdict suppresses an item.
	rejectTTL time.Duration

	// penaltyBase multiplies into the factor on each penalize verdict;
	// penaltyFloor is the lowest the factor can compound down to.
	penaltyBase  float64
	penaltyFloor float64
}

// NewFeedbackStore creates a feedback store on the shared database.
func NewFeedbackStore(db *badger.DB, rejectTTL time.Duration, penaltyBase, penaltyFloor float64) *FeedbackStore {
	return &FeedbackStore{
		db:           db,
		rejectTTL:    rejectTTL,
		penaltyBase:  penaltyBase,
		penaltyFloor: penaltyFloor,
	}
}

func feedbackKey(action models.FeedbackAction, householdID, item string) []byte {
	return []byte(feedbackKeyPrefix + string(action) + ":" + householdID + ":" + item)
}

// Record applies one feedback verdict.
//
//   - block is permanent and idempotent: recording twice is a no-op.
//   - reject stores an expiry of now+TTL; re-rejecting refreshes it.
//   - penalize compounds the stored factor by the base, floored; the first
//     penalize writes the base factor directly.
func (s *FeedbackStore) Record(ctx context.Context, householdID, item string, action models.FeedbackAction, now time.Time) error {
	if !action.Valid() {
		return fmt.Errorf("invalid feedback action %q", action)
	}
	item = models.NormalizeItem(item)
	if item == "" {
		return fmt.Errorf("empty item")
	}

	record := models.FeedbackRecord{
		HouseholdID: householdID,
		Item:        item,
		Action:      action,
		CreatedAt:   now,
	}

	return s.db.Update(func(txn *badger.Txn) error {
		key := feedbackKey(action, householdID, item)

		switch action {
		case models.FeedbackBlock:
			_, err := txn.Get(key)
			if err == nil {
				return nil
			}
			if !errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("check block record: %w", err)
			}

		case models.FeedbackReject:
			record.ExpiresAt = now.Add(s.rejectTTL)

		case models.FeedbackPenalize:
			record.PenaltyFactor = s.penaltyBase
			existing, err := readFeedback(txn, key)
			if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("check penalize record: %w", err)
			}
			if err == nil && existing.PenaltyFactor > 0 {
				factor := existing.PenaltyFactor * s.penaltyBase
				if factor < s.penaltyFloor {
					factor = s.penaltyFloor
				}
				record.PenaltyFactor = factor
			}
		}

		data, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshal feedback record: %w", err)
		}
		return txn.Set(key, data)
	})
}

func readFeedback(txn *badger.Txn, key []byte) (models.FeedbackRecord, error) {
	var record models.FeedbackRecord
	item, err := txn.Get(key)
	if err != nil {
		return record, err
	}
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &record)
	})
	return record, err
}

// IsBlocked reports whether the item is permanently blocked.
func (s *FeedbackStore) IsBlocked(ctx context.Context, householdID, item string) (bool, error) {
	_, err := s.getRecord(models.FeedbackBlock, householdID, item)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check block: %w", err)
	}
	return true, nil
}

// IsRejected reports whether the item has a reject record whose window is
// still open at the given instant.
func (s *FeedbackStore) IsRejected(ctx context.Context, householdID, item string, now time.Time) (bool, error) {
	record, err := s.getRecord(models.FeedbackReject, householdID, item)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check reject: %w", err)
	}
	return now.Before(record.ExpiresAt), nil
}

// Penalty returns the score multiplier for the item, 1.0 when no penalize
// record exists.
func (s *FeedbackStore) Penalty(ctx context.Context, householdID, item string) (float64, error) {
	record, err := s.getRecord(models.FeedbackPenalize, householdID, item)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 1.0, nil
	}
	if err != nil {
		return 1.0, fmt.Errorf("get penalty: %w", err)
	}
	if record.PenaltyFactor <= 0 {
		return 1.0, nil
	}
	return record.PenaltyFactor, nil
}

func (s *FeedbackStore) getRecord(action models.FeedbackAction, householdID, item string) (models.FeedbackRecord, error) {
	var record models.FeedbackRecord
	err := s.db.View(func(txn *badger.Txn) error {
		got, err := readFeedback(txn, feedbackKey(action, householdID, item))
		if err != nil {
			return err
		}
		record = got
		return nil
	})
	return record, err
}

// CleanupExpiredRejects deletes reject records whose window has closed.
// Returns the number of records removed.
func (s *FeedbackStore) CleanupExpiredRejects(ctx context.Context, now time.Time) (int, error) {
	var expired [][]byte

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(feedbackKeyPrefix + string(models.FeedbackReject) + ":")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			var record models.FeedbackRecord
			err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &record)
			})
			if err != nil {
				return err
			}
			if !now.Before(record.ExpiresAt) {
				expired = append(expired, item.KeyCopy(nil))
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scan expired rejects: %w", err)
	}

	count := 0
	for _, key := range expired {
		err := s.db.Update(func(txn *badger.Txn) error {
			return txn.Delete(key)
		})
		if err != nil {
			logging.Err(err).Str("component", "store").Str("key", string(key)).Msg("delete expired reject")
			continue
		}
		count++
	}
	return count, nil
}
