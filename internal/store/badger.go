// Plantry - Grocery Intelligence for Forgetful Households
// Copyright 2026 Plantry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plantryhq/plantry

// Package store persists shopping history, trained models, and feedback in
// BadgerDB. Each concern gets its own key prefix and store type sharing one
// *badger.DB:
//
//	evt:{household}:{ts}:{uuid}   shopping events, time-ordered per household
//	fgt:{household}:{event}:{item} forgotten-item reports
//	model:{kind}:{household}       trained model documents, whole-doc JSON
//	fb:{action}:{household}:{item} feedback records
//
// Values are JSON. Timestamps in event keys are zero-padded so the natural
// Badger key order is chronological.
package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/plantryhq/plantry/internal/logging"
	"github.com/plantryhq/plantry/internal/models"
)

// Open opens (or creates) the Badger database at path. An empty path opens
// an in-memory database, used by tests.
func Open(path string) (*badger.DB, error) {
	var opts badger.Options
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(path)
	}

	// Badger's own logger is too chatty; failures surface as errors anyway.
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}

	logging.Info().
		Str("component", "store").
		Str("path", path).
		Bool("in_memory", path == "").
		Msg("store opened")
	return db, nil
}

// RunValueLogGC performs one garbage collection pass over the value log.
// Badger returns ErrNoRewrite when there is nothing to collect; that is not
// an error for callers.
func RunValueLogGC(db *badger.DB) error {
	err := db.RunValueLogGC(0.5)
	if errors.Is(err, badger.ErrNoRewrite) {
		return nil
	}
	return err
}

// keyTimestamp renders t for use inside an event key. Zero-padded unix
// seconds keep keys lexicographically ordered by time.
func keyTimestamp(t time.Time) string {
	return fmt.Sprintf("%012d", t.Unix())
}

// EraseHousehold deletes every record belonging to one household across all
// key prefixes except trained models (ModelStore.DeleteModels handles those).
// Returns the number of keys removed.
func EraseHousehold(db *badger.DB, householdID string) (int, error) {
	prefixes := []string{
		eventKeyPrefix + householdID + ":",
		forgottenKeyPrefix + householdID + ":",
	}
	for _, action := range []models.FeedbackAction{models.FeedbackBlock, models.FeedbackReject, models.FeedbackPenalize} {
		prefixes = append(prefixes, feedbackKeyPrefix+string(action)+":"+householdID+":")
	}

	var keys [][]byte
	err := db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for _, p := range prefixes {
			prefix := []byte(p)
			for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
				keys = append(keys, it.Item().KeyCopy(nil))
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scan household keys: %w", err)
	}

	count := 0
	for _, key := range keys {
		err := db.Update(func(txn *badger.Txn) error {
			return txn.Delete(key)
		})
		if err != nil {
			logging.Err(err).Str("component", "store").Str("key", string(key)).Msg("delete household key")
			continue
		}
		count++
	}
	return count, nil
}
