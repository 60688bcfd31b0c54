// Plantry - Grocery Intelligence for Forgetful Households
// Copyright 2026 Plantry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plantryhq/plantry

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/plantryhq/plantry/internal/models"
)

const modelKeyPrefix = "model:"

// ErrModelNotFound is returned when a household has no trained model of the
// requested kind. Callers treat this as "untrained", not as a failure.
var ErrModelNotFound = errors.New("model not found")

// ModelStore persists trained model documents. Each write replaces the whole
// document atomically; readers never observe a partially updated model.
type ModelStore struct {
	db *badger.DB
}

// NewModelStore creates a model store on the shared database.
func NewModelStore(db *badger.DB) *ModelStore {
	return &ModelStore{db: db}
}

func modelKey(kind models.ModelKind, householdID string) []byte {
	return []byte(modelKeyPrefix + string(kind) + ":" + householdID)
}

// SaveModel stores the model document for one household, replacing any
// previous version.
func (s *ModelStore) SaveModel(ctx context.Context, kind models.ModelKind, householdID string, model interface{}) error {
	data, err := json.Marshal(model)
	if err != nil {
		return fmt.Errorf("marshal %s model: %w", kind, err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(modelKey(kind, householdID), data)
	})
	if err != nil {
		return fmt.Errorf("save %s model: %w", kind, err)
	}
	return nil
}

// LoadModel reads the model document for one household into out. Returns
// ErrModelNotFound when the household was never trained for this kind.
func (s *ModelStore) LoadModel(ctx context.Context, kind models.ModelKind, householdID string, out interface{}) error {
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(modelKey(kind, householdID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrModelNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, out)
		})
	})
	if err != nil {
		if errors.Is(err, ErrModelNotFound) {
			return err
		}
		return fmt.Errorf("load %s model: %w", kind, err)
	}
	return nil
}

// DeleteModels removes all trained models for one household. Used by the
// data-erasure endpoint.
func (s *ModelStore) DeleteModels(ctx context.Context, householdID string) error {
	kinds := []models.ModelKind{models.ModelAssociations, models.ModelForgetfulness, models.ModelTemporal}
	return s.db.Update(func(txn *badger.Txn) error {
		for _, kind := range kinds {
			err := txn.Delete(modelKey(kind, householdID))
			if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("delete %s model: %w", kind, err)
			}
		}
		return nil
	})
}
