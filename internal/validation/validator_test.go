// Plantry - Grocery Intelligence for Forgetful Households
// Copyright 2026 Plantry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plantryhq/plantry

package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type feedbackPayload struct {
	HouseholdID string `validate:"required"`
	Item        string `validate:"required"`
	Action      string `validate:"required,oneof=block reject penalize"`
}

type tripPayload struct {
	HouseholdID string   `validate:"required"`
	Items       []string `validate:"required,min=1"`
}

func TestValidateStructValid(t *testing.T) {
	err := ValidateStruct(&feedbackPayload{
		HouseholdID: "h1",
		Item:        "milk",
		Action:      "block",
	})
	assert.Nil(t, err)
}

func TestValidateStructRequired(t *testing.T) {
	err := ValidateStruct(&feedbackPayload{Item: "milk", Action: "block"})
	require.NotNil(t, err)
	require.Len(t, err.Errors(), 1)
	assert.Equal(t, "HouseholdID", err.Errors()[0].Field())
	assert.Contains(t, err.Error(), "HouseholdID is required")
}

func TestValidateStructOneOf(t *testing.T) {
	err := ValidateStruct(&feedbackPayload{
		HouseholdID: "h1",
		Item:        "milk",
		Action:      "dislike",
	})
	require.NotNil(t, err)
	assert.Contains(t, err.Error(), "must be one of: block reject penalize")
}

func TestValidateStructMultipleFailures(t *testing.T) {
	err := ValidateStruct(&feedbackPayload{})
	require.NotNil(t, err)
	assert.Len(t, err.Errors(), 3)
}

func TestValidateStructEmptySlice(t *testing.T) {
	// An empty non-nil slice passes required but trips the min rule.
	err := ValidateStruct(&tripPayload{HouseholdID: "h1", Items: []string{}})
	require.NotNil(t, err)
	require.Len(t, err.Errors(), 1)
	assert.Equal(t, "min", err.Errors()[0].Tag())
	assert.Contains(t, err.Error(), "Items must contain at least 1 items")
}

func TestValidateStructNilSlice(t *testing.T) {
	err := ValidateStruct(&tripPayload{HouseholdID: "h1"})
	require.NotNil(t, err)
	assert.Contains(t, err.Error(), "Items is required")
}
