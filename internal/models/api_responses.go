// Plantry - Grocery Intelligence for Forgetful Households
// Copyright 2026 Plantry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plantryhq/plantry

package models

import "time"

// APIResponse is the uniform envelope for all API responses.
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata contains response metadata for observability.
//
// Fields:
//   - Timestamp: server time when the response was generated
//   - QueryTimeMS: handler execution time in milliseconds
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
}

// APIError carries a machine-readable code and a human-readable message.
// Internal store or parsing failures are never surfaced verbatim; handlers
// translate them into generic messages with a stable code.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// SuggestRequest is the body of POST /api/v1/suggestions/infer.
type SuggestRequest struct {
	HouseholdID string   `json:"householdId" validate:"required"`
	CurrentList []string `json:"currentList" validate:"required"`
}

// SuggestResponse is the body of a successful suggestion inference.
// An untrained household yields an empty (non-nil) slice, never an error.
type SuggestResponse struct {
	Suggestions []Suggestion `json:"suggestions"`
}

// CompleteTripRequest is the body of POST /api/v1/shopping/complete.
type CompleteTripRequest struct {
	HouseholdID string   `json:"householdId" validate:"required"`
	Items       []string `json:"items" validate:"required,min=1"`
	Source      string   `json:"source,omitempty"`
}

// ForgottenRequest is the body of POST /api/v1/forgotten/add.
type ForgottenRequest struct {
	HouseholdID     string   `json:"householdId" validate:"required"`
	ShoppingEventID string   `json:"shoppingEventId" validate:"required"`
	Items           []string `json:"items" validate:"required,min=1"`
}

// FeedbackRequest is the body of POST /api/v1/feedback.
type FeedbackRequest struct {
	HouseholdID string `json:"householdId" validate:"required"`
	Item        string `json:"item" validate:"required"`
	Action      string `json:"action" validate:"required,oneof=block reject penalize"`
}

// ParseRequest is the body of POST /api/v1/items/parse.
type ParseRequest struct {
	RawInput string `json:"rawInput" validate:"required"`
}

// ParseResponse carries the extracted item names.
type ParseResponse struct {
	Items []string `json:"items"`
}

// ActivityEvent is one history entry: a trip with its forgotten items merged in.
type ActivityEvent struct {
	ID        string    `json:"id"`
	Date      time.Time `json:"date"`
	Items     []string  `json:"items"`
	Forgotten []string  `json:"forgotten"`
}

// ActivitySummary is the compact dashboard view of a recent trip.
type ActivitySummary struct {
	ID        string    `json:"id"`
	Date      time.Time `json:"date"`
	ItemCount int       `json:"item_count"`
}

// HouseholdInsights aggregates the trained models into dashboard facts.
type HouseholdInsights struct {
	Rhythm    *RhythmInsight     `json:"rhythm"`
	Forgotten []ForgottenInsight `json:"forgotten"`
	Pairs     [][2]string        `json:"pairs"`
}

// RhythmInsight is the shopping-rhythm proxy derived from the strongest
// temporal profile.
type RhythmInsight struct {
	AvgDaysBetweenTrips int    `json:"avg_days_between_trips"`
	Cadence             string `json:"cadence"`
}

// ForgottenInsight is one frequently-forgotten item for the dashboard.
type ForgottenInsight struct {
	Name     string `json:"name"`
	Percent  int    `json:"percent"`
	Evidence int    `json:"evidence"`
}

// FactInsight is one conversational fact about the household's habits,
// derived from the temporal or forgetfulness model.
type FactInsight struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// FactResponse wraps the optional fact. Null means the models hold nothing
// noteworthy yet, which is not an error.
type FactResponse struct {
	Fact *FactInsight `json:"fact"`
}
