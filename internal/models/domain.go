// Plantry - Grocery Intelligence for Forgetful Households
// Copyright 2026 Plantry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plantryhq/plantry

// Package models defines the shared domain types: shopping history records,
// trained model artifacts, feedback records, and suggestions. Types here have
// no behavior beyond normalization helpers so every other package can depend
// on them without import cycles.
package models

import (
	"strings"
	"time"
)

// ModelKind identifies one of the three trained model documents.
type ModelKind string

const (
	// ModelAssociations is the pairwise co-purchase rule table.
	ModelAssociations ModelKind = "associations"
	// ModelForgetfulness is the per-item forget probability table.
	ModelForgetfulness ModelKind = "forgetfulness"
	// ModelTemporal is the per-item purchase cadence table.
	ModelTemporal ModelKind = "temporal"
)

// ShoppingEvent is one completed shopping trip. Immutable once written.
type ShoppingEvent struct {
	// ID is a generated unique identifier for the event.
	ID string `json:"id"`

	// HouseholdID scopes the event; models are trained per household.
	HouseholdID string `json:"household_id"`

	// Items is the ordered, de-duplicated, normalized item list.
	Items []string `json:"items"`

	// Date is when the trip completed.
	Date time.Time `json:"date"`

	// Source tags how the event was captured (manual, online, import).
	Source string `json:"source"`
}

// ForgottenReport records one item the user forgot on a given trip.
// It references its ShoppingEvent softly: deleting the event does not
// cascade, and training tolerates dangling event ids.
type ForgottenReport struct {
	HouseholdID string    `json:"household_id"`
	EventID     string    `json:"event_id"`
	Item        string    `json:"item"`
	Date        time.Time `json:"date"`
}

// AssociationRule is one directional co-purchase rule a→b. Rules with the
// same antecedent are stored together, strongest confidence first.
type AssociationRule struct {
	// Item is the consequent b of the rule.
	Item string `json:"item"`

	// Confidence is P(b | a) over the household's trips, in [0,1].
	Confidence float64 `json:"confidence"`

	// Support is the joint frequency of {a,b} over all trips, in [0,1].
	Support float64 `json:"support"`

	// Lift is confidence divided by the marginal frequency of b.
	Lift float64 `json:"lift"`
}

// AssociationModel is the full rule table keyed by antecedent item.
type AssociationModel struct {
	GeneratedAt time.Time                    `json:"generated_at"`
	Rules       map[string][]AssociationRule `json:"rules"`
}

// ForgetScore is the smoothed forget probability for one item.
type ForgetScore struct {
	// ForgetProbability is the Bayesian-smoothed estimate, strictly
	// inside (0,1) regardless of evidence.
	ForgetProbability float64 `json:"forget_probability"`

	// EvidenceCount is the raw number of forgotten reports, used by
	// consumers as a minimum-sample gate.
	EvidenceCount int `json:"evidence_count"`

	// ExposureCount is how many trips the item appeared on, after the
	// guard that exposure can never undercut the forgotten count.
	ExposureCount int `json:"exposure_count"`
}

// ForgetfulnessModel maps item name to its forget score.
type ForgetfulnessModel struct {
	GeneratedAt time.Time              `json:"generated_at"`
	Scores      map[string]ForgetScore `json:"scores"`
}

// PatternLabel classifies an item's purchase cadence.
type PatternLabel string

const (
	PatternFrequent   PatternLabel = "frequent"
	PatternOccasional PatternLabel = "occasional"
	PatternMonthly    PatternLabel = "monthly"
	PatternBiMonthly  PatternLabel = "bi_monthly"
	PatternIrregular  PatternLabel = "irregular"
)

// TemporalProfile is the cadence model for one item. It carries both views
// of the same underlying gap data: the discrete pattern/confidence pair and
// the continuous urgency signal.
type TemporalProfile struct {
	// AvgGapDays is the mean of consecutive purchase-date deltas. Always > 0.
	AvgGapDays float64 `json:"avg_gap_days"`

	// DaysSinceLast is the age of the most recent purchase at training time.
	DaysSinceLast float64 `json:"days_since_last"`

	// Urgency is a logistic overdue signal in [0,1]: ~0.5 on schedule,
	// →1 overdue, →0 just bought.
	Urgency float64 `json:"urgency"`

	// Confidence grows with sample size, capping at 12 observations.
	Confidence float64 `json:"confidence"`

	// Pattern is the discrete cadence class derived from AvgGapDays.
	Pattern PatternLabel `json:"pattern"`
}

// TemporalModel maps item name to its temporal profile.
type TemporalModel struct {
	GeneratedAt time.Time                  `json:"generated_at"`
	Items       map[string]TemporalProfile `json:"items"`
}

// FeedbackAction is a user verdict on a suggested item.
type FeedbackAction string

const (
	// FeedbackBlock suppresses the item permanently.
	FeedbackBlock FeedbackAction = "block"
	// FeedbackReject suppresses the item for a bounded window.
	FeedbackReject FeedbackAction = "reject"
	// FeedbackPenalize multiplies the item's score down without hiding it.
	FeedbackPenalize FeedbackAction = "penalize"
)

// Valid reports whether the action is one of the known feedback verbs.
func (a FeedbackAction) Valid() bool {
	switch a {
	case FeedbackBlock, FeedbackReject, FeedbackPenalize:
		return true
	}
	return false
}

// FeedbackRecord is the persisted state for one household+item+action.
type FeedbackRecord struct {
	HouseholdID string         `json:"household_id"`
	Item        string         `json:"item"`
	Action      FeedbackAction `json:"action"`
	CreatedAt   time.Time      `json:"created_at"`

	// ExpiresAt is set for reject records only; expiry is evaluated at
	// read time, so a lingering record past this point is inert.
	ExpiresAt time.Time `json:"expires_at,omitempty"`

	// PenaltyFactor is the running multiplier for penalize records,
	// in [0.3, 1.0].
	PenaltyFactor float64 `json:"penalty_factor,omitempty"`
}

// SuggestionType labels which signal family produced a suggestion.
type SuggestionType string

const (
	SuggestionFrequent  SuggestionType = "frequent"
	SuggestionForgotten SuggestionType = "forgotten"
	SuggestionSeasonal  SuggestionType = "seasonal"
)

// ConfidenceBucket coarsens a fused score for display.
type ConfidenceBucket string

const (
	ConfidenceHigh   ConfidenceBucket = "high"
	ConfidenceMedium ConfidenceBucket = "medium"
	ConfidenceLow    ConfidenceBucket = "low"
)

// BucketForScore maps a final fused score onto a confidence bucket.
func BucketForScore(score float64) ConfidenceBucket {
	switch {
	case score >= 0.6:
		return ConfidenceHigh
	case score >= 0.4:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// Suggestion is one ranked, explained candidate item. Ephemeral: computed
// per request and never persisted.
type Suggestion struct {
	Item       string           `json:"item"`
	Score      float64          `json:"score"`
	Confidence ConfidenceBucket `json:"confidence"`
	Type       SuggestionType   `json:"type"`
	Reason     string           `json:"reason"`
}

// NormalizeItem canonicalizes an item name: case-folded and trimmed.
// All stores and models key items by their normalized form.
func NormalizeItem(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// NormalizeItems normalizes a list, dropping empties and duplicates while
// preserving first-seen order.
func NormalizeItems(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		item := NormalizeItem(r)
		if item == "" {
			continue
		}
		if _, dup := seen[item]; dup {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}
