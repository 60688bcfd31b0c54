// Plantry - Grocery Intelligence for Forgetful Households
// Copyright 2026 Plantry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plantryhq/plantry

// Package mining builds the three per-household model documents from the
// raw shopping history: association rules, forget probabilities, and
// temporal purchase profiles. All builders are pure functions of their
// inputs and the training instant, so retraining on unchanged history is
// idempotent.
package mining

import (
	"math"
	"sort"
	"time"

	"github.com/plantryhq/plantry/internal/models"
)

// AssociationConfig holds the rule retention thresholds.
type AssociationConfig struct {
	// MinSupport is the joint-frequency floor: pairs appearing in fewer
	// than this fraction of trips are discarded.
	MinSupport float64

	// MinConfidence is the conditional-probability floor.
	MinConfidence float64
}

// BuildAssociations mines directional co-purchase rules a→b from the trip
// history.
//
// For each ordered pair of items that ever co-occurred on a trip:
//
//	support    = |trips containing both| / |trips|
//	confidence = |trips containing both| / |trips containing a|
//	lift       = confidence / (|trips containing b| / |trips|)
//
// A rule survives only when both support and confidence clear their floors.
// Confidence and support are rounded to three decimals, lift to two, before
// thresholding, so stored and compared values agree. Consequents per
// antecedent are ordered by confidence descending, then item name, which
// makes the output deterministic.
func BuildAssociations(events []models.ShoppingEvent, cfg AssociationConfig, now time.Time) models.AssociationModel {
	model := models.AssociationModel{
		GeneratedAt: now,
		Rules:       make(map[string][]models.AssociationRule),
	}

	totalTrips := len(events)
	if totalTrips == 0 {
		return model
	}

	// Count per-item and per-ordered-pair trip occurrences. Events are
	// de-duplicated here rather than trusting the store, so a repeated
	// item can never double-count a pair.
	itemTrips := make(map[string]int)
	pairTrips := make(map[string]map[string]int)

	for _, event := range events {
		items := uniqueItems(event.Items)
		for _, item := range items {
			itemTrips[item]++
		}
		for i := 0; i < len(items); i++ {
			for j := 0; j < len(items); j++ {
				if i == j {
					continue
				}
				a, b := items[i], items[j]
				if pairTrips[a] == nil {
					pairTrips[a] = make(map[string]int)
				}
				pairTrips[a][b]++
			}
		}
	}

	total := float64(totalTrips)
	for antecedent, consequents := range pairTrips {
		var rules []models.AssociationRule
		for consequent, both := range consequents {
			support := round3(float64(both) / total)
			confidence := round3(float64(both) / float64(itemTrips[antecedent]))
			if support < cfg.MinSupport || confidence < cfg.MinConfidence {
				continue
			}
			lift := round2(confidence / (float64(itemTrips[consequent]) / total))
			rules = append(rules, models.AssociationRule{
				Item:       consequent,
				Confidence: confidence,
				Support:    support,
				Lift:       lift,
			})
		}
		if len(rules) == 0 {
			continue
		}
		sort.Slice(rules, func(i, j int) bool {
			if rules[i].Confidence != rules[j].Confidence {
				return rules[i].Confidence > rules[j].Confidence
			}
			return rules[i].Item < rules[j].Item
		})
		model.Rules[antecedent] = rules
	}

	return model
}

// uniqueItems drops repeated items from one event, preserving order.
func uniqueItems(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if _, dup := seen[item]; dup {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
