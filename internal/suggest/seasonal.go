// Plantry - Grocery Intelligence for Forgetful Households
// Copyright 2026 Plantry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plantryhq/plantry

package suggest

import "time"

// Season labels the three fixed seasonal windows the prior table keys on.
type Season string

const (
	SeasonSummer  Season = "summer"
	SeasonMonsoon Season = "monsoon"
	SeasonWinter  Season = "winter"
)

// SeasonForMonth maps a calendar month onto its season: March through June
// is summer, July through October is monsoon, the rest is winter.
func SeasonForMonth(m time.Month) Season {
	switch {
	case m >= time.March && m <= time.June:
		return SeasonSummer
	case m >= time.July && m <= time.October:
		return SeasonMonsoon
	default:
		return SeasonWinter
	}
}

// DefaultSeasonalPriors is the built-in prior table: per season, items a
// household plausibly wants regardless of its own history, with floor
// scores. Priors act as score floors during fusion, never as stacked
// evidence, and every prior of the current season is applied so the
// injection stays deterministic.
func DefaultSeasonalPriors() map[Season]map[string]float64 {
	return map[Season]map[string]float64{
		SeasonSummer: {
			"mango":      0.45,
			"watermelon": 0.4,
			"lemonade":   0.35,
			"curd":       0.35,
			"cucumber":   0.3,
		},
		SeasonMonsoon: {
			"ginger":     0.4,
			"tea":        0.4,
			"corn":       0.35,
			"pakora mix": 0.3,
			"honey":      0.3,
		},
		SeasonWinter: {
			"carrot":       0.4,
			"orange":       0.4,
			"jaggery":      0.35,
			"peanuts":      0.3,
			"sweet potato": 0.3,
		},
	}
}
