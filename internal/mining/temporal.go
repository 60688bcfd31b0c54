// Plantry - Grocery Intelligence for Forgetful Households
// Copyright 2026 Plantry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plantryhq/plantry

package mining

import (
	"math"
	"sort"
	"time"

	"github.com/plantryhq/plantry/internal/models"
)

// Cadence class boundaries on the average gap, in days.
const (
	gapFrequent   = 10
	gapOccasional = 25
	gapMonthly    = 35
	gapBiMonthly  = 65
)

// temporalMaxSamples caps the confidence ramp: a year of monthly purchases
// is full confidence.
const temporalMaxSamples = 12

// BuildTemporal derives a purchase-cadence profile per item.
//
// Purchases of an item are collapsed to distinct calendar days; items seen
// on fewer than two days carry no cadence signal and get no profile. The
// average gap between consecutive purchase days drives the discrete
// pattern label, and a logistic curve over the overdue ratio drives the
// continuous urgency signal:
//
//	urgency = 1 / (1 + exp(-(daysSinceLast - avgGap) / avgGap))
//
// An item bought exactly on schedule sits at 0.5, overdue items climb
// toward 1, just-bought items fall toward 0.
func BuildTemporal(events []models.ShoppingEvent, now time.Time) models.TemporalModel {
	model := models.TemporalModel{
		GeneratedAt: now,
		Items:       make(map[string]models.TemporalProfile),
	}

	// item -> distinct purchase days, truncated to UTC midnight
	days := make(map[string]map[time.Time]struct{})
	for _, event := range events {
		day := event.Date.UTC().Truncate(24 * time.Hour)
		for _, item := range event.Items {
			if days[item] == nil {
				days[item] = make(map[time.Time]struct{})
			}
			days[item][day] = struct{}{}
		}
	}

	for item, daySet := range days {
		if len(daySet) < 2 {
			continue
		}

		dates := make([]time.Time, 0, len(daySet))
		for day := range daySet {
			dates = append(dates, day)
		}
		sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

		var gapSum float64
		for i := 1; i < len(dates); i++ {
			gapSum += dates[i].Sub(dates[i-1]).Hours() / 24
		}
		avgGap := gapSum / float64(len(dates)-1)
		if avgGap <= 0 {
			continue
		}

		daysSinceLast := now.UTC().Sub(dates[len(dates)-1]).Hours() / 24
		if daysSinceLast < 0 {
			daysSinceLast = 0
		}

		urgency := 1 / (1 + math.Exp(-(daysSinceLast-avgGap)/avgGap))

		confidence := float64(len(dates)) / temporalMaxSamples
		if confidence > 1 {
			confidence = 1
		}

		model.Items[item] = models.TemporalProfile{
			AvgGapDays:    round2(avgGap),
			DaysSinceLast: round2(daysSinceLast),
			Urgency:       round3(urgency),
			Confidence:    round3(confidence),
			Pattern:       classifyGap(avgGap),
		}
	}

	return model
}

// classifyGap maps an average purchase gap onto a cadence label.
func classifyGap(avgGap float64) models.PatternLabel {
	switch {
	case avgGap < gapFrequent:
		return models.PatternFrequent
	case avgGap < gapOccasional:
		return models.PatternOccasional
	case avgGap < gapMonthly:
		return models.PatternMonthly
	case avgGap < gapBiMonthly:
		return models.PatternBiMonthly
	default:
		return models.PatternIrregular
	}
}
