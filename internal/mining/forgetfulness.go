// Plantry - Grocery Intelligence for Forgetful Households
// Copyright 2026 Plantry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plantryhq/plantry

package mining

import (
	"time"

	"github.com/plantryhq/plantry/internal/models"
)

// ForgetConfig holds the Beta-prior pseudo-counts for the forget estimate.
type ForgetConfig struct {
	Alpha float64
	Beta  float64
}

// BuildForgetfulness estimates, per item, the probability the household
// forgets it on a trip, from forgotten-item reports smoothed with a
// Beta(alpha, beta) prior:
//
//	p = (misses + alpha) / (exposure + alpha + beta)
//
// exposure is the number of trips the item appeared on, guarded so it can
// never undercut the miss count (a report may reference a trip whose list
// never contained the item). The smoothing keeps p strictly inside (0,1);
// after rounding to three decimals it is clamped to [0.001, 0.999] so the
// stored value stays strictly inside as well.
//
// Only items with at least one report get an entry. Consumers apply their
// own minimum-evidence gate on EvidenceCount; the model records everything.
func BuildForgetfulness(events []models.ShoppingEvent, reports []models.ForgottenReport, cfg ForgetConfig, now time.Time) models.ForgetfulnessModel {
	model := models.ForgetfulnessModel{
		GeneratedAt: now,
		Scores:      make(map[string]models.ForgetScore),
	}
	if len(reports) == 0 {
		return model
	}

	misses := make(map[string]int)
	for _, report := range reports {
		misses[report.Item]++
	}

	appearances := make(map[string]int)
	for _, event := range events {
		for _, item := range event.Items {
			appearances[item]++
		}
	}

	for item, miss := range misses {
		exposure := appearances[item]
		if exposure < miss {
			exposure = miss
		}

		p := (float64(miss) + cfg.Alpha) / (float64(exposure) + cfg.Alpha + cfg.Beta)
		p = round3(p)
		if p < 0.001 {
			p = 0.001
		}
		if p > 0.999 {
			p = 0.999
		}

		model.Scores[item] = models.ForgetScore{
			ForgetProbability: p,
			EvidenceCount:     miss,
			ExposureCount:     exposure,
		}
	}

	return model
}
