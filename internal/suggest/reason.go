// Plantry - Grocery Intelligence for Forgetful Households
// Copyright 2026 Plantry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plantryhq/plantry

package suggest

import (
	"fmt"

	"github.com/plantryhq/plantry/internal/models"
)

// Signal thresholds feeding reason selection.
const (
	strongAssociation = 0.6
	highForget        = 0.5
	moderateForget    = 0.25
)

// reasonKind is the tagged variant behind reason selection. Variants are
// declared in precedence order: the first applicable one wins.
type reasonKind int

const (
	reasonSeasonalOnly reasonKind = iota
	reasonAssocModerateForget
	reasonAssocHighForget
	reasonForgetModerate
	reasonForgetHigh
	reasonAssociation
	reasonFallback
)

// signals carries the per-candidate evidence the fusion pass accumulated,
// pre-filter and pre-penalty.
type signals struct {
	// maxAssocConfidence is the strongest single rule pointing at the
	// candidate, not the accumulated sum.
	maxAssocConfidence float64

	// forgetProbability is zero unless the evidence gate passed.
	forgetProbability float64

	// seasonalOnly is set when the score came entirely from a prior.
	seasonalOnly bool
}

// classifyReason resolves the variant for one candidate by precedence.
func classifyReason(sig signals) reasonKind {
	strongAssoc := sig.maxAssocConfidence >= strongAssociation
	anyAssoc := sig.maxAssocConfidence > 0

	switch {
	case sig.seasonalOnly:
		return reasonSeasonalOnly
	case strongAssoc && sig.forgetProbability >= moderateForget && sig.forgetProbability < highForget:
		return reasonAssocModerateForget
	case strongAssoc && sig.forgetProbability >= highForget:
		return reasonAssocHighForget
	case sig.forgetProbability >= moderateForget && sig.forgetProbability < highForget:
		return reasonForgetModerate
	case sig.forgetProbability >= highForget:
		return reasonForgetHigh
	case anyAssoc:
		return reasonAssociation
	default:
		return reasonFallback
	}
}

// describe renders the variant into the user-facing reason string and the
// suggestion type bucket.
func (k reasonKind) describe(sig signals) (string, models.SuggestionType) {
	switch k {
	case reasonSeasonalOnly:
		return "In season right now", models.SuggestionSeasonal
	case reasonAssocModerateForget:
		return "Goes with items on your list, and you sometimes forget it", models.SuggestionForgotten
	case reasonAssocHighForget:
		return fmt.Sprintf("Goes with items on your list, and you forget it on %d%% of trips",
			int(sig.forgetProbability*100)), models.SuggestionForgotten
	case reasonForgetModerate:
		return "You sometimes forget this", models.SuggestionForgotten
	case reasonForgetHigh:
		return fmt.Sprintf("You forget this on %d%% of trips",
			int(sig.forgetProbability*100)), models.SuggestionForgotten
	case reasonAssociation:
		return "Often bought together with items on your list", models.SuggestionFrequent
	default:
		return "Based on your shopping history", models.SuggestionFrequent
	}
}
