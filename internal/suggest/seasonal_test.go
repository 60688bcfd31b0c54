// Plantry - Grocery Intelligence for Forgetful Households
// Copyright 2026 Plantry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plantryhq/plantry

package suggest

import (
	"testing"
	"time"
)

func TestSeasonForMonth(t *testing.T) {
	tests := []struct {
		month time.Month
		want  Season
	}{
		{time.January, SeasonWinter},
		{time.February, SeasonWinter},
		{time.March, SeasonSummer},
		{time.June, SeasonSummer},
		{time.July, SeasonMonsoon},
		{time.October, SeasonMonsoon},
		{time.November, SeasonWinter},
		{time.December, SeasonWinter},
	}

	for _, tt := range tests {
		if got := SeasonForMonth(tt.month); got != tt.want {
			t.Errorf("SeasonForMonth(%v) = %v, want %v", tt.month, got, tt.want)
		}
	}
}

func TestDefaultSeasonalPriorsCoverAllSeasons(t *testing.T) {
	priors := DefaultSeasonalPriors()
	for _, season := range []Season{SeasonSummer, SeasonMonsoon, SeasonWinter} {
		if len(priors[season]) == 0 {
			t.Errorf("no priors for season %v", season)
		}
		for item, prior := range priors[season] {
			if prior <= 0 || prior >= 1 {
				t.Errorf("prior for %s/%s = %v, want inside (0,1)", season, item, prior)
			}
		}
	}
}
