// Plantry - Grocery Intelligence for Forgetful Households
// Copyright 2026 Plantry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plantryhq/plantry

// Package export aggregates the shopping history into flat analytics
// tables and ships them to Google Sheets, or CSV files when no sheet is
// configured.
package export

import (
	"sort"

	"github.com/plantryhq/plantry/internal/models"
)

// ItemFrequencyRow is one (household, item, day) purchase count.
type ItemFrequencyRow struct {
	HouseholdID string
	Item        string
	Date        string
	Count       int
}

// RhythmRow describes one shopping trip in the household's cadence table.
type RhythmRow struct {
	HouseholdID string
	Date        string
	TotalItems  int
	Source      string
	// DaysGap is days since the household's previous trip, -1 for the
	// first trip on record.
	DaysGap float64
}

// BuildItemFrequency aggregates per-day purchase counts per item. Rows are
// sorted by household, item, date for stable output.
func BuildItemFrequency(events []models.ShoppingEvent) []ItemFrequencyRow {
	type key struct {
		household string
		item      string
		date      string
	}
	counts := make(map[key]int)
	for _, event := range events {
		date := event.Date.UTC().Format("2006-01-02")
		for _, item := range event.Items {
			counts[key{event.HouseholdID, item, date}]++
		}
	}

	rows := make([]ItemFrequencyRow, 0, len(counts))
	for k, count := range counts {
		rows = append(rows, ItemFrequencyRow{
			HouseholdID: k.household,
			Item:        k.item,
			Date:        k.date,
			Count:       count,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].HouseholdID != rows[j].HouseholdID {
			return rows[i].HouseholdID < rows[j].HouseholdID
		}
		if rows[i].Item != rows[j].Item {
			return rows[i].Item < rows[j].Item
		}
		return rows[i].Date < rows[j].Date
	})
	return rows
}

// BuildShoppingRhythm derives per-trip rows with the gap since the
// household's previous trip. Events are grouped per household and walked
// chronologically.
func BuildShoppingRhythm(events []models.ShoppingEvent) []RhythmRow {
	byHousehold := make(map[string][]models.ShoppingEvent)
	for _, event := range events {
		byHousehold[event.HouseholdID] = append(byHousehold[event.HouseholdID], event)
	}

	households := make([]string, 0, len(byHousehold))
	for household := range byHousehold {
		households = append(households, household)
	}
	sort.Strings(households)

	var rows []RhythmRow
	for _, household := range households {
		trips := byHousehold[household]
		sort.Slice(trips, func(i, j int) bool { return trips[i].Date.Before(trips[j].Date) })

		for i, trip := range trips {
			gap := -1.0
			if i > 0 {
				gap = trip.Date.Sub(trips[i-1].Date).Hours() / 24
			}
			source := trip.Source
			if source == "" {
				source = "offline"
			}
			rows = append(rows, RhythmRow{
				HouseholdID: household,
				Date:        trip.Date.UTC().Format("2006-01-02"),
				TotalItems:  len(trip.Items),
				Source:      source,
				DaysGap:     gap,
			})
		}
	}
	return rows
}
