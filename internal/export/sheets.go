// Plantry - Grocery Intelligence for Forgetful Households
// Copyright 2026 Plantry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plantryhq/plantry

package export

import (
	"context"
	"fmt"
	"strconv"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetsWriter writes the analytics tables to a Google Sheets spreadsheet,
// one tab per table, replacing the full range on every export.
type SheetsWriter struct {
	service       *sheets.Service
	spreadsheetID string
}

// NewSheetsWriter creates a writer authenticated with a service-account
// credentials file.
func NewSheetsWriter(ctx context.Context, spreadsheetID, credentialsFile string) (*SheetsWriter, error) {
	service, err := sheets.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &SheetsWriter{service: service, spreadsheetID: spreadsheetID}, nil
}

// WriteItemFrequency replaces the item_frequency tab.
func (w *SheetsWriter) WriteItemFrequency(ctx context.Context, rows []ItemFrequencyRow) error {
	values := [][]interface{}{
		{"household_id", "item", "shopping_date", "count"},
	}
	for _, row := range rows {
		values = append(values, []interface{}{row.HouseholdID, row.Item, row.Date, row.Count})
	}
	return w.update(ctx, "item_frequency!A1", values)
}

// WriteShoppingRhythm replaces the shopping_rhythm tab.
func (w *SheetsWriter) WriteShoppingRhythm(ctx context.Context, rows []RhythmRow) error {
	values := [][]interface{}{
		{"household_id", "shopping_date", "total_items", "source", "days_gap"},
	}
	for _, row := range rows {
		gap := ""
		if row.DaysGap >= 0 {
			gap = strconv.FormatFloat(row.DaysGap, 'f', 1, 64)
		}
		values = append(values, []interface{}{row.HouseholdID, row.Date, row.TotalItems, row.Source, gap})
	}
	return w.update(ctx, "shopping_rhythm!A1", values)
}

func (w *SheetsWriter) update(ctx context.Context, rangeRef string, values [][]interface{}) error {
	_, err := w.service.Spreadsheets.Values.
		Update(w.spreadsheetID, rangeRef, &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("update %s: %w", rangeRef, err)
	}
	return nil
}
