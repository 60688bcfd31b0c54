// Plantry - Grocery Intelligence for Forgetful Households
// Copyright 2026 Plantry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plantryhq/plantry

package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// CSVWriter writes the analytics tables to local CSV files. It is the
// export target when no spreadsheet is configured.
type CSVWriter struct {
	dir string
}

// NewCSVWriter creates a writer rooted at dir, creating it if needed.
func NewCSVWriter(dir string) (*CSVWriter, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}
	return &CSVWriter{dir: dir}, nil
}

// WriteItemFrequency writes item_frequency.csv.
func (w *CSVWriter) WriteItemFrequency(_ context.Context, rows []ItemFrequencyRow) error {
	records := [][]string{{"household_id", "item", "shopping_date", "count"}}
	for _, row := range rows {
		records = append(records, []string{row.HouseholdID, row.Item, row.Date, strconv.Itoa(row.Count)})
	}
	return w.writeFile("item_frequency.csv", records)
}

// WriteShoppingRhythm writes shopping_rhythm.csv.
func (w *CSVWriter) WriteShoppingRhythm(_ context.Context, rows []RhythmRow) error {
	records := [][]string{{"household_id", "shopping_date", "total_items", "source", "days_gap"}}
	for _, row := range rows {
		gap := ""
		if row.DaysGap >= 0 {
			gap = strconv.FormatFloat(row.DaysGap, 'f', 1, 64)
		}
		records = append(records, []string{row.HouseholdID, row.Date, strconv.Itoa(row.TotalItems), row.Source, gap})
	}
	return w.writeFile("shopping_rhythm.csv", records)
}

func (w *CSVWriter) writeFile(name string, records [][]string) error {
	path := filepath.Join(w.dir, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	writer := csv.NewWriter(f)
	if err := writer.WriteAll(records); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
