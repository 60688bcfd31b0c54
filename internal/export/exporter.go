// Plantry - Grocery Intelligence for Forgetful Households
// Copyright 2026 Plantry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plantryhq/plantry

package export

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/plantryhq/plantry/internal/config"
	"github.com/plantryhq/plantry/internal/logging"
	"github.com/plantryhq/plantry/internal/models"
	"github.com/plantryhq/plantry/internal/store"
)

// Writer is the destination for the analytics tables. SheetsWriter and
// CSVWriter satisfy it.
type Writer interface {
	WriteItemFrequency(ctx context.Context, rows []ItemFrequencyRow) error
	WriteShoppingRhythm(ctx context.Context, rows []RhythmRow) error
}

// Exporter walks every household's history and ships the aggregated
// tables to the configured writer.
type Exporter struct {
	transactions *store.TransactionStore
	writer       Writer
	log          zerolog.Logger
}

// NewExporter builds the exporter, choosing Sheets when a spreadsheet is
// configured and CSV otherwise.
func NewExporter(ctx context.Context, transactions *store.TransactionStore, cfg config.ExportConfig) (*Exporter, error) {
	var writer Writer
	var err error
	if cfg.SheetID != "" {
		writer, err = NewSheetsWriter(ctx, cfg.SheetID, cfg.CredentialsFile)
	} else {
		writer, err = NewCSVWriter(cfg.CSVDir)
	}
	if err != nil {
		return nil, err
	}
	return &Exporter{
		transactions: transactions,
		writer:       writer,
		log:          logging.With().Str("component", "export").Logger(),
	}, nil
}

// Run performs one full export pass.
func (e *Exporter) Run(ctx context.Context) error {
	households, err := e.transactions.ListHouseholds(ctx)
	if err != nil {
		return fmt.Errorf("list households: %w", err)
	}

	var events []models.ShoppingEvent
	for _, household := range households {
		houseEvents, err := e.transactions.ListShoppingEvents(ctx, household)
		if err != nil {
			return fmt.Errorf("load events for %s: %w", household, err)
		}
		events = append(events, houseEvents...)
	}

	frequency := BuildItemFrequency(events)
	rhythm := BuildShoppingRhythm(events)

	if err := e.writer.WriteItemFrequency(ctx, frequency); err != nil {
		return err
	}
	if err := e.writer.WriteShoppingRhythm(ctx, rhythm); err != nil {
		return err
	}

	e.log.Info().
		Int("households", len(households)).
		Int("frequency_rows", len(frequency)).
		Int("rhythm_rows", len(rhythm)).
		Msg("analytics export complete")
	return nil
}
