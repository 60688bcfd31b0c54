// Plantry - Grocery Intelligence for Forgetful Households
// Copyright 2026 Plantry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plantryhq/plantry

// Package parse turns free-form user input ("2l milk, some bread and eggs")
// into clean grocery item names. The primary path is an LLM provider behind
// a circuit breaker and rate limiter; every failure degrades to the local
// comma parser, so parsing never hard-fails a request.
package parse

import (
	"context"
	"strings"

	"github.com/plantryhq/plantry/internal/config"
	"github.com/plantryhq/plantry/internal/logging"
	"github.com/plantryhq/plantry/internal/metrics"
	"github.com/plantryhq/plantry/internal/models"
)

// Parser extracts grocery item names from raw text.
type Parser interface {
	Parse(ctx context.Context, rawInput string) ([]string, error)
}

// FallbackParser splits on commas and newlines and normalizes each piece.
// It is the floor every other parser degrades to.
type FallbackParser struct{}

// Parse implements Parser.
func (FallbackParser) Parse(_ context.Context, rawInput string) ([]string, error) {
	pieces := strings.FieldsFunc(rawInput, func(r rune) bool {
		return r == ',' || r == '\n'
	})
	return models.NormalizeItems(pieces), nil
}

// Service selects the configured provider and guarantees a usable result:
// provider failures are logged and answered by the fallback parser.
type Service struct {
	provider Parser
	name     string
	fallback FallbackParser
}

// NewService builds the parse service from configuration. Provider
// "fallback" skips the LLM entirely.
func NewService(cfg config.ParseConfig) *Service {
	if cfg.Provider == "gemini" {
		return &Service{provider: NewGeminiClient(cfg), name: "gemini"}
	}
	return &Service{name: "fallback"}
}

// Parse extracts item names, degrading to the local parser on any provider
// failure.
func (s *Service) Parse(ctx context.Context, rawInput string) ([]string, error) {
	if s.provider == nil {
		items, _ := s.fallback.Parse(ctx, rawInput)
		metrics.RecordParse("fallback", "ok")
		return items, nil
	}

	items, err := s.provider.Parse(ctx, rawInput)
	if err != nil {
		logging.Err(err).Str("component", "parse").Str("provider", s.name).Msg("provider parse failed, degrading")
		metrics.RecordParse(s.name, "degraded")
		items, _ = s.fallback.Parse(ctx, rawInput)
		return items, nil
	}
	metrics.RecordParse(s.name, "ok")
	return items, nil
}
