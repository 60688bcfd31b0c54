// Plantry - Grocery Intelligence for Forgetful Households
// Copyright 2026 Plantry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plantryhq/plantry

// Package config loads layered configuration with Koanf v2.
//
// Precedence, highest wins: environment variables > YAML config file >
// built-in defaults. Environment variables use the PLANTRY_ prefix with
// underscores mapping to nesting, e.g. PLANTRY_SERVER_PORT -> server.port.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the Plantry server.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Storage  StorageConfig  `koanf:"storage"`
	Mining   MiningConfig   `koanf:"mining"`
	Suggest  SuggestConfig  `koanf:"suggest"`
	Training TrainingConfig `koanf:"training"`
	Cleanup  CleanupConfig  `koanf:"cleanup"`
	Parse    ParseConfig    `koanf:"parse"`
	Export   ExportConfig   `koanf:"export"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`

	// RateLimitReqs is the per-IP request allowance per RateLimitWindow.
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`

	CORSOrigins []string `koanf:"cors_origins"`
}

// StorageConfig controls the Badger database.
type StorageConfig struct {
	// Path is the Badger directory. Empty means in-memory, used by tests.
	Path string `koanf:"path"`

	// GCInterval is how often value-log garbage collection runs.
	GCInterval time.Duration `koanf:"gc_interval"`
}

// MiningConfig holds the training thresholds for the three model builders.
type MiningConfig struct {
	// MinSupport is the joint-frequency floor for keeping a rule.
	MinSupport float64 `koanf:"min_support"`

	// MinConfidence is the conditional-probability floor for keeping a rule.
	MinConfidence float64 `koanf:"min_confidence"`

	// ForgetAlpha and ForgetBeta are the Beta-prior pseudo-counts for the
	// forget probability estimate.
	ForgetAlpha float64 `koanf:"forget_alpha"`
	ForgetBeta  float64 `koanf:"forget_beta"`

	// MinEvents is the history floor below which training produces empty
	// models rather than an error.
	MinEvents int `koanf:"min_events"`
}

// SuggestConfig holds the fusion weights and ranking knobs.
type SuggestConfig struct {
	// AssociationWeight, ForgetWeight and TemporalWeight must sum to 1.
	AssociationWeight float64 `koanf:"association_weight"`
	ForgetWeight      float64 `koanf:"forget_weight"`
	TemporalWeight    float64 `koanf:"temporal_weight"`

	// RecencyHalfLifeDays is the e-folding scale of the recency decay
	// applied to association contributions.
	RecencyHalfLifeDays float64 `koanf:"recency_half_life_days"`

	// MinForgetEvidence gates forgetfulness contributions on sample size.
	MinForgetEvidence int `koanf:"min_forget_evidence"`

	// MaxSuggestions caps the ranked output length.
	MaxSuggestions int `koanf:"max_suggestions"`

	// RejectTTL is how long a reject verdict suppresses an item.
	RejectTTL time.Duration `koanf:"reject_ttl"`

	// PenaltyBase and PenaltyFloor bound the compounding penalize factor.
	PenaltyBase  float64 `koanf:"penalty_base"`
	PenaltyFloor float64 `koanf:"penalty_floor"`
}

// TrainingConfig controls the background retraining job.
type TrainingConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Interval time.Duration `koanf:"interval"`

	// OnStartup triggers one full training pass when the server boots.
	OnStartup bool `koanf:"on_startup"`
}

// CleanupConfig controls the expired-feedback sweep job.
type CleanupConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Interval time.Duration `koanf:"interval"`
}

// ParseConfig controls the natural-language item parser.
type ParseConfig struct {
	// Provider selects the backend: "gemini" or "fallback".
	Provider string `koanf:"provider"`

	APIKey  string        `koanf:"api_key"`
	BaseURL string        `koanf:"base_url"`
	Model   string        `koanf:"model"`
	Timeout time.Duration `koanf:"timeout"`

	// RateLimitPerMin bounds outbound provider calls.
	RateLimitPerMin int `koanf:"rate_limit_per_min"`
}

// ExportConfig controls the analytics export job.
type ExportConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Interval time.Duration `koanf:"interval"`

	// SheetID is the target Google Sheets spreadsheet. Empty disables the
	// Sheets writer and exports fall back to CSV.
	SheetID         string `koanf:"sheet_id"`
	CredentialsFile string `koanf:"credentials_file"`

	// CSVDir is where CSV exports land when Sheets is not configured.
	CSVDir string `koanf:"csv_dir"`
}

// LoggingConfig controls the zerolog setup.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns the built-in defaults, applied before file and env
// layers.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			Timeout:         30 * time.Second,
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{"*"},
		},
		Storage: StorageConfig{
			Path:       "/data/plantry",
			GCInterval: 10 * time.Minute,
		},
		Mining: MiningConfig{
			MinSupport:    0.05,
			MinConfidence: 0.35,
			ForgetAlpha:   1,
			ForgetBeta:    2,
			MinEvents:     1,
		},
		Suggest: SuggestConfig{
			AssociationWeight:   0.55,
			ForgetWeight:        0.30,
			TemporalWeight:      0.15,
			RecencyHalfLifeDays: 180,
			MinForgetEvidence:   5,
			MaxSuggestions:      7,
			RejectTTL:           7 * 24 * time.Hour,
			PenaltyBase:         0.85,
			PenaltyFloor:        0.3,
		},
		Training: TrainingConfig{
			Enabled:   true,
			Interval:  24 * time.Hour,
			OnStartup: false,
		},
		Cleanup: CleanupConfig{
			Enabled:  true,
			Interval: time.Hour,
		},
		Parse: ParseConfig{
			Provider:        "fallback",
			BaseURL:         "https://generativelanguage.googleapis.com",
			Model:           "gemini-2.0-flash",
			Timeout:         10 * time.Second,
			RateLimitPerMin: 30,
		},
		Export: ExportConfig{
			Enabled:  false,
			Interval: 24 * time.Hour,
			CSVDir:   "/data/exports",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Validate checks cross-field constraints that koanf cannot express.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in [1,65535], got %d", c.Server.Port)
	}
	if c.Mining.MinSupport < 0 || c.Mining.MinSupport > 1 {
		return fmt.Errorf("mining.min_support must be in [0,1], got %g", c.Mining.MinSupport)
	}
	if c.Mining.MinConfidence < 0 || c.Mining.MinConfidence > 1 {
		return fmt.Errorf("mining.min_confidence must be in [0,1], got %g", c.Mining.MinConfidence)
	}
	if c.Mining.ForgetAlpha <= 0 || c.Mining.ForgetBeta <= 0 {
		return fmt.Errorf("mining forget priors must be positive, got alpha=%g beta=%g",
			c.Mining.ForgetAlpha, c.Mining.ForgetBeta)
	}

	sum := c.Suggest.AssociationWeight + c.Suggest.ForgetWeight + c.Suggest.TemporalWeight
	if sum < 0.999 || sum > 1.001 {
		return fmt.Errorf("suggest weights must sum to 1.0, got %g", sum)
	}
	if c.Suggest.MaxSuggestions < 1 {
		return fmt.Errorf("suggest.max_suggestions must be >= 1, got %d", c.Suggest.MaxSuggestions)
	}
	if c.Suggest.PenaltyFloor <= 0 || c.Suggest.PenaltyBase <= c.Suggest.PenaltyFloor ||
		c.Suggest.PenaltyBase >= 1 {
		return fmt.Errorf("suggest penalty must satisfy 0 < floor < base < 1, got base=%g floor=%g",
			c.Suggest.PenaltyBase, c.Suggest.PenaltyFloor)
	}
	if c.Suggest.RecencyHalfLifeDays <= 0 {
		return fmt.Errorf("suggest.recency_half_life_days must be positive, got %g",
			c.Suggest.RecencyHalfLifeDays)
	}

	switch c.Parse.Provider {
	case "gemini", "fallback":
	default:
		return fmt.Errorf("parse.provider must be gemini or fallback, got %q", c.Parse.Provider)
	}
	if c.Parse.Provider == "gemini" && c.Parse.APIKey == "" {
		return fmt.Errorf("parse.api_key is required when parse.provider is gemini")
	}

	return nil
}
