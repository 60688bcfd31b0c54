// Plantry - Grocery Intelligence for Forgetful Households
// Copyright 2026 Plantry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plantryhq/plantry

package parse

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/plantryhq/plantry/internal/config"
	"github.com/plantryhq/plantry/internal/metrics"
	"github.com/plantryhq/plantry/internal/models"
)

const parsePrompt = `You are a grocery list parser.

Rules:
- Extract only grocery item names
- Remove quantities, brands, numbers
- Normalize to lowercase
- Use generic names
- Output ONLY a JSON array

Input:
%q

Output:
["item1", "item2"]`

// GeminiClient calls the Gemini generateContent API to extract item names.
// Outbound calls sit behind a token-bucket rate limiter and a circuit
// breaker; when either refuses, the caller degrades to the fallback parser.
type GeminiClient struct {
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[[]string]
	limiter    *rate.Limiter

	apiKey  string
	baseURL string
	model   string
}

// NewGeminiClient creates a client from configuration.
func NewGeminiClient(cfg config.ParseConfig) *GeminiClient {
	settings := gobreaker.Settings{
		Name:    "gemini-parse",
		Timeout: 60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(_ string, _, to gobreaker.State) {
			if to == gobreaker.StateOpen {
				metrics.ParseBreakerState.Set(1)
			} else {
				metrics.ParseBreakerState.Set(0)
			}
		},
	}

	perMin := cfg.RateLimitPerMin
	if perMin < 1 {
		perMin = 30
	}

	return &GeminiClient{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breaker:    gobreaker.NewCircuitBreaker[[]string](settings),
		limiter:    rate.NewLimiter(rate.Limit(float64(perMin)/60), perMin),
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		model:      cfg.Model,
	}
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Parse implements Parser.
func (c *GeminiClient) Parse(ctx context.Context, rawInput string) ([]string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	return c.breaker.Execute(func() ([]string, error) {
		return c.callAPI(ctx, rawInput)
	})
}

func (c *GeminiClient) callAPI(ctx context.Context, rawInput string) ([]string, error) {
	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{
			Parts: []geminiPart{{Text: fmt.Sprintf(parsePrompt, rawInput)}},
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call gemini: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gemini status %d", resp.StatusCode)
	}

	var parsed geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("empty gemini response")
	}

	return extractItems(parsed.Candidates[0].Content.Parts[0].Text)
}

// extractItems parses the model's text output, tolerating markdown fences
// around the JSON array.
func extractItems(text string) ([]string, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var items []string
	if err := json.Unmarshal([]byte(text), &items); err != nil {
		return nil, fmt.Errorf("parse model output: %w", err)
	}
	return models.NormalizeItems(items), nil
}
