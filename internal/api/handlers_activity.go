// Plantry - Grocery Intelligence for Forgetful Households
// Copyright 2026 Plantry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plantryhq/plantry

package api

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/go-chi/chi/v5"

	"github.com/plantryhq/plantry/internal/models"
	"github.com/plantryhq/plantry/internal/store"
)

const (
	defaultHistoryLimit = 50
	defaultRecentLimit  = 5
	insightsTopN        = 5

	// insightPairConfidence is the confidence floor for surfacing a
	// co-purchase pair on the dashboard.
	insightPairConfidence = 0.6

	// insightMinForgetEvidence keeps one-off misses out of the
	// frequently-forgotten list.
	insightMinForgetEvidence = 2

	// factTemporalConfidence gates cadence facts on model confidence.
	factTemporalConfidence = 0.5

	// factForgetProbability and factForgetEvidence gate forgetfulness
	// facts so a fact is only stated with real evidence behind it.
	factForgetProbability = 0.3
	factForgetEvidence    = 5
)

// ActivityHistory handles GET /api/v1/activity/history. Trips are returned
// newest first with their forgotten items merged in.
func (h *Handler) ActivityHistory(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w)

	householdID := r.URL.Query().Get("householdId")
	if householdID == "" {
		rw.BadRequest("householdId query parameter is required")
		return
	}
	limit := queryLimit(r, defaultHistoryLimit)

	events, err := h.transactions.ListShoppingEvents(r.Context(), householdID)
	if err != nil {
		rw.InternalError(err)
		return
	}
	reports, err := h.transactions.ListForgottenReports(r.Context(), householdID)
	if err != nil {
		rw.InternalError(err)
		return
	}

	forgottenByEvent := make(map[string][]string)
	for _, report := range reports {
		forgottenByEvent[report.EventID] = append(forgottenByEvent[report.EventID], report.Item)
	}

	history := make([]models.ActivityEvent, 0, len(events))
	for _, event := range events {
		forgotten := forgottenByEvent[event.ID]
		if forgotten == nil {
			forgotten = []string{}
		}
		sort.Strings(forgotten)
		history = append(history, models.ActivityEvent{
			ID:        event.ID,
			Date:      event.Date,
			Items:     event.Items,
			Forgotten: forgotten,
		})
	}

	sort.Slice(history, func(i, j int) bool {
		return history[i].Date.After(history[j].Date)
	})
	if len(history) > limit {
		history = history[:limit]
	}

	rw.Success(history)
}

// ActivityRecent handles GET /api/v1/activity/recent: compact summaries of
// the latest trips for the dashboard.
func (h *Handler) ActivityRecent(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w)

	householdID := r.URL.Query().Get("householdId")
	if householdID == "" {
		rw.BadRequest("householdId query parameter is required")
		return
	}
	limit := queryLimit(r, defaultRecentLimit)

	events, err := h.transactions.ListShoppingEvents(r.Context(), householdID)
	if err != nil {
		rw.InternalError(err)
		return
	}

	summaries := make([]models.ActivitySummary, 0, len(events))
	for _, event := range events {
		summaries = append(summaries, models.ActivitySummary{
			ID:        event.ID,
			Date:      event.Date,
			ItemCount: len(event.Items),
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Date.After(summaries[j].Date)
	})
	if len(summaries) > limit {
		summaries = summaries[:limit]
	}

	rw.Success(summaries)
}

// HouseholdInsights handles GET /api/v1/insights/household: dashboard facts
// derived from the trained models.
func (h *Handler) HouseholdInsights(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w)

	householdID := r.URL.Query().Get("householdId")
	if householdID == "" {
		rw.BadRequest("householdId query parameter is required")
		return
	}

	ctx := r.Context()
	insights := models.HouseholdInsights{
		Forgotten: []models.ForgottenInsight{},
		Pairs:     [][2]string{},
	}

	var temporal models.TemporalModel
	if err := h.modelStore.LoadModel(ctx, models.ModelTemporal, householdID, &temporal); err != nil && !errors.Is(err, store.ErrModelNotFound) {
		rw.InternalError(err)
		return
	}
	insights.Rhythm = rhythmInsight(temporal)

	var forget models.ForgetfulnessModel
	if err := h.modelStore.LoadModel(ctx, models.ModelForgetfulness, householdID, &forget); err != nil && !errors.Is(err, store.ErrModelNotFound) {
		rw.InternalError(err)
		return
	}
	insights.Forgotten = forgottenInsights(forget)

	var assoc models.AssociationModel
	if err := h.modelStore.LoadModel(ctx, models.ModelAssociations, householdID, &assoc); err != nil && !errors.Is(err, store.ErrModelNotFound) {
		rw.InternalError(err)
		return
	}
	insights.Pairs = strongestPairs(assoc)

	rw.Success(insights)
}

// InsightsFact handles GET /api/v1/insights/fact: one conversational fact
// about the household's habits for the dashboard greeting.
func (h *Handler) InsightsFact(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w)

	householdID := r.URL.Query().Get("householdId")
	if householdID == "" {
		rw.BadRequest("householdId query parameter is required")
		return
	}

	ctx := r.Context()

	var temporal models.TemporalModel
	if err := h.modelStore.LoadModel(ctx, models.ModelTemporal, householdID, &temporal); err != nil && !errors.Is(err, store.ErrModelNotFound) {
		rw.InternalError(err)
		return
	}
	var forget models.ForgetfulnessModel
	if err := h.modelStore.LoadModel(ctx, models.ModelForgetfulness, householdID, &forget); err != nil && !errors.Is(err, store.ErrModelNotFound) {
		rw.InternalError(err)
		return
	}

	rw.Success(models.FactResponse{Fact: pickFact(temporal, forget, h.now())})
}

// EraseHousehold handles DELETE /api/v1/households/{householdID}: removes
// all history, feedback, and trained models for one household.
func (h *Handler) EraseHousehold(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w)

	householdID := chi.URLParam(r, "householdID")
	if householdID == "" {
		rw.BadRequest("household id is required")
		return
	}

	deleted, err := store.EraseHousehold(h.db, householdID)
	if err != nil {
		rw.InternalError(err)
		return
	}
	if err := h.modelStore.DeleteModels(r.Context(), householdID); err != nil {
		rw.InternalError(err)
		return
	}

	h.log.Info().Str("household", householdID).Int("records", deleted).Msg("household erased")
	rw.Success(map[string]int{"deleted_records": deleted})
}

// rhythmInsight derives the shopping-rhythm summary from the most
// confidently modeled item.
func rhythmInsight(temporal models.TemporalModel) *models.RhythmInsight {
	var best *models.TemporalProfile
	for item := range temporal.Items {
		profile := temporal.Items[item]
		if best == nil || profile.Confidence > best.Confidence {
			p := profile
			best = &p
		}
	}
	if best == nil {
		return nil
	}
	return &models.RhythmInsight{
		AvgDaysBetweenTrips: int(math.Round(best.AvgGapDays)),
		Cadence:             string(best.Pattern),
	}
}

// forgottenInsights lists the most frequently forgotten items with enough
// evidence to be meaningful.
func forgottenInsights(forget models.ForgetfulnessModel) []models.ForgottenInsight {
	out := make([]models.ForgottenInsight, 0, len(forget.Scores))
	for item, score := range forget.Scores {
		if score.EvidenceCount < insightMinForgetEvidence {
			continue
		}
		out = append(out, models.ForgottenInsight{
			Name:     item,
			Percent:  int(math.Round(score.ForgetProbability * 100)),
			Evidence: score.EvidenceCount,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Percent != out[j].Percent {
			return out[i].Percent > out[j].Percent
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > insightsTopN {
		out = out[:insightsTopN]
	}
	return out
}

// strongestPairs extracts the highest-confidence co-purchase pairs,
// de-duplicated regardless of rule direction.
func strongestPairs(assoc models.AssociationModel) [][2]string {
	type pair struct {
		a, b       string
		confidence float64
	}

	seen := make(map[[2]string]float64)
	for antecedent, rules := range assoc.Rules {
		for _, rule := range rules {
			if rule.Confidence < insightPairConfidence {
				continue
			}
			key := [2]string{antecedent, rule.Item}
			if key[0] > key[1] {
				key[0], key[1] = key[1], key[0]
			}
			if rule.Confidence > seen[key] {
				seen[key] = rule.Confidence
			}
		}
	}

	pairs := make([]pair, 0, len(seen))
	for key, confidence := range seen {
		pairs = append(pairs, pair{a: key[0], b: key[1], confidence: confidence})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].confidence != pairs[j].confidence {
			return pairs[i].confidence > pairs[j].confidence
		}
		if pairs[i].a != pairs[j].a {
			return pairs[i].a < pairs[j].a
		}
		return pairs[i].b < pairs[j].b
	})
	if len(pairs) > insightsTopN {
		pairs = pairs[:insightsTopN]
	}

	out := make([][2]string, len(pairs))
	for i, p := range pairs {
		out[i] = [2]string{p.a, p.b}
	}
	return out
}

// pickFact collects candidate facts from both models and rotates through
// them by day of year. The selection changes daily but is reproducible for
// a given date, so repeated requests agree.
func pickFact(temporal models.TemporalModel, forget models.ForgetfulnessModel, now time.Time) *models.FactInsight {
	var facts []models.FactInsight

	cadenceItems := make([]string, 0, len(temporal.Items))
	for item := range temporal.Items {
		cadenceItems = append(cadenceItems, item)
	}
	sort.Strings(cadenceItems)
	for _, item := range cadenceItems {
		profile := temporal.Items[item]
		if profile.Confidence < factTemporalConfidence || profile.AvgGapDays <= 0 {
			continue
		}
		facts = append(facts, models.FactInsight{
			Type: "temporal",
			Text: fmt.Sprintf("You tend to buy %s every %d days.",
				titleCase(item), int(math.Round(profile.AvgGapDays))),
		})
	}

	forgetItems := make([]string, 0, len(forget.Scores))
	for item := range forget.Scores {
		forgetItems = append(forgetItems, item)
	}
	sort.Strings(forgetItems)
	for _, item := range forgetItems {
		score := forget.Scores[item]
		if score.ForgetProbability < factForgetProbability || score.EvidenceCount < factForgetEvidence {
			continue
		}
		facts = append(facts, models.FactInsight{
			Type: "forgotten",
			Text: fmt.Sprintf("You usually forget %s.", titleCase(item)),
		})
	}

	if len(facts) == 0 {
		return nil
	}
	fact := facts[now.YearDay()%len(facts)]
	return &fact
}

// titleCase uppercases the first letter of each word for display.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, word := range words {
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

// queryLimit parses the limit query parameter, falling back to a default
// on absence or garbage.
func queryLimit(r *http.Request, fallback int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return fallback
	}
	return limit
}
