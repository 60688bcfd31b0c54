// Plantry - Grocery Intelligence for Forgetful Households
// Copyright 2026 Plantry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plantryhq/plantry

// Package suggest fuses the three trained models and the feedback state
// into a ranked, explained suggestion list for an in-progress shopping
// list. The engine is read-only: it never writes models or feedback.
package suggest

import (
	"context"
	"errors"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/plantryhq/plantry/internal/config"
	"github.com/plantryhq/plantry/internal/logging"
	"github.com/plantryhq/plantry/internal/metrics"
	"github.com/plantryhq/plantry/internal/models"
	"github.com/plantryhq/plantry/internal/store"
)

// ModelSource loads trained model documents. *store.ModelStore satisfies it.
type ModelSource interface {
	LoadModel(ctx context.Context, kind models.ModelKind, householdID string, out interface{}) error
}

// FeedbackFilter answers the per-candidate feedback queries of the filter
// step. *store.FeedbackStore satisfies it.
type FeedbackFilter interface {
	IsBlocked(ctx context.Context, householdID, item string) (bool, error)
	IsRejected(ctx context.Context, householdID, item string, now time.Time) (bool, error)
	Penalty(ctx context.Context, householdID, item string) (float64, error)
}

// Engine ranks suggestion candidates for a household.
type Engine struct {
	modelStore ModelSource
	feedback   FeedbackFilter
	cfg        config.SuggestConfig
	priors     map[Season]map[string]float64
	log        zerolog.Logger

	// now is swappable for deterministic tests.
	now func() time.Time
}

// NewEngine creates a suggestion engine. A nil priors map falls back to the
// built-in seasonal table.
func NewEngine(modelStore ModelSource, feedback FeedbackFilter, cfg config.SuggestConfig, priors map[Season]map[string]float64) *Engine {
	if priors == nil {
		priors = DefaultSeasonalPriors()
	}
	return &Engine{
		modelStore: modelStore,
		feedback:   feedback,
		cfg:        cfg,
		priors:     priors,
		log:        logging.With().Str("component", "suggest").Logger(),
		now:        time.Now,
	}
}

// candidate accumulates one item's fused score and the evidence behind it.
type candidate struct {
	item  string
	score float64
	sig   signals
}

// Suggest produces the ranked suggestion list for the household's current
// in-progress list. An untrained household yields an empty list, never an
// error.
func (e *Engine) Suggest(ctx context.Context, householdID string, currentList []string) ([]models.Suggestion, error) {
	start := e.now()

	assoc, forget, temporal, err := e.loadModels(ctx, householdID)
	if err != nil {
		return nil, err
	}

	onList := make(map[string]struct{})
	normalized := models.NormalizeItems(currentList)
	for _, item := range normalized {
		onList[item] = struct{}{}
	}

	candidates := e.fuse(normalized, onList, assoc, forget, temporal)
	e.injectSeasonalPriors(candidates, onList)

	ranked := rankCandidates(candidates)
	if len(ranked) > e.cfg.MaxSuggestions {
		ranked = ranked[:e.cfg.MaxSuggestions]
	}

	survivors := e.applyFeedback(ctx, householdID, ranked)

	// Penalties can reorder the ranking, so sort again on final scores.
	sort.Slice(survivors, func(i, j int) bool {
		if survivors[i].score != survivors[j].score {
			return survivors[i].score > survivors[j].score
		}
		return survivors[i].item < survivors[j].item
	})

	suggestions := make([]models.Suggestion, 0, len(survivors))
	for _, cand := range survivors {
		reason, kind := classifyReason(cand.sig).describe(cand.sig)
		score := math.Round(cand.score*1000) / 1000
		suggestions = append(suggestions, models.Suggestion{
			Item:       cand.item,
			Score:      score,
			Confidence: models.BucketForScore(score),
			Type:       kind,
			Reason:     reason,
		})
	}

	metrics.RecordSuggestion(e.now().Sub(start), len(suggestions))
	return suggestions, nil
}

// loadModels fetches the three model documents, treating a missing model
// as empty: an untrained household is a valid, silent state.
func (e *Engine) loadModels(ctx context.Context, householdID string) (models.AssociationModel, models.ForgetfulnessModel, models.TemporalModel, error) {
	var assoc models.AssociationModel
	var forget models.ForgetfulnessModel
	var temporal models.TemporalModel

	if err := e.modelStore.LoadModel(ctx, models.ModelAssociations, householdID, &assoc); err != nil {
		if !errors.Is(err, store.ErrModelNotFound) {
			return assoc, forget, temporal, err
		}
	}
	if err := e.modelStore.LoadModel(ctx, models.ModelForgetfulness, householdID, &forget); err != nil {
		if !errors.Is(err, store.ErrModelNotFound) {
			return assoc, forget, temporal, err
		}
	}
	if err := e.modelStore.LoadModel(ctx, models.ModelTemporal, householdID, &temporal); err != nil {
		if !errors.Is(err, store.ErrModelNotFound) {
			return assoc, forget, temporal, err
		}
	}
	return assoc, forget, temporal, nil
}

// fuse walks the association rules of every item on the list and scores
// each candidate consequent:
//
//	(w1·confidence + w2·forgetProbability + w3·urgency) · exp(-daysSince/halfLife)
//
// Contributions accumulate additively across antecedents, so a candidate
// backed by two list items outranks one backed by a single rule of the
// same strength.
func (e *Engine) fuse(listItems []string, onList map[string]struct{}, assoc models.AssociationModel, forget models.ForgetfulnessModel, temporal models.TemporalModel) map[string]*candidate {
	candidates := make(map[string]*candidate)

	for _, antecedent := range listItems {
		for _, rule := range assoc.Rules[antecedent] {
			if _, taken := onList[rule.Item]; taken {
				continue
			}

			forgetProb := 0.0
			if score, ok := forget.Scores[rule.Item]; ok && score.EvidenceCount >= e.cfg.MinForgetEvidence {
				forgetProb = score.ForgetProbability
			}

			urgency := 0.0
			daysSince := 0.0
			if profile, ok := temporal.Items[rule.Item]; ok {
				urgency = profile.Urgency
				daysSince = profile.DaysSinceLast
			}

			decay := math.Exp(-daysSince / e.cfg.RecencyHalfLifeDays)
			contribution := (e.cfg.AssociationWeight*rule.Confidence +
				e.cfg.ForgetWeight*forgetProb +
				e.cfg.TemporalWeight*urgency) * decay

			cand := candidates[rule.Item]
			if cand == nil {
				cand = &candidate{item: rule.Item}
				candidates[rule.Item] = cand
			}
			cand.score += contribution
			if rule.Confidence > cand.sig.maxAssocConfidence {
				cand.sig.maxAssocConfidence = rule.Confidence
			}
			cand.sig.forgetProbability = forgetProb
		}
	}

	return candidates
}

// injectSeasonalPriors applies the current season's full prior table. A
// prior is a floor on the score, not stacked evidence: already-scored
// candidates take max(score, prior), unseen items enter as seasonal-only.
func (e *Engine) injectSeasonalPriors(candidates map[string]*candidate, onList map[string]struct{}) {
	season := SeasonForMonth(e.now().Month())
	for item, prior := range e.priors[season] {
		if _, taken := onList[item]; taken {
			continue
		}
		cand := candidates[item]
		if cand == nil {
			candidates[item] = &candidate{
				item:  item,
				score: prior,
				sig:   signals{seasonalOnly: true},
			}
			continue
		}
		if prior > cand.score {
			cand.score = prior
		}
	}
}

// rankCandidates orders by score descending, item ascending on ties, for a
// deterministic ranking.
func rankCandidates(candidates map[string]*candidate) []*candidate {
	ranked := make([]*candidate, 0, len(candidates))
	for _, cand := range candidates {
		ranked = append(ranked, cand)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].item < ranked[j].item
	})
	return ranked
}

// feedbackVerdict is one candidate's filter outcome.
type feedbackVerdict struct {
	drop   bool
	factor float64
}

// applyFeedback runs the per-candidate feedback lookups concurrently over
// the bounded top-N. A failed lookup fails open: the candidate passes with
// a neutral factor, and the failure is logged.
func (e *Engine) applyFeedback(ctx context.Context, householdID string, ranked []*candidate) []*candidate {
	now := e.now()
	verdicts := make([]feedbackVerdict, len(ranked))

	g, gctx := errgroup.WithContext(ctx)
	for i, cand := range ranked {
		g.Go(func() error {
			verdicts[i] = e.checkCandidate(gctx, householdID, cand.item, now)
			return nil
		})
	}
	_ = g.Wait()

	survivors := make([]*candidate, 0, len(ranked))
	for i, cand := range ranked {
		if verdicts[i].drop {
			continue
		}
		cand.score *= verdicts[i].factor
		survivors = append(survivors, cand)
	}
	return survivors
}

func (e *Engine) checkCandidate(ctx context.Context, householdID, item string, now time.Time) feedbackVerdict {
	verdict := feedbackVerdict{factor: 1.0}

	blocked, err := e.feedback.IsBlocked(ctx, householdID, item)
	if err != nil {
		metrics.FeedbackFilterFailures.Inc()
		e.log.Err(err).Str("household", householdID).Str("item", item).Msg("block lookup failed open")
	} else if blocked {
		verdict.drop = true
		return verdict
	}

	rejected, err := e.feedback.IsRejected(ctx, householdID, item, now)
	if err != nil {
		metrics.FeedbackFilterFailures.Inc()
		e.log.Err(err).Str("household", householdID).Str("item", item).Msg("reject lookup failed open")
	} else if rejected {
		verdict.drop = true
		return verdict
	}

	factor, err := e.feedback.Penalty(ctx, householdID, item)
	if err != nil {
		metrics.FeedbackFilterFailures.Inc()
		e.log.Err(err).Str("household", householdID).Str("item", item).Msg("penalty lookup failed open")
		return verdict
	}
	verdict.factor = factor
	return verdict
}
