// Plantry - Grocery Intelligence for Forgetful Households
// Copyright 2026 Plantry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plantryhq/plantry

package api

import (
	"net/http"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/plantryhq/plantry/internal/logging"
	"github.com/plantryhq/plantry/internal/metrics"
	"github.com/plantryhq/plantry/internal/mining"
	"github.com/plantryhq/plantry/internal/models"
	"github.com/plantryhq/plantry/internal/parse"
	"github.com/plantryhq/plantry/internal/store"
	"github.com/plantryhq/plantry/internal/suggest"
)

// Handler holds the dependencies for all API endpoints.
type Handler struct {
	db           *badger.DB
	transactions *store.TransactionStore
	modelStore   *store.ModelStore
	feedback     *store.FeedbackStore
	engine       *suggest.Engine
	trainer      *mining.Trainer
	parser       *parse.Service
	log          zerolog.Logger

	// now is swappable for deterministic tests.
	now func() time.Time
}

// NewHandler creates the API handler over the given components.
func NewHandler(
	db *badger.DB,
	transactions *store.TransactionStore,
	modelStore *store.ModelStore,
	feedback *store.FeedbackStore,
	engine *suggest.Engine,
	trainer *mining.Trainer,
	parser *parse.Service,
) *Handler {
	return &Handler{
		db:           db,
		transactions: transactions,
		modelStore:   modelStore,
		feedback:     feedback,
		engine:       engine,
		trainer:      trainer,
		parser:       parser,
		log:          logging.With().Str("component", "api").Logger(),
		now:          time.Now,
	}
}

// Suggest handles POST /api/v1/suggestions/infer.
func (h *Handler) Suggest(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w)

	var req models.SuggestRequest
	if !decodeAndValidate(rw, r, &req) {
		return
	}

	suggestions, err := h.engine.Suggest(r.Context(), req.HouseholdID, req.CurrentList)
	if err != nil {
		rw.InternalError(err)
		return
	}

	rw.Success(models.SuggestResponse{Suggestions: suggestions})
}

// CompleteTrip handles POST /api/v1/shopping/complete.
func (h *Handler) CompleteTrip(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w)

	var req models.CompleteTripRequest
	if !decodeAndValidate(rw, r, &req) {
		return
	}

	source := req.Source
	if source == "" {
		source = "manual"
	}

	// Normalize before persisting: a rejected request must not leave an
	// empty event in the history.
	items := models.NormalizeItems(req.Items)
	if len(items) == 0 {
		rw.BadRequest("no valid items after normalization")
		return
	}

	event, err := h.transactions.AppendEvent(r.Context(), models.ShoppingEvent{
		HouseholdID: req.HouseholdID,
		Items:       items,
		Date:        h.now(),
		Source:      source,
	})
	if err != nil {
		rw.InternalError(err)
		return
	}

	rw.Created(event)
}

// ReportForgotten handles POST /api/v1/forgotten/add.
func (h *Handler) ReportForgotten(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w)

	var req models.ForgottenRequest
	if !decodeAndValidate(rw, r, &req) {
		return
	}

	now := h.now()
	reports := make([]models.ForgottenReport, 0, len(req.Items))
	for _, item := range req.Items {
		reports = append(reports, models.ForgottenReport{
			HouseholdID: req.HouseholdID,
			EventID:     req.ShoppingEventID,
			Item:        item,
			Date:        now,
		})
	}

	if err := h.transactions.AppendForgotten(r.Context(), reports); err != nil {
		rw.InternalError(err)
		return
	}

	rw.Created(map[string]int{"recorded": len(reports)})
}

// Feedback handles POST /api/v1/feedback.
func (h *Handler) Feedback(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w)

	var req models.FeedbackRequest
	if !decodeAndValidate(rw, r, &req) {
		return
	}

	action := models.FeedbackAction(req.Action)
	item := models.NormalizeItem(req.Item)
	if item == "" {
		rw.BadRequest("item is empty after normalization")
		return
	}

	if err := h.feedback.Record(r.Context(), req.HouseholdID, item, action, h.now()); err != nil {
		rw.InternalError(err)
		return
	}

	metrics.RecordFeedback(req.Action)
	rw.Success(map[string]string{"item": item, "action": req.Action})
}

// ParseItems handles POST /api/v1/items/parse.
func (h *Handler) ParseItems(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w)

	var req models.ParseRequest
	if !decodeAndValidate(rw, r, &req) {
		return
	}

	items, err := h.parser.Parse(r.Context(), req.RawInput)
	if err != nil {
		rw.InternalError(err)
		return
	}

	rw.Success(models.ParseResponse{Items: items})
}

// Train handles POST /api/v1/train/{householdID}.
func (h *Handler) Train(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w)

	householdID := chi.URLParam(r, "householdID")
	if householdID == "" {
		rw.BadRequest("household id is required")
		return
	}

	stats, err := h.trainer.Train(r.Context(), householdID)
	if err != nil {
		rw.InternalError(err)
		return
	}

	rw.Success(stats)
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w).Success(map[string]string{"status": "healthy"})
}
