// Plantry - Grocery Intelligence for Forgetful Households
// Copyright 2026 Plantry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plantryhq/plantry

package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plantryhq/plantry/internal/config"
	"github.com/plantryhq/plantry/internal/mining"
	"github.com/plantryhq/plantry/internal/models"
	"github.com/plantryhq/plantry/internal/parse"
	"github.com/plantryhq/plantry/internal/store"
	"github.com/plantryhq/plantry/internal/suggest"
)

type testAPI struct {
	handler *Handler
	router  http.Handler
	stores  struct {
		transactions *store.TransactionStore
		modelStore   *store.ModelStore
		feedback     *store.FeedbackStore
	}
}

type envelope struct {
	Status   string           `json:"status"`
	Data     json.RawMessage  `json:"data"`
	Metadata models.Metadata  `json:"metadata"`
	Error    *models.APIError `json:"error"`
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	db, err := store.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	transactions := store.NewTransactionStore(db)
	modelStore := store.NewModelStore(db)
	feedback := store.NewFeedbackStore(db, 7*24*time.Hour, 0.85, 0.3)

	miningCfg := config.MiningConfig{
		MinSupport:    0.05,
		MinConfidence: 0.35,
		ForgetAlpha:   1,
		ForgetBeta:    2,
		MinEvents:     1,
	}
	suggestCfg := config.SuggestConfig{
		AssociationWeight:   0.55,
		ForgetWeight:        0.30,
		TemporalWeight:      0.15,
		RecencyHalfLifeDays: 180,
		MinForgetEvidence:   5,
		MaxSuggestions:      7,
	}

	trainer := mining.NewTrainer(transactions, modelStore, miningCfg)
	engine := suggest.NewEngine(modelStore, feedback, suggestCfg, nil)
	parser := parse.NewService(config.ParseConfig{Provider: "fallback"})

	handler := NewHandler(db, transactions, modelStore, feedback, engine, trainer, parser)
	handler.now = func() time.Time { return time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC) }

	api := &testAPI{
		handler: handler,
		router: NewRouter(config.ServerConfig{
			RateLimitReqs:   1000,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{"*"},
		}, handler),
	}
	api.stores.transactions = transactions
	api.stores.modelStore = modelStore
	api.stores.feedback = feedback
	return api
}

func (a *testAPI) do(t *testing.T, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)
	rec, env := api.do(t, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", env.Status)
}

func TestCompleteTrip(t *testing.T) {
	api := newTestAPI(t)

	rec, env := api.do(t, http.MethodPost, "/api/v1/shopping/complete", models.CompleteTripRequest{
		HouseholdID: "h1",
		Items:       []string{" Milk ", "BREAD", "milk"},
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	var event models.ShoppingEvent
	require.NoError(t, json.Unmarshal(env.Data, &event))
	assert.NotEmpty(t, event.ID)
	assert.Equal(t, []string{"milk", "bread"}, event.Items)
	assert.Equal(t, "manual", event.Source)

	events, err := api.stores.transactions.ListShoppingEvents(context.Background(), "h1")
	require.NoError(t, err)
	require.Len(t, events, 1)
}

func TestCompleteTripValidation(t *testing.T) {
	api := newTestAPI(t)

	rec, env := api.do(t, http.MethodPost, "/api/v1/shopping/complete", models.CompleteTripRequest{
		HouseholdID: "h1",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, ErrCodeValidationFailed, env.Error.Code)
}

func TestCompleteTripBlankItems(t *testing.T) {
	api := newTestAPI(t)

	// Whitespace-only items pass the body validation but normalize away;
	// the rejected request must not leave an event behind.
	rec, env := api.do(t, http.MethodPost, "/api/v1/shopping/complete", models.CompleteTripRequest{
		HouseholdID: "h1",
		Items:       []string{"   ", " "},
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, ErrCodeBadRequest, env.Error.Code)

	events, err := api.stores.transactions.ListShoppingEvents(context.Background(), "h1")
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestCompleteTripMalformedJSON(t *testing.T) {
	api := newTestAPI(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/shopping/complete", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	api.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReportForgottenAndTrain(t *testing.T) {
	api := newTestAPI(t)

	_, env := api.do(t, http.MethodPost, "/api/v1/shopping/complete", models.CompleteTripRequest{
		HouseholdID: "h1",
		Items:       []string{"milk", "bread"},
	})
	var event models.ShoppingEvent
	require.NoError(t, json.Unmarshal(env.Data, &event))

	rec, _ := api.do(t, http.MethodPost, "/api/v1/forgotten/add", models.ForgottenRequest{
		HouseholdID:     "h1",
		ShoppingEventID: event.ID,
		Items:           []string{"Butter"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, env = api.do(t, http.MethodPost, "/api/v1/train/h1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var stats mining.TrainStats
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.Equal(t, 1, stats.Events)
	assert.Equal(t, 1, stats.Reports)
	assert.Positive(t, stats.Rules)
}

func TestSuggestUntrainedHousehold(t *testing.T) {
	api := newTestAPI(t)

	rec, env := api.do(t, http.MethodPost, "/api/v1/suggestions/infer", models.SuggestRequest{
		HouseholdID: "ghost",
		CurrentList: []string{},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var resp models.SuggestResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	// No models yields seasonal suggestions only, never an error.
	assert.NotNil(t, resp.Suggestions)
	for _, s := range resp.Suggestions {
		assert.Equal(t, models.SuggestionSeasonal, s.Type)
	}
}

func TestSuggestAfterTraining(t *testing.T) {
	api := newTestAPI(t)
	ctx := context.Background()

	for range 3 {
		_, err := api.stores.transactions.AppendEvent(ctx, models.ShoppingEvent{
			HouseholdID: "h1",
			Items:       []string{"milk", "bread"},
			Date:        time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)
	}

	rec, _ := api.do(t, http.MethodPost, "/api/v1/train/h1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env := api.do(t, http.MethodPost, "/api/v1/suggestions/infer", models.SuggestRequest{
		HouseholdID: "h1",
		CurrentList: []string{"milk"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.SuggestResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))

	found := false
	for _, s := range resp.Suggestions {
		assert.NotEqual(t, "milk", s.Item)
		if s.Item == "bread" {
			found = true
		}
	}
	assert.True(t, found, "expected bread to be suggested alongside milk")
}

func TestFeedbackBlock(t *testing.T) {
	api := newTestAPI(t)

	rec, _ := api.do(t, http.MethodPost, "/api/v1/feedback", models.FeedbackRequest{
		HouseholdID: "h1",
		Item:        " Anchovies ",
		Action:      "block",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	blocked, err := api.stores.feedback.IsBlocked(context.Background(), "h1", "anchovies")
	require.NoError(t, err)
	assert.True(t, blocked)
}

func TestFeedbackInvalidAction(t *testing.T) {
	api := newTestAPI(t)

	rec, env := api.do(t, http.MethodPost, "/api/v1/feedback", models.FeedbackRequest{
		HouseholdID: "h1",
		Item:        "milk",
		Action:      "destroy",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, ErrCodeValidationFailed, env.Error.Code)
}

func TestParseItemsFallback(t *testing.T) {
	api := newTestAPI(t)

	rec, env := api.do(t, http.MethodPost, "/api/v1/items/parse", models.ParseRequest{
		RawInput: "Milk, bread\neggs",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.ParseResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.Equal(t, []string{"milk", "bread", "eggs"}, resp.Items)
}

func TestActivityHistoryAndRecent(t *testing.T) {
	api := newTestAPI(t)
	ctx := context.Background()

	e1, err := api.stores.transactions.AppendEvent(ctx, models.ShoppingEvent{
		HouseholdID: "h1",
		Items:       []string{"milk"},
		Date:        time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	_, err = api.stores.transactions.AppendEvent(ctx, models.ShoppingEvent{
		HouseholdID: "h1",
		Items:       []string{"bread", "eggs"},
		Date:        time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.NoError(t, api.stores.transactions.AppendForgotten(ctx, []models.ForgottenReport{
		{HouseholdID: "h1", EventID: e1.ID, Item: "butter", Date: e1.Date},
	}))

	rec, env := api.do(t, http.MethodGet, "/api/v1/activity/history?householdId=h1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var history []models.ActivityEvent
	require.NoError(t, json.Unmarshal(env.Data, &history))
	require.Len(t, history, 2)
	// Newest first; forgotten items attach to their trip.
	assert.Equal(t, []string{"bread", "eggs"}, history[0].Items)
	assert.Empty(t, history[0].Forgotten)
	assert.Equal(t, []string{"butter"}, history[1].Forgotten)

	rec, env = api.do(t, http.MethodGet, "/api/v1/activity/recent?householdId=h1&limit=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var recent []models.ActivitySummary
	require.NoError(t, json.Unmarshal(env.Data, &recent))
	require.Len(t, recent, 1)
	assert.Equal(t, 2, recent[0].ItemCount)
}

func TestActivityHistoryRequiresHousehold(t *testing.T) {
	api := newTestAPI(t)
	rec, _ := api.do(t, http.MethodGet, "/api/v1/activity/history", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHouseholdInsights(t *testing.T) {
	api := newTestAPI(t)
	ctx := context.Background()

	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	for week := range 4 {
		_, err := api.stores.transactions.AppendEvent(ctx, models.ShoppingEvent{
			HouseholdID: "h1",
			Items:       []string{"milk", "bread"},
			Date:        base.AddDate(0, 0, 7*week),
		})
		require.NoError(t, err)
	}
	events, err := api.stores.transactions.ListShoppingEvents(ctx, "h1")
	require.NoError(t, err)
	for _, event := range events[:2] {
		require.NoError(t, api.stores.transactions.AppendForgotten(ctx, []models.ForgottenReport{
			{HouseholdID: "h1", EventID: event.ID, Item: "butter", Date: event.Date},
		}))
	}

	rec, _ := api.do(t, http.MethodPost, "/api/v1/train/h1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env := api.do(t, http.MethodGet, "/api/v1/insights/household?householdId=h1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var insights models.HouseholdInsights
	require.NoError(t, json.Unmarshal(env.Data, &insights))

	require.NotNil(t, insights.Rhythm)
	assert.Equal(t, 7, insights.Rhythm.AvgDaysBetweenTrips)
	assert.Equal(t, "frequent", insights.Rhythm.Cadence)

	require.Len(t, insights.Forgotten, 1)
	assert.Equal(t, "butter", insights.Forgotten[0].Name)
	assert.Equal(t, 2, insights.Forgotten[0].Evidence)

	require.NotEmpty(t, insights.Pairs)
	assert.Equal(t, [2]string{"bread", "milk"}, insights.Pairs[0])
}

func TestInsightsUntrainedHousehold(t *testing.T) {
	api := newTestAPI(t)

	rec, env := api.do(t, http.MethodGet, "/api/v1/insights/household?householdId=ghost", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var insights models.HouseholdInsights
	require.NoError(t, json.Unmarshal(env.Data, &insights))
	assert.Nil(t, insights.Rhythm)
	assert.Empty(t, insights.Forgotten)
	assert.Empty(t, insights.Pairs)
}

func TestInsightsFactFromTemporalModel(t *testing.T) {
	api := newTestAPI(t)
	ctx := context.Background()

	require.NoError(t, api.stores.modelStore.SaveModel(ctx, models.ModelTemporal, "h1", models.TemporalModel{
		Items: map[string]models.TemporalProfile{
			"oat milk": {AvgGapDays: 7.4, Confidence: 0.6, Pattern: models.PatternFrequent},
		},
	}))

	rec, env := api.do(t, http.MethodGet, "/api/v1/insights/fact?householdId=h1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.FactResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	require.NotNil(t, resp.Fact)
	assert.Equal(t, "temporal", resp.Fact.Type)
	assert.Equal(t, "You tend to buy Oat Milk every 7 days.", resp.Fact.Text)
}

func TestInsightsFactGatesAndRotation(t *testing.T) {
	api := newTestAPI(t)
	ctx := context.Background()

	require.NoError(t, api.stores.modelStore.SaveModel(ctx, models.ModelTemporal, "h1", models.TemporalModel{
		Items: map[string]models.TemporalProfile{
			"milk": {AvgGapDays: 7, Confidence: 0.6, Pattern: models.PatternFrequent},
			"rice": {AvgGapDays: 30, Confidence: 0.2, Pattern: models.PatternMonthly},
		},
	}))
	require.NoError(t, api.stores.modelStore.SaveModel(ctx, models.ModelForgetfulness, "h1", models.ForgetfulnessModel{
		Scores: map[string]models.ForgetScore{
			"butter": {ForgetProbability: 0.6, EvidenceCount: 6},
			"salt":   {ForgetProbability: 0.6, EvidenceCount: 2},
		},
	}))

	rec, env := api.do(t, http.MethodGet, "/api/v1/insights/fact?householdId=h1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.FactResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	require.NotNil(t, resp.Fact)

	// Low-confidence rice and thin-evidence salt are gated out, leaving
	// two candidates. March 10 is day 69 of the year, so the rotation
	// lands on the second one.
	assert.Equal(t, "forgotten", resp.Fact.Type)
	assert.Equal(t, "You usually forget Butter.", resp.Fact.Text)

	// Same day, same fact.
	_, env = api.do(t, http.MethodGet, "/api/v1/insights/fact?householdId=h1", nil)
	var again models.FactResponse
	require.NoError(t, json.Unmarshal(env.Data, &again))
	assert.Equal(t, resp.Fact, again.Fact)
}

func TestInsightsFactUntrained(t *testing.T) {
	api := newTestAPI(t)

	rec, env := api.do(t, http.MethodGet, "/api/v1/insights/fact?householdId=ghost", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.FactResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.Nil(t, resp.Fact)
}

func TestEraseHousehold(t *testing.T) {
	api := newTestAPI(t)
	ctx := context.Background()

	_, err := api.stores.transactions.AppendEvent(ctx, models.ShoppingEvent{
		HouseholdID: "h1",
		Items:       []string{"milk"},
		Date:        time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	rec, _ := api.do(t, http.MethodPost, "/api/v1/train/h1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = api.do(t, http.MethodDelete, "/api/v1/households/h1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	events, err := api.stores.transactions.ListShoppingEvents(ctx, "h1")
	require.NoError(t, err)
	assert.Empty(t, events)

	var model models.AssociationModel
	err = api.stores.modelStore.LoadModel(ctx, models.ModelAssociations, "h1", &model)
	assert.ErrorIs(t, err, store.ErrModelNotFound)
}
