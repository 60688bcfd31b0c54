// Plantry - Grocery Intelligence for Forgetful Households
// Copyright 2026 Plantry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plantryhq/plantry

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/plantryhq/plantry/internal/config"
	"github.com/plantryhq/plantry/internal/middleware"
)

// NewRouter builds the chi router with the full middleware stack and all
// API routes.
func NewRouter(cfg config.ServerConfig, handler *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(httprate.LimitByIP(cfg.RateLimitReqs, cfg.RateLimitWindow))
		r.Use(middleware.PrometheusMetrics)

		r.Post("/suggestions/infer", handler.Suggest)
		r.Post("/train/{householdID}", handler.Train)

		r.Post("/shopping/complete", handler.CompleteTrip)
		r.Post("/forgotten/add", handler.ReportForgotten)

		r.Get("/activity/history", handler.ActivityHistory)
		r.Get("/activity/recent", handler.ActivityRecent)
		r.Get("/insights/household", handler.HouseholdInsights)
		r.Get("/insights/fact", handler.InsightsFact)

		r.Post("/feedback", handler.Feedback)
		r.Post("/items/parse", handler.ParseItems)

		r.Delete("/households/{householdID}", handler.EraseHousehold)
	})

	r.Get("/health", handler.Health)
	r.Handle("/metrics", promhttp.Handler())

	return r
}
