// Plantry - Grocery Intelligence for Forgetful Households
// Copyright 2026 Plantry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plantryhq/plantry

// Package jobs runs the background services: periodic model retraining,
// expired-feedback cleanup, value-log garbage collection, and analytics
// export. Services implement suture.Service and restart with backoff on
// failure under one supervisor.
package jobs

import (
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/plantryhq/plantry/internal/logging"
)

// NewSupervisor builds the supervisor for all background services, with
// suture events routed to the structured log.
func NewSupervisor() *suture.Supervisor {
	log := logging.With().Str("component", "jobs").Logger()

	return suture.New("plantry-jobs", suture.Spec{
		EventHook: func(event suture.Event) {
			log.Warn().Interface("details", event.Map()).Msg(event.String())
		},
		FailureThreshold: 5,
		FailureDecay:     30,
		FailureBackoff:   15 * time.Second,
		Timeout:          10 * time.Second,
	})
}
