// Plantry - Grocery Intelligence for Forgetful Households
// Copyright 2026 Plantry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plantryhq/plantry

package api

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/plantryhq/plantry/internal/validation"
)

// maxBodyBytes caps request bodies. Grocery payloads are tiny; anything
// near this limit is malformed or hostile.
const maxBodyBytes = 1 << 20

// decodeAndValidate decodes the JSON body into dst and runs struct
// validation. On failure it writes the error response and returns false.
func decodeAndValidate(rw *ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(rw.w, r.Body, maxBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		rw.BadRequest("invalid JSON body")
		return false
	}

	if verr := validation.ValidateStruct(dst); verr != nil {
		rw.ValidationError(verr.Message())
		return false
	}
	return true
}
