// Vitrine - Hybrid Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitrine

// Package validation provides request validation using go-playground/validator v10.
//
// A single validator instance is built once with the identifier tags used
// at the HTTP boundary (userid, itemid, itemref, searchquery, eventtype) and
// reports field names by their JSON or query-parameter names.
//
//	type homeRequest struct {
//	    UserID string `query:"user_id" validate:"required,userid"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, verr)
//	    return
//	}
package validation
