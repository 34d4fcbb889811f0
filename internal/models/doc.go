// Vitrine - Hybrid Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitrine

/*
Package models defines the data structures shared across Vitrine.

Key Components:

  - Item: a catalog product, immutable within one catalog version
  - ItemSummary: the JSON shape returned to clients for every ranked item
  - InteractionEvent: one click or search recorded for a user
  - RankedItem and the Home/Search/Similar response types
  - ValidationError and NotFoundError: typed errors matched with errors.As
  - APIResponse: the standard envelope for every HTTP response

Models carry no behavior beyond formatting and validation helpers; the
ranking logic lives in the recommend package and its signal sources.
*/
package models
