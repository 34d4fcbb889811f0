// Vitrine - Hybrid Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitrine

package query

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/tomtom215/vitrine/internal/models"
)

// DefaultSynonyms is the built-in synonym table.
func DefaultSynonyms() map[string]string {
	return map[string]string{
		"earbuds":    "earphones",
		"tv":         "television",
		"laptop":     "notebook",
		"cellphone":  "mobile",
		"smartphone": "mobile",
	}
}

// Expansion is a normalized query with its synonym expansion.
type Expansion struct {
	// Query is the trimmed, lowercased input.
	Query string

	// Terms are the distinct query tokens in input order.
	Terms []string

	// Expanded holds Terms plus their synonyms.
	Expanded mapset.Set[string]

	synonyms map[string]string
}

// ExpandedTerms returns the expanded token set in sorted order.
func (e Expansion) ExpandedTerms() []string {
	if e.Expanded == nil {
		return nil
	}
	return mapset.Sorted(e.Expanded)
}

// SynonymOf returns the synonym used for term, "" when none.
func (e Expansion) SynonymOf(term string) string {
	return e.synonyms[term]
}

// Expander applies a synonym table.
type Expander struct {
	synonyms map[string]string
}

// NewExpander creates an expander; a nil table uses DefaultSynonyms.
func NewExpander(synonyms map[string]string) *Expander {
	if synonyms == nil {
		synonyms = DefaultSynonyms()
	}
	table := make(map[string]string, len(synonyms))
	for from, to := range synonyms {
		from, to = strings.ToLower(strings.TrimSpace(from)), strings.ToLower(strings.TrimSpace(to))
		if from != "" && to != "" && from != to {
			table[from] = to
		}
	}
	return &Expander{synonyms: table}
}

// Expand normalizes and expands q. Empty queries and queries longer than
// models.MaxQueryLength characters are rejected with a ValidationError.
func (x *Expander) Expand(q string) (Expansion, error) {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return Expansion{}, models.NewValidationError("query", "must not be empty")
	}
	if utf8.RuneCountInString(q) > models.MaxQueryLength {
		return Expansion{}, models.NewValidationError("query",
			fmt.Sprintf("must be at most %d characters", models.MaxQueryLength))
	}

	tokens := Tokens(q)
	if len(tokens) == 0 {
		return Expansion{}, models.NewValidationError("query", "must contain a letter or digit")
	}

	exp := Expansion{
		Query:    q,
		Expanded: mapset.NewThreadUnsafeSet[string](),
		synonyms: make(map[string]string),
	}
	seen := mapset.NewThreadUnsafeSet[string]()
	for _, tok := range tokens {
		if !seen.Add(tok) {
			continue
		}
		exp.Terms = append(exp.Terms, tok)
		exp.Expanded.Add(tok)
		if syn, ok := x.synonyms[tok]; ok {
			exp.Expanded.Add(syn)
			exp.synonyms[tok] = syn
		}
	}
	return exp, nil
}

// Tokens splits lowercased text on whitespace and punctuation.
func Tokens(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r)
	})
}
