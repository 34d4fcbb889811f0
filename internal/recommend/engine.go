// Vitrine - Hybrid Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitrine

package recommend

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/vitrine/internal/catalog"
	"github.com/tomtom215/vitrine/internal/interactions"
	"github.com/tomtom215/vitrine/internal/logging"
	"github.com/tomtom215/vitrine/internal/metrics"
	"github.com/tomtom215/vitrine/internal/models"
	"github.com/tomtom215/vitrine/internal/query"
)

// Deps wires the ranker to its data sources. Publisher may be nil.
type Deps struct {
	Catalog    *catalog.Holder
	Store      EventStore
	Profiles   Profiles
	Similarity Neighbors
	Popularity Popularity
	Rules      Rules
	Expander   *query.Expander
	Publisher  Publisher
}

// Ranker produces home, similar-item and search rankings. It is safe for
// concurrent use.
type Ranker struct {
	cfg    Config
	deps   Deps
	logger zerolog.Logger
}

// NewRanker validates cfg and returns a ranker.
func NewRanker(cfg Config, deps Deps) (*Ranker, error) {
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid ranker config: %w", err)
	}
	switch {
	case deps.Catalog == nil:
		return nil, errors.New("ranker requires a catalog")
	case deps.Store == nil || deps.Profiles == nil:
		return nil, errors.New("ranker requires an interaction store and profile cache")
	case deps.Similarity == nil || deps.Popularity == nil || deps.Rules == nil:
		return nil, errors.New("ranker requires similarity, popularity and rule sources")
	}
	if deps.Expander == nil {
		deps.Expander = query.NewExpander(nil)
	}
	return &Ranker{
		cfg:    cfg,
		deps:   deps,
		logger: logging.WithComponent("recommend"),
	}, nil
}

func (r *Ranker) limitOrDefault(limit int) int {
	if limit <= 0 {
		return r.cfg.DefaultLimit
	}
	return limit
}

// State resolves the user's current state.
func (r *Ranker) State(ctx context.Context, userID string) (models.UserState, *interactions.Profile, error) {
	if userID == "" {
		return models.UserStateNew, nil, nil
	}
	if !models.UserIDPattern.MatchString(userID) {
		return "", nil, models.NewValidationError("user_id", "must be 1-50 alphanumeric characters")
	}
	p, err := r.deps.Profiles.Get(ctx, userID)
	if err != nil {
		return "", nil, fmt.Errorf("load profile: %w", err)
	}
	return ResolveState(p, r.cfg.Now(), r.cfg.StalenessHorizon), p, nil
}

// RankHome builds the home feed. An empty userID is an anonymous new user.
func (r *Ranker) RankHome(ctx context.Context, userID string, limit int) (*models.HomeResponse, error) {
	start := time.Now()
	limit = r.limitOrDefault(limit)
	log := logging.WithContext(ctx, r.logger)

	state, profile, err := r.State(ctx, userID)
	if err != nil {
		return nil, err
	}
	metrics.RecordUserState(string(state))

	cat := r.deps.Catalog.Load()
	rng := userRand(r.cfg.Seed, userID)

	resp := &models.HomeResponse{
		UserState:     state,
		Personalized:  []models.RankedItem{},
		Trending:      r.trending(cat, limit),
		BestValue:     summaries(cat.BestValue(limit)),
		TopCategories: r.topCategories(cat, limit),
		DiversePicks:  summaries(stratifiedSample(cat, nil, nil, limit, rng)),
	}

	if state == models.UserStateActive {
		personalized := r.personalize(ctx, log, cat, profile, limit, rng)
		if len(personalized) == 0 {
			resp.FallbackReason = models.FallbackNoPersonalSignal
			personalized = r.trendingRanked(cat, limit, clickedSet(profile))
		}
		resp.Personalized = truncate(personalized, limit)
	}

	metrics.RecordRank("home", time.Since(start), resp.FallbackReason)
	log.Debug().
		Str("user_state", string(state)).
		Int("personalized", len(resp.Personalized)).
		Str("fallback_reason", resp.FallbackReason).
		Msg("home ranked")
	return resp, nil
}

// personalize gathers the active-user signals and merges them.
func (r *Ranker) personalize(ctx context.Context, log zerolog.Logger, cat *catalog.Catalog, p *interactions.Profile, limit int, rng *rand.Rand) []models.RankedItem {
	var clicked, searched scores

	var g errgroup.Group
	g.Go(func() error {
		s, err := clickedScores(ctx, r.deps.Similarity, p, cat)
		if err != nil {
			r.signalFailed(log, models.SignalClicked, err)
			return nil
		}
		clicked = s
		return nil
	})
	g.Go(func() error {
		s, err := searchScores(ctx, r.deps.Expander, p, cat)
		if err != nil {
			r.signalFailed(log, models.SignalSearch, err)
			return nil
		}
		searched = s
		return nil
	})
	_ = g.Wait()

	diverse := diversityScores(cat, []scores{clicked, searched}, p.Clicks, limit, rng)

	w := r.cfg.Weights
	return compose(cat, []weightedSignal{
		{models.SignalClicked, w.Clicked, normalize(clicked)},
		{models.SignalSearch, w.Search, normalize(searched)},
		{models.SignalDiversity, w.Diversity, normalize(diverse)},
	})
}

func (r *Ranker) signalFailed(log zerolog.Logger, signal string, err error) {
	metrics.RecordSignalError(signal)
	log.Debug().Err(err).Str("signal", signal).Msg("signal unavailable, contributing zero")
}

func (r *Ranker) trending(cat *catalog.Catalog, limit int) []models.ItemSummary {
	top := r.deps.Popularity.Top(limit)
	out := make([]models.ItemSummary, 0, len(top))
	for _, s := range top {
		if it, ok := cat.Get(s.ItemID); ok {
			out = append(out, it.Summary())
		}
	}
	return out
}

// trendingRanked returns popularity-ordered items not in skip, scored by
// their decayed popularity.
func (r *Ranker) trendingRanked(cat *catalog.Catalog, limit int, skip map[string]struct{}) []models.RankedItem {
	top := r.deps.Popularity.Top(limit + len(skip))
	out := make([]models.RankedItem, 0, min(limit, len(top)))
	for _, s := range top {
		if len(out) >= limit {
			break
		}
		if _, dup := skip[s.ItemID]; dup {
			continue
		}
		it, ok := cat.Get(s.ItemID)
		if !ok {
			continue
		}
		out = append(out, models.RankedItem{
			ItemSummary: it.Summary(),
			Score:       s.Score,
			Signals:     map[string]float64{models.SignalPopularity: s.Score},
		})
	}
	return out
}

// clickedSet returns the IDs p has clicked.
func clickedSet(p *interactions.Profile) map[string]struct{} {
	out := make(map[string]struct{}, len(p.Clicks))
	for id := range p.Clicks {
		out[id] = struct{}{}
	}
	return out
}

func (r *Ranker) topCategories(cat *catalog.Catalog, limit int) map[string][]models.ItemSummary {
	subs := r.cfg.TopCategories
	if len(subs) == 0 {
		subs = r.deps.Popularity.TopSubCategories(r.cfg.TopCategoryCount)
	}
	out := make(map[string][]models.ItemSummary, len(subs))
	for _, sub := range subs {
		out[sub] = summaries(cat.InSubCategory(sub, limit))
	}
	return out
}

// RankSimilar returns the content neighbors of itemID.
func (r *Ranker) RankSimilar(ctx context.Context, itemID string, limit int) (*models.SimilarResponse, error) {
	start := time.Now()
	limit = r.limitOrDefault(limit)

	if !models.ItemRefPattern.MatchString(itemID) {
		return nil, models.NewValidationError("item_id", "must be 1-50 uppercase alphanumeric characters")
	}
	cat := r.deps.Catalog.Load()
	if _, err := cat.Lookup(itemID); err != nil {
		return nil, err
	}
	edges, err := r.deps.Similarity.Neighbors(itemID, 0)
	if err != nil {
		return nil, fmt.Errorf("similar items for %s: %w", itemID, err)
	}

	similar := make([]models.RankedItem, 0, min(limit, len(edges)))
	for _, e := range edges {
		if len(similar) >= limit {
			break
		}
		it, ok := cat.Get(e.To)
		if !ok {
			continue
		}
		similar = append(similar, models.RankedItem{
			ItemSummary: it.Summary(),
			Score:       e.Score,
			Signals:     map[string]float64{models.SignalSimilarity: e.Score},
		})
	}

	metrics.RecordRank("similar", time.Since(start), "")
	log := logging.WithContext(ctx, r.logger)
	log.Debug().Str("item_id", itemID).Int("similar", len(similar)).Msg("similar ranked")
	return &models.SimilarResponse{ItemID: itemID, Similar: similar}, nil
}

// RankSearch matches query against the catalog. userID is optional; when
// given and nothing matches, the user's last click seeds co-occurring
// results ahead of trending ones.
func (r *Ranker) RankSearch(ctx context.Context, userID, q string, limit int) (*models.SearchResponse, error) {
	start := time.Now()
	limit = r.limitOrDefault(limit)
	log := logging.WithContext(ctx, r.logger)

	if userID != "" && !models.UserIDPattern.MatchString(userID) {
		return nil, models.NewValidationError("user_id", "must be 1-50 alphanumeric characters")
	}
	exp, err := r.deps.Expander.Expand(q)
	if err != nil {
		return nil, err
	}

	cat := r.deps.Catalog.Load()
	resp := &models.SearchResponse{
		Query:         exp.Query,
		ExpandedTerms: exp.ExpandedTerms(),
	}

	matches := query.MatchItems(exp, cat.Items(), limit)
	if len(matches) > 0 {
		resp.Results = make([]models.RankedItem, len(matches))
		for i, m := range matches {
			resp.Results[i] = models.RankedItem{
				ItemSummary: m.Item.Summary(),
				Score:       m.Score,
				Signals:     map[string]float64{models.SignalMatch: m.Score},
			}
		}
		metrics.RecordRank("search", time.Since(start), "")
		return resp, nil
	}

	resp.FallbackReason = models.FallbackNoSearchMatches
	resp.Results = r.searchFallback(ctx, log, cat, userID, limit)

	metrics.RecordRank("search", time.Since(start), resp.FallbackReason)
	log.Debug().Str("query", exp.Query).Int("results", len(resp.Results)).Msg("search fell back")
	return resp, nil
}

func (r *Ranker) searchFallback(ctx context.Context, log zerolog.Logger, cat *catalog.Catalog, userID string, limit int) []models.RankedItem {
	results := make([]models.RankedItem, 0, limit)
	seen := make(map[string]struct{})

	if userID != "" {
		p, err := r.deps.Profiles.Get(ctx, userID)
		switch {
		case err != nil:
			r.signalFailed(log, models.SignalCoOccurring, err)
		case p.LastClick != "":
			seen[p.LastClick] = struct{}{}
			for _, rule := range r.deps.Rules.CoOccurring(p.LastClick, 0) {
				if len(results) >= limit {
					break
				}
				it, ok := cat.Get(rule.Consequent)
				if !ok {
					continue
				}
				seen[it.ID] = struct{}{}
				results = append(results, models.RankedItem{
					ItemSummary: it.Summary(),
					Score:       rule.Confidence,
					Signals:     map[string]float64{models.SignalCoOccurring: rule.Confidence},
				})
			}
		}
	}

	if remaining := limit - len(results); remaining > 0 {
		results = append(results, r.trendingRanked(cat, remaining, seen)...)
	}
	return results
}

// RecordInteraction durably stores ev, invalidates the user's cached
// profile and publishes the event. A publish failure is logged, not
// returned, since the event is already durable.
func (r *Ranker) RecordInteraction(ctx context.Context, ev models.InteractionEvent) (models.InteractionEvent, error) {
	stored, err := r.deps.Store.Record(ctx, ev)
	if err != nil {
		return models.InteractionEvent{}, err
	}
	r.deps.Profiles.Invalidate(stored.UserID)

	if r.deps.Publisher != nil {
		if err := r.deps.Publisher.PublishInteraction(ctx, stored); err != nil {
			log := logging.WithContext(ctx, r.logger)
			log.Warn().Err(err).
				Str("event_id", stored.ID).
				Msg("failed to publish interaction")
		}
	}
	return stored, nil
}

// ReadInteractions returns the user's events of the last days days in
// timestamp order.
func (r *Ranker) ReadInteractions(ctx context.Context, userID string, days int) ([]models.InteractionEvent, error) {
	events := []models.InteractionEvent{}
	for ev, err := range r.deps.Store.Read(ctx, userID, days) {
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}

func summaries(items []*models.Item) []models.ItemSummary {
	out := make([]models.ItemSummary, len(items))
	for i, it := range items {
		out[i] = it.Summary()
	}
	return out
}
