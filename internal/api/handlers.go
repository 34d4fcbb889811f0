// Vitrine - Hybrid Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitrine

package api

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/vitrine/internal/logging"
	"github.com/tomtom215/vitrine/internal/models"
	"github.com/tomtom215/vitrine/internal/validation"
)

// Recommender is the ranking core the handlers serve.
type Recommender interface {
	RankHome(ctx context.Context, userID string, limit int) (*models.HomeResponse, error)
	RankSimilar(ctx context.Context, itemID string, limit int) (*models.SimilarResponse, error)
	RankSearch(ctx context.Context, userID, query string, limit int) (*models.SearchResponse, error)
	RecordInteraction(ctx context.Context, ev models.InteractionEvent) (models.InteractionEvent, error)
	ReadInteractions(ctx context.Context, userID string, days int) ([]models.InteractionEvent, error)
}

// Readiness reports the version of every snapshot the ranker depends on.
// A version of zero means the snapshot was never built.
type Readiness interface {
	Snapshots() map[string]uint64
}

// HandlerDeps wires a Handler. Readiness and Users may be nil.
type HandlerDeps struct {
	Recommender Recommender
	Readiness   Readiness
	Users       *UserLimiter
	Limits      Limits
	Version     string
}

// Handler serves the /api/v1 endpoints.
type Handler struct {
	rec       Recommender
	readiness Readiness
	users     *UserLimiter
	limits    Limits
	version   string
	startTime time.Time
}

// NewHandler creates a handler. Zero limits fall back to DefaultLimits.
func NewHandler(deps HandlerDeps) *Handler {
	if deps.Limits == (Limits{}) {
		deps.Limits = DefaultLimits()
	}
	if deps.Version == "" {
		deps.Version = "dev"
	}
	return &Handler{
		rec:       deps.Recommender,
		readiness: deps.Readiness,
		users:     deps.Users,
		limits:    deps.Limits,
		version:   deps.Version,
		startTime: time.Now(),
	}
}

// Home handles GET /api/v1/recommendations/home.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	limit, err := parseBoundedInt(r, "limit", h.limits.Home)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	req := HomeRequest{UserID: r.URL.Query().Get("user_id"), Limit: limit}
	if ve := validation.ValidateStruct(&req); ve != nil {
		respondValidation(w, r, ve)
		return
	}

	ctx := logging.ContextWithUserID(r.Context(), req.UserID)
	resp, err := h.rec.RankHome(ctx, req.UserID, req.Limit)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, resp, start)
}

// Similar handles GET /api/v1/recommendations/product/{itemID}.
func (h *Handler) Similar(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	limit, err := parseBoundedInt(r, "limit", h.limits.Home)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	req := SimilarRequest{ItemID: chi.URLParam(r, "itemID"), Limit: limit}
	if ve := validation.ValidateStruct(&req); ve != nil {
		respondValidation(w, r, ve)
		return
	}

	resp, err := h.rec.RankSimilar(r.Context(), req.ItemID, req.Limit)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, resp, start)
}

// Search handles GET /api/v1/recommendations/search.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	limit, err := parseBoundedInt(r, "limit", h.limits.Search)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	q := r.URL.Query()
	req := SearchRequest{Query: q.Get("query"), UserID: q.Get("user_id"), Limit: limit}
	if ve := validation.ValidateStruct(&req); ve != nil {
		respondValidation(w, r, ve)
		return
	}

	ctx := logging.ContextWithUserID(r.Context(), req.UserID)
	resp, err := h.rec.RankSearch(ctx, req.UserID, req.Query, req.Limit)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, resp, start)
}

// RecordInteraction handles POST /api/v1/interactions and answers 204.
func (h *Handler) RecordInteraction(w http.ResponseWriter, r *http.Request) {
	var req InteractionRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		msg := "Request body must be a JSON object"
		if errors.As(err, &tooLarge) {
			msg = "Request body too large"
		}
		respondError(w, r, http.StatusBadRequest, CodeValidation, msg, nil)
		return
	}
	if ve := validation.ValidateStruct(&req); ve != nil {
		respondValidation(w, r, ve)
		return
	}

	if h.users != nil && !h.users.Allow(req.UserID) {
		respondError(w, r, http.StatusTooManyRequests, CodeRateLimited, "Too many interactions for this user", nil)
		return
	}

	ctx := logging.ContextWithUserID(r.Context(), req.UserID)
	stored, err := h.rec.RecordInteraction(ctx, req.Event())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	logging.Ctx(ctx).Debug().
		Str("event_id", stored.ID).
		Str("event_type", string(stored.Kind)).
		Msg("interaction recorded")
	w.WriteHeader(http.StatusNoContent)
}

// Interactions handles GET /api/v1/interactions/{userID}.
func (h *Handler) Interactions(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	days, err := parseBoundedInt(r, "days", h.limits.Days)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	req := InteractionsRequest{UserID: chi.URLParam(r, "userID"), Days: days}
	if ve := validation.ValidateStruct(&req); ve != nil {
		respondValidation(w, r, ve)
		return
	}

	events, err := h.rec.ReadInteractions(r.Context(), req.UserID, req.Days)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, models.InteractionsResponse{
		UserID: req.UserID,
		Days:   req.Days,
		Events: events,
	}, start)
}

// HealthLive answers 200 while the process is running.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	}, time.Now())
}

// HealthReady answers 200 once every snapshot has been built at least once,
// 503 otherwise.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	snapshots := map[string]uint64{}
	if h.readiness != nil {
		snapshots = h.readiness.Snapshots()
	}

	ready := true
	var missing []string
	for name, version := range snapshots {
		if version == 0 {
			ready = false
			missing = append(missing, name)
		}
	}

	slices.Sort(missing)

	health := models.HealthResponse{
		Status:    "ready",
		Version:   h.version,
		Snapshots: snapshots,
		Uptime:    time.Since(h.startTime).Seconds(),
	}
	if !ready {
		health.Status = "not_ready"
		respondJSON(w, http.StatusServiceUnavailable, &models.APIResponse{
			Status:   "error",
			Data:     health,
			Metadata: models.Metadata{Timestamp: time.Now().UTC()},
			Error: &models.APIError{
				Code:    CodeUnavailable,
				Message: "Snapshots not built yet",
				Details: map[string]interface{}{"missing": missing},
			},
		})
		return
	}
	respondSuccess(w, health, time.Now())
}
