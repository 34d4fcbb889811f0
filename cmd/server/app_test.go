// Vitrine - Hybrid Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitrine

package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/vitrine/internal/config"
	"github.com/tomtom215/vitrine/internal/models"
)

const testProductsCSV = `id,name,main_category,sub_category,image,link,ratings,no_of_ratings,discount_price,actual_price
A000000001,Oak Coffee Table,Home,Home Furnishing,,,4.6,88,,
A000000002,Walnut Coffee Table,Home,Home Furnishing,,,4.1,40,,
A000000003,Steel Chronograph Watch,Fashion,Watches,,,4.4,310,,
`

func TestHistoryDays(t *testing.T) {
	tests := []struct {
		name      string
		history   int
		periods   int
		period    time.Duration
		retention int
		want      int
	}{
		{"retention dominates", 30, 30, 24 * time.Hour, 90, 90},
		{"horizon dominates", 10, 60, 24 * time.Hour, 20, 61},
		{"history dominates", 120, 30, 24 * time.Hour, 120, 120},
		{"hourly periods", 7, 48, time.Hour, 7, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{
				Ranker: config.RankerConfig{
					HistoryDays:      tt.history,
					StalenessPeriods: tt.periods,
					StalenessPeriod:  tt.period,
				},
				Store: config.StoreConfig{RetentionDays: tt.retention},
			}
			if got := historyDays(cfg); got != tt.want {
				t.Errorf("historyDays() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRankerConfig(t *testing.T) {
	cfg := &config.Config{Ranker: config.RankerConfig{
		ClickedWeight:    0.6,
		SearchWeight:     0.3,
		DiversityWeight:  0.1,
		StalenessPeriods: 7,
		StalenessPeriod:  24 * time.Hour,
		TopCategories:    []string{"Watches"},
		DefaultLimit:     15,
	}}

	rc := rankerConfig(cfg)
	if rc.Weights.Clicked != 0.6 || rc.Weights.Search != 0.3 || rc.Weights.Diversity != 0.1 {
		t.Errorf("Weights = %+v, want 0.6/0.3/0.1", rc.Weights)
	}
	if rc.StalenessHorizon != 7*24*time.Hour {
		t.Errorf("StalenessHorizon = %v, want 168h", rc.StalenessHorizon)
	}
	if len(rc.TopCategories) != 1 || rc.TopCategories[0] != "Watches" {
		t.Errorf("TopCategories = %v, want [Watches]", rc.TopCategories)
	}
	if rc.DefaultLimit != 15 {
		t.Errorf("DefaultLimit = %d, want 15", rc.DefaultLimit)
	}
	if err := rc.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func newTestApp(t *testing.T) *app {
	t.Helper()

	csvPath := filepath.Join(t.TempDir(), "products.csv")
	if err := os.WriteFile(csvPath, []byte(testProductsCSV), 0o600); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "absent.yaml"))
	t.Setenv("DUCKDB_PATH", ":memory:")
	t.Setenv("CATALOG_IMPORT_CSV", csvPath)
	t.Setenv("STORE_IN_MEMORY", "true")
	t.Setenv("NATS_ENABLED", "false")

	cfg, err := config.LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	a, err := newApp(context.Background(), cfg)
	if err != nil {
		t.Fatalf("newApp() error = %v", err)
	}
	t.Cleanup(func() { a.close(context.Background()) })
	return a
}

func serve(t *testing.T, a *app, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	a.server.Handler.ServeHTTP(rec, req)
	return rec
}

func TestApp_ReadyAfterSnapshots(t *testing.T) {
	a := newTestApp(t)

	if rec := serve(t, a, http.MethodGet, "/api/v1/health/ready", ""); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("ready before build = %d, want 503", rec.Code)
	}

	a.buildSnapshots(context.Background())

	rec := serve(t, a, http.MethodGet, "/api/v1/health/ready", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("ready after build = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Data models.HealthResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, name := range []string{"catalog", "similarity", "popularity", "cooccurrence"} {
		if resp.Data.Snapshots[name] == 0 {
			t.Errorf("snapshot %q version = 0, want > 0", name)
		}
	}
}

func TestApp_RecordAndRank(t *testing.T) {
	a := newTestApp(t)
	a.buildSnapshots(context.Background())

	rec := serve(t, a, http.MethodPost, "/api/v1/interactions",
		`{"user_id":"u1","event_type":"click","product_id":"A000000001"}`)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("POST interaction = %d, want 204: %s", rec.Code, rec.Body.String())
	}

	rec = serve(t, a, http.MethodGet, "/api/v1/interactions/u1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET interactions = %d, want 200", rec.Code)
	}
	var history struct {
		Data models.InteractionsResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &history); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(history.Data.Events) != 1 || history.Data.Events[0].ItemID != "A000000001" {
		t.Errorf("events = %+v, want one click on A000000001", history.Data.Events)
	}

	rec = serve(t, a, http.MethodGet, "/api/v1/recommendations/product/A000000001", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET similar = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var similar struct {
		Data models.SimilarResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &similar); err != nil {
		t.Fatalf("decode: %v", err)
	}
	found := false
	for _, it := range similar.Data.Similar {
		if it.ID == "A000000001" {
			t.Error("similar items contain the source product")
		}
		if it.ID == "A000000002" {
			found = true
		}
	}
	if !found {
		t.Errorf("similar items %+v do not include A000000002", similar.Data.Similar)
	}

	rec = serve(t, a, http.MethodGet, "/api/v1/recommendations/home?user_id=u1", "")
	if rec.Code != http.StatusOK {
		t.Errorf("GET home = %d, want 200", rec.Code)
	}
}

func TestApp_UnknownProduct(t *testing.T) {
	a := newTestApp(t)
	a.buildSnapshots(context.Background())

	tests := []struct {
		id   string
		want int
	}{
		{"ZZZZZZZZZZ", http.StatusNotFound},
		{"UNKNOWNID01", http.StatusNotFound},
		{"lowercase", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			rec := serve(t, a, http.MethodGet, "/api/v1/recommendations/product/"+tt.id, "")
			if rec.Code != tt.want {
				t.Errorf("GET similar for %s = %d, want %d", tt.id, rec.Code, tt.want)
			}
		})
	}
}
