// Vitrine - Hybrid Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitrine

package recommend

import (
	"testing"
	"time"

	"github.com/tomtom215/vitrine/internal/interactions"
	"github.com/tomtom215/vitrine/internal/models"
)

func TestResolveState(t *testing.T) {
	horizon := 30 * 24 * time.Hour

	tests := []struct {
		name    string
		profile *interactions.Profile
		want    models.UserState
	}{
		{"nil profile", nil, models.UserStateNew},
		{"no events", &interactions.Profile{UserID: "a"}, models.UserStateNew},
		{"recent", &interactions.Profile{Events: 1, LastEvent: t0.Add(-time.Hour)}, models.UserStateActive},
		{"at horizon", &interactions.Profile{Events: 1, LastEvent: t0.Add(-horizon)}, models.UserStateActive},
		{"past horizon", &interactions.Profile{Events: 4, LastEvent: t0.Add(-horizon - time.Second)}, models.UserStateStale},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveState(tt.profile, t0, horizon); got != tt.want {
				t.Errorf("ResolveState() = %q, want %q", got, tt.want)
			}
		})
	}
}
