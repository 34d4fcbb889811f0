// Vitrine - Hybrid Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitrine

package logging

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if cfg.Level != "info" {
		t.Errorf("Level = %q, want %q", cfg.Level, "info")
	}
	if cfg.Format != "json" {
		t.Errorf("Format = %q, want %q", cfg.Format, "json")
	}
	if cfg.Caller {
		t.Error("Caller = true, want false")
	}
	if !cfg.Timestamp {
		t.Error("Timestamp = false, want true")
	}
}

func TestInit(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Timestamp: true, Output: &buf})
	defer Init(DefaultConfig())

	Info().Str("user_id", "alice").Msg("home ranked")

	out := buf.String()
	if !strings.Contains(out, "home ranked") {
		t.Errorf("output missing message: %s", out)
	}
	if !strings.Contains(out, `"level":"info"`) {
		t.Errorf("output missing level: %s", out)
	}
	if !strings.Contains(out, `"user_id":"alice"`) {
		t.Errorf("output missing field: %s", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"panic", zerolog.PanicLevel},
		{"disabled", zerolog.Disabled},
		{"DEBUG", zerolog.DebugLevel},
		{"bogus", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			if got := parseLevel(tt.input); got != tt.want {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "info", Format: "console", Output: &buf})
	defer Init(DefaultConfig())

	Info().Msg("console line")

	out := buf.String()
	if strings.Contains(out, `"level"`) {
		t.Errorf("console output looks like JSON: %s", out)
	}
	if !strings.Contains(out, "console line") {
		t.Errorf("output missing message: %s", out)
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(NewTestLogger(&buf))
	defer Init(DefaultConfig())

	l := WithComponent("similarity")
	l.Info().Msg("rebuilt")

	if !strings.Contains(buf.String(), `"component":"similarity"`) {
		t.Errorf("output missing component: %s", buf.String())
	}
}

func TestErr(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(zerolog.New(&buf))
	defer Init(DefaultConfig())

	Err(errors.New("disk full")).Msg("write failed")

	if !strings.Contains(buf.String(), "disk full") {
		t.Errorf("output missing error: %s", buf.String())
	}
}

func TestSetLevelString(t *testing.T) {
	original := zerolog.GlobalLevel()
	defer zerolog.SetGlobalLevel(original)

	SetLevelString("error")
	if got := zerolog.GlobalLevel(); got != zerolog.ErrorLevel {
		t.Errorf("GlobalLevel() = %v, want %v", got, zerolog.ErrorLevel)
	}
}

func TestInit_BaseFields(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "info", Format: "json", Version: "1.2.3", Output: &buf})
	defer Init(DefaultConfig())

	Warn().Msg("slow request")

	out := buf.String()
	if !strings.Contains(out, `"service":"vitrine"`) {
		t.Errorf("output missing service: %s", out)
	}
	if !strings.Contains(out, `"version":"1.2.3"`) {
		t.Errorf("output missing version: %s", out)
	}
	if !strings.Contains(out, `"level":"warn"`) {
		t.Errorf("output missing level: %s", out)
	}
}

func TestInit_DebugSampling(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", DebugSampleN: 4, Output: &buf})
	defer Init(DefaultConfig())

	for i := 0; i < 8; i++ {
		Debug().Int("i", i).Msg("ranked")
	}
	Info().Msg("kept")

	if got := strings.Count(buf.String(), `"message":"ranked"`); got != 2 {
		t.Errorf("sampled debug lines = %d, want 2", got)
	}
	if !strings.Contains(buf.String(), "kept") {
		t.Errorf("info line dropped by debug sampler: %s", buf.String())
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "warn", Format: "json", Output: &buf})
	defer Init(DefaultConfig())

	Info().Msg("filtered")
	Error().Msg("visible")

	if strings.Contains(buf.String(), "filtered") {
		t.Errorf("info line written at warn level: %s", buf.String())
	}
	if !strings.Contains(buf.String(), "visible") {
		t.Errorf("error line missing: %s", buf.String())
	}
}
