// Vitrine - Hybrid Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitrine

//go:build integration

package testinfra

import (
	"os"
	"testing"

	"github.com/testcontainers/testcontainers-go"
)

// SkipEnv, when set to any non-empty value, skips every container-backed
// test even if a container runtime is available.
const SkipEnv = "VITRINE_SKIP_CONTAINERS"

// SkipIfNoDocker skips t when containers are disabled through SkipEnv or
// the container provider does not answer a health check.
func SkipIfNoDocker(t *testing.T) {
	t.Helper()

	if os.Getenv(SkipEnv) != "" {
		t.Skipf("Skipping test: %s is set", SkipEnv)
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)
}

// CleanupContainer terminates container when t finishes. A nil container
// is ignored so callers can register cleanup before checking the start
// error.
func CleanupContainer(t *testing.T, container testcontainers.Container) {
	t.Helper()

	if container == nil {
		return
	}
	testcontainers.CleanupContainer(t, container)
}
