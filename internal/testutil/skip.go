// Package testutil holds helpers shared by galleria tests.
package testutil

import (
	"os"
	"testing"
)

// SkipNetworkEnv disables tests that need a loopback listener.
const SkipNetworkEnv = "GALLERIA_TEST_SKIP_NETWORK"

// SkipIfNoNetwork skips the test if GALLERIA_TEST_SKIP_NETWORK is set.
// Use this for tests that start an HTTP server, which may not be possible
// in sandboxed environments.
func SkipIfNoNetwork(t testing.TB) {
	t.Helper()
	if os.Getenv(SkipNetworkEnv) != "" {
		t.Skip("skipping network test: " + SkipNetworkEnv + " is set")
	}
}
