package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSkipIfNoNetwork(t *testing.T) {
	t.Setenv(SkipNetworkEnv, "")
	ran := false
	t.Run("runs", func(t *testing.T) {
		SkipIfNoNetwork(t)
		ran = true
	})
	require.True(t, ran)

	t.Setenv(SkipNetworkEnv, "1")
	t.Run("skips", func(t *testing.T) {
		SkipIfNoNetwork(t)
		t.Fatal("expected skip")
	})
}
