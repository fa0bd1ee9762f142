package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteRuntimeError(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out")
	writeRuntimeError(out, errors.New("walk failed: permission denied"))

	data, err := os.ReadFile(filepath.Join(out, runtimeErrorLog))
	require.NoError(t, err)
	assert.Contains(t, string(data), "walk failed: permission denied")
	assert.Contains(t, string(data), "time: ")
}

func TestAuditCommandIsRegistered(t *testing.T) {
	cmd, _, err := rootCmd.Find([]string{"audit"})
	require.NoError(t, err)
	assert.Equal(t, "audit", cmd.Name())

	for _, flag := range []string{"repo-root", "output-dir", "focus-path", "kinds", "depth", "budget", "no-cache", "sarif"} {
		assert.NotNil(t, cmd.Flags().Lookup(flag), flag)
	}
}

func TestAttentionSentinelIsDistinct(t *testing.T) {
	assert.True(t, errors.Is(ErrAttentionRequired, ErrAttentionRequired))
	assert.False(t, errors.Is(errors.New("other"), ErrAttentionRequired))
}
