package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunInvalidConfigExitsWithUsageCode(t *testing.T) {
	assert.Equal(t, 2, run([]string{"--log-level", "loud"}))
	assert.Equal(t, 2, run([]string{"--unknown-flag"}))
}

func TestRunHelp(t *testing.T) {
	assert.Equal(t, 0, run([]string{"--help"}))
}

func TestRunOnlyDisabledSourcesWritesNothing(t *testing.T) {
	dir := t.TempDir()
	providersFile := filepath.Join(dir, "providers.yaml")
	require.NoError(t, os.WriteFile(providersFile, []byte(`
providers:
  - id: anexia
    type: disabled
    disabled_reason: listing is rendered client-side
`), 0o644))
	out := filepath.Join(dir, "reports")

	code := run([]string{"--providers", providersFile, "--output-dir", out, "--delay", "0s", "--log-level", "error"})

	assert.Equal(t, 0, code)
	_, err := os.Stat(out)
	assert.True(t, os.IsNotExist(err))
}

func TestRunBadProvidersFileFails(t *testing.T) {
	code := run([]string{"--providers", filepath.Join(t.TempDir(), "absent.yaml"), "--log-level", "error"})
	assert.Equal(t, 1, code)
}
