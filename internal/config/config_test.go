package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "src/data/iso_news", cfg.OutputDir)
	assert.Equal(t, "iso_news_articulos", cfg.FilePrefix)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
	assert.Equal(t, time.Second, cfg.RequestDelay)
	assert.True(t, cfg.InsecureArticleTLS)
	assert.Equal(t, 10000, cfg.ContentCap)
	assert.Equal(t, 200, cfg.SummaryCap)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "console", cfg.LogFormat)
	assert.Empty(t, cfg.ProvidersFile)
}

func TestLoadPrecedence(t *testing.T) {
	file := createTempFile(t, "harvester.yaml", `
output_dir: /from/file
file_prefix: file_prefix
request_delay: 3s
summary_cap: 120
`)
	t.Setenv("ISONEWS_OUTPUT_DIR", "/from/env")
	t.Setenv("ISONEWS_REQUEST_DELAY", "500ms")

	cfg, err := Load([]string{"--config", file, "--delay", "0s", "--log-format", "json"})
	require.NoError(t, err)

	assert.Equal(t, "/from/env", cfg.OutputDir)
	assert.Equal(t, "file_prefix", cfg.FilePrefix)
	assert.Equal(t, time.Duration(0), cfg.RequestDelay)
	assert.Equal(t, 120, cfg.SummaryCap)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoadEnvOnly(t *testing.T) {
	t.Setenv("ISONEWS_INSECURE_ARTICLE_TLS", "false")
	t.Setenv("ISONEWS_CONTENT_CAP", "500")
	t.Setenv("ISONEWS_PROVIDERS_FILE", "providers.yaml")

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.False(t, cfg.InsecureArticleTLS)
	assert.Equal(t, 500, cfg.ContentCap)
	assert.Equal(t, "providers.yaml", cfg.ProvidersFile)
}

func TestLoadValidationErrors(t *testing.T) {
	cases := []struct {
		args []string
		want error
	}{
		{[]string{"--output-dir", " "}, ErrMissingOutputDir},
		{[]string{"--file-prefix", ""}, ErrMissingFilePrefix},
		{[]string{"--timeout", "0s"}, ErrInvalidTimeout},
		{[]string{"--delay", "-1s"}, ErrInvalidDelay},
		{[]string{"--content-cap", "0"}, ErrInvalidContentCap},
		{[]string{"--summary-cap", "-5"}, ErrInvalidSummaryCap},
		{[]string{"--log-level", "verbose"}, ErrInvalidLogLevel},
		{[]string{"--log-format", "xml"}, ErrInvalidLogFormat},
	}
	for _, tc := range cases {
		_, err := Load(tc.args)
		assert.ErrorIs(t, err, tc.want, tc.args)
	}
}

func TestLoadMissingConfigFile(t *testing.T) {
	_, err := Load([]string{"--config", filepath.Join(t.TempDir(), "absent.yaml")})
	require.Error(t, err)
}

func TestLoadUnknownFlag(t *testing.T) {
	_, err := Load([]string{"--nope"})
	require.Error(t, err)
}

func TestLoadDotEnv(t *testing.T) {
	path := createTempFile(t, ".env", "ISONEWS_FILE_PREFIX=from_dotenv\nISONEWS_LOG_LEVEL=debug\n")
	t.Setenv("ISONEWS_LOG_LEVEL", "warn")
	t.Setenv("ISONEWS_FILE_PREFIX", "")
	os.Unsetenv("ISONEWS_FILE_PREFIX")

	require.NoError(t, LoadDotEnv(path, filepath.Join(t.TempDir(), "missing.env")))

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "from_dotenv", cfg.FilePrefix)
	assert.Equal(t, "warn", cfg.LogLevel)
}
