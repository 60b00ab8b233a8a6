package config

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points every lookup at an empty temp dir so the developer's own
// config never leaks into a test.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	for _, key := range []string{"API_URL", "CLIENT_TIMEOUT", "SLOW_REQUEST", "CREDENTIALS_FILE", "DOWNLOAD_DIR", "LOG_FILE", "LOG_LEVEL"} {
		t.Setenv(EnvPrefix+"_"+key, "")
		os.Unsetenv(EnvPrefix + "_" + key)
	}
	return dir
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := LoadWith(Options{})
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000/api/", cfg.APIURL)
	assert.Equal(t, 60*time.Second, cfg.ClientTimeout)
	assert.Equal(t, 2*time.Second, cfg.SlowRequest)
	assert.Equal(t, ".", cfg.DownloadDir)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, "credentials.yaml", filepath.Base(cfg.CredentialsFile))
}

func TestLoadEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("ADVOCAI_API_URL", "https://advocai.example.com/api/v1")
	t.Setenv("ADVOCAI_CLIENT_TIMEOUT", "5s")
	t.Setenv("ADVOCAI_LOG_LEVEL", "debug")
	t.Setenv("ADVOCAI_SLOW_REQUEST", "not-a-duration")

	cfg, err := LoadWith(Options{})
	require.NoError(t, err)

	assert.Equal(t, "https://advocai.example.com/api/v1/", cfg.APIURL)
	assert.Equal(t, 5*time.Second, cfg.ClientTimeout)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, 2*time.Second, cfg.SlowRequest, "invalid duration falls back to default")
}

func TestLoadConfigFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api_url: http://backend:9000/api/\ndownload_dir: /tmp/pdfs\n"), 0600))

	cfg, err := LoadWith(Options{ConfigFile: path})
	require.NoError(t, err)
	assert.Equal(t, "http://backend:9000/api/", cfg.APIURL)
	assert.Equal(t, "/tmp/pdfs", cfg.DownloadDir)

	t.Setenv("ADVOCAI_DOWNLOAD_DIR", "/srv/out")
	cfg, err = LoadWith(Options{ConfigFile: path})
	require.NoError(t, err)
	assert.Equal(t, "/srv/out", cfg.DownloadDir, "environment beats config file")
}

func TestLoadMissingConfigFileIsNotAnError(t *testing.T) {
	dir := isolate(t)

	_, err := LoadWith(Options{ConfigFile: filepath.Join(dir, "absent.yaml")})
	assert.NoError(t, err)
}

func TestLoadBrokenConfigFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api_url: [unterminated\n"), 0600))

	cfg, err := LoadWith(Options{ConfigFile: path})
	assert.Error(t, err)
	assert.Equal(t, "http://localhost:8000/api/", cfg.APIURL, "defaults survive a broken file")
}

func TestLoadDotEnv(t *testing.T) {
	dir := isolate(t)
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("ADVOCAI_LOG_LEVEL=ERROR\n"), 0600))
	t.Cleanup(func() { os.Unsetenv("ADVOCAI_LOG_LEVEL") })

	cfg, err := LoadWith(Options{EnvFile: envFile})
	require.NoError(t, err)
	assert.Equal(t, slog.LevelError, cfg.LogLevel)
}

func TestNormalizeBaseURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "http://localhost:8000/api/"},
		{"http://x/api", "http://x/api/"},
		{"http://x/api/", "http://x/api/"},
		{"  http://x/api/v2 ", "http://x/api/v2/"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeBaseURL(tt.in))
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLogLevel(tt.in))
		})
	}
}

func TestSetupLoggerWithWriters(t *testing.T) {
	var stderr, file bytes.Buffer
	logger := SetupLoggerWithWriters(&stderr, &file, slog.LevelWarn, slog.LevelDebug)

	logger.Debug("request completed", "path", "auth/profile/")
	logger.Warn("slow request", "path", "summarizer/summarize/")

	assert.NotContains(t, stderr.String(), "request completed")
	assert.Contains(t, stderr.String(), "slow request")

	lines := bytes.Split(bytes.TrimSpace(file.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)
	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[1], &entry))
	assert.Equal(t, "summarizer/summarize/", entry["path"])
}

func TestSetupLoggerFallsBackWhenFileUnwritable(t *testing.T) {
	logger, cleanup := SetupLogger(filepath.Join(t.TempDir(), "missing", "dir", "log.json"), slog.LevelInfo, false)
	require.NotNil(t, logger)
	assert.NoError(t, cleanup())
}
