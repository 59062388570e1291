package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, "./messages.db", cfg.Storage.SQLite.Path)
	assert.False(t, cfg.Storage.ResetOnStart)
	assert.Equal(t, PayloadText, cfg.Storage.PayloadFormat)
	assert.Empty(t, cfg.Push.VerificationToken)
	assert.Equal(t, int64(10<<20), cfg.Push.MaxBodyBytes)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pubsubsink.yaml")
	content := `
server:
  port: 9090
storage:
  sqlite:
    path: /tmp/other.db
  reset_on_start: true
  payload_format: json
push:
  verification_token: s3cret
logging:
  format: console
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "/tmp/other.db", cfg.Storage.SQLite.Path)
	assert.True(t, cfg.Storage.ResetOnStart)
	assert.Equal(t, PayloadJSON, cfg.Storage.PayloadFormat)
	assert.Equal(t, "s3cret", cfg.Push.VerificationToken)
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestLoadEnvOverride(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PUBSUBSINK_SERVER_PORT", "7070")
	t.Setenv("PUBSUBSINK_STORAGE_SQLITE_PATH", "/var/lib/sink.db")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "/var/lib/sink.db", cfg.Storage.SQLite.Path)
}

func TestLoadRejectsUnknownPayloadFormat(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PUBSUBSINK_STORAGE_PAYLOAD_FORMAT", "xml")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "payload_format")
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
