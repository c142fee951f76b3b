package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, DriverSQLite, cfg.Database.Driver)
	require.Equal(t, filepath.Join("/tmp/xdg", "clio", "clio.db"), cfg.Database.Path)
	require.Equal(t, "@every 10m", cfg.Sweep.Schedule)
	require.True(t, cfg.Watch.Enabled)
	require.False(t, cfg.MCP.RequireApproval)
}

func TestLoad_FileThenEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	path := writeFile(t, "clio.yaml", `
log_level: debug
database:
  driver: postgres
  dsn: postgres://clio@localhost/clio
sweep:
  schedule: "*/5 * * * *"
mcp:
  require_approval: true
  approval_timeout: 30s
`)
	t.Setenv("CLIO_LOG_LEVEL", "warn")
	t.Setenv("CLIO_WATCH_ENABLED", "false")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "warn", cfg.LogLevel)
	require.Equal(t, DriverPostgres, cfg.Database.Driver)
	require.Equal(t, "*/5 * * * *", cfg.Sweep.Schedule)
	require.False(t, cfg.Watch.Enabled)
	require.True(t, cfg.MCP.RequireApproval)
	require.Equal(t, 30*time.Second, cfg.MCP.ApprovalTimeout)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("CLIO_DATA_DIR="+dir+"\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("CLIO_DATA_DIR") })

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, dir, cfg.DataDir)
	require.Equal(t, filepath.Join(dir, "clio.db"), cfg.Database.Path)
}

func TestLoad_Invalid(t *testing.T) {
	t.Chdir(t.TempDir())

	cases := map[string]string{
		"driver":   "database:\n  driver: oracle\n",
		"dsn":      "database:\n  driver: mysql\n",
		"schedule": "sweep:\n  schedule: every tuesday\n",
		"level":    "log_level: loud\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeFile(t, "clio.yaml", body))
			require.Error(t, err)
		})
	}

	t.Run("env bool", func(t *testing.T) {
		t.Setenv("CLIO_SWEEP_ENABLED", "maybe")
		_, err := Load("")
		require.ErrorContains(t, err, "CLIO_SWEEP_ENABLED")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
	})
}

func TestLoad_DisabledSweepSkipsSchedule(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load(writeFile(t, "clio.yaml", "sweep:\n  enabled: false\n  schedule: nonsense\n"))
	require.NoError(t, err)
	require.False(t, cfg.Sweep.Enabled)
}

func TestDatabase_Redacted(t *testing.T) {
	cases := map[string]string{
		"postgres://clio:hunter2@db:5432/clio": "postgres://clio:xxxxx@db:5432/clio",
		"postgres://clio@db/clio":              "postgres://clio@db/clio",
		"clio:hunter2@tcp(db:3306)/clio":       "clio:xxxxx@tcp(db:3306)/clio",
		"mongodb://localhost:27017":            "mongodb://localhost:27017",
	}
	for dsn, want := range cases {
		require.Equal(t, want, Database{DSN: dsn}.Redacted())
	}
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("DEBUG")
	require.NoError(t, err)
	require.Equal(t, slog.LevelDebug, lvl)

	_, err = ParseLevel("trace")
	require.Error(t, err)
}

func TestNewLogger_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, slog.LevelWarn, true)

	logger.Info("hidden")
	logger.Warn("shown", "id", "", "took", time.Duration(0))

	out := buf.String()
	require.NotContains(t, out, "hidden")
	require.Contains(t, out, "shown")
	require.NotContains(t, out, "id=")
	require.NotContains(t, out, "took=")
}
