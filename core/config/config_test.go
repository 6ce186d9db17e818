package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, 3306, cfg.Database.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 0.75, cfg.Sync.ProgressStart)
	assert.Equal(t, 0.95, cfg.Sync.ProgressEnd)
	assert.Equal(t, 1.0, cfg.Sync.ProgressFinal)
	assert.Equal(t, 500, cfg.Sync.ReportInterval)
	assert.Equal(t, "local", cfg.Lock.Backend)
	assert.Equal(t, "snapshots", cfg.Storage.SnapshotPrefix)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("SYNC_REPORT_INTERVAL", "250")
	t.Setenv("LOCK_BACKEND", "redis")
	t.Setenv("DATABASE_DRIVER", "sqlite")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 250, cfg.Sync.ReportInterval)
	assert.Equal(t, "redis", cfg.Lock.Backend)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
}

func TestLoadConfig_DotEnv(t *testing.T) {
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, ".env"), []byte("SERVER_PORT=9090\nLOG_FORMAT=console\n"), 0o600)
	require.NoError(t, err)
	t.Cleanup(func() {
		os.Unsetenv("SERVER_PORT")
		os.Unsetenv("LOG_FORMAT")
	})

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "console", cfg.Log.Format)
}
