package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, CurrentConfigVersion, cfg.Version)
	assert.Equal(t, 5432, cfg.Connection.Port)
	assert.Empty(t, cfg.Connection.Host)
	assert.Equal(t, 2*time.Second, cfg.Refresh.Interval)
	assert.Equal(t, 500*time.Millisecond, cfg.Refresh.Min)
	assert.Equal(t, 5*time.Second, cfg.Refresh.Max)
	assert.Equal(t, int64(4096), cfg.BlockSize)
	assert.Equal(t, 30, cfg.Selection.InactivityTicks)
	assert.Empty(t, cfg.Export.Path)

	// Defaults must pass their own validation.
	assert.NoError(t, Validate(cfg))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, ".pgtop.yaml")

	content := `
version: 1
connection:
  host: db.internal
  port: 5433
  user: monitor
  database: shop
refresh:
  interval: 1s
  min: 500ms
  max: 10s
block_size: 8192
filters:
  database: shop
  min_duration: 0.5
export:
  path: /tmp/activity.csv
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o644))

	cfg, err := Load(configPath)

	require.NoError(t, err)
	assert.Equal(t, "db.internal", cfg.Connection.Host)
	assert.Equal(t, 5433, cfg.Connection.Port)
	assert.Equal(t, "monitor", cfg.Connection.User)
	assert.Equal(t, "shop", cfg.Connection.Database)
	assert.Equal(t, time.Second, cfg.Refresh.Interval)
	assert.Equal(t, 10*time.Second, cfg.Refresh.Max)
	assert.Equal(t, int64(8192), cfg.BlockSize)
	assert.Equal(t, "shop", cfg.Filters.Database)
	assert.Equal(t, 0.5, cfg.Filters.MinDuration)
	assert.Equal(t, "/tmp/activity.csv", cfg.Export.Path)

	// Unset fields keep their defaults.
	assert.Equal(t, 30, cfg.Selection.InactivityTicks)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))

	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, ".pgtop.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("connection: [not a map"), 0o644))

	_, err := Load(configPath)

	assert.Error(t, err)
}

func TestFind_ExplicitPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("version: 1\n"), 0o644))

	found, err := Find(configPath)

	require.NoError(t, err)
	assert.Equal(t, configPath, found)
}

func TestFind_ExplicitPathMissing(t *testing.T) {
	_, err := Find(filepath.Join(t.TempDir(), "missing.yaml"))

	assert.Error(t, err)
}

func TestFind_CurrentDirectory(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, ConfigFileName)
	require.NoError(t, os.WriteFile(configPath, []byte("version: 1\n"), 0o644))

	t.Chdir(dir)

	found, err := Find("")

	require.NoError(t, err)
	// TempDir may be behind a symlink on some platforms; compare the base.
	assert.Equal(t, ConfigFileName, filepath.Base(found))
}

func TestLoadOrDefault_NoFileAnywhere(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := LoadOrDefault("")

	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)

	require.NoError(t, Write(DefaultConfig(), path, false))

	// Round-trips through the loader.
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, int64(4096), cfg.BlockSize)

	// Refuses to overwrite without force.
	assert.Error(t, Write(DefaultConfig(), path, false))
	assert.NoError(t, Write(DefaultConfig(), path, true))
}
