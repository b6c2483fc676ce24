package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "BambooApp", cfg.App.Name)
	assert.Equal(t, 30*time.Second, cfg.Bridge.EvalTimeout)
	assert.Equal(t, 9222, cfg.Debug.Port)
	assert.False(t, cfg.Debug.Enabled)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("BAMBOO_APP_NAME", "Sprout")
	t.Setenv("BAMBOO_EVAL_TIMEOUT", "5s")
	t.Setenv("BAMBOO_DEBUG_ENABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "Sprout", cfg.App.Name)
	assert.Equal(t, 5*time.Second, cfg.Bridge.EvalTimeout)
	assert.True(t, cfg.Debug.Enabled)
}

func TestFileOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bamboo.toml")
	content := `
[app]
name = "FileApp"
version = "2.0.0"
cache_path = "/tmp/cache"

[debug]
enabled = true
host = "0.0.0.0"
port = 9333
requests_per_second = 10
burst = 20
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "FileApp", cfg.App.Name)
	assert.Equal(t, 9333, cfg.Debug.Port)
	// Sections absent from the file keep environment defaults.
	assert.Equal(t, 30*time.Second, cfg.Bridge.EvalTimeout)
}

func TestFileOverlayMissingFile(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}
