package model

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_missing_file_returns_defaults(t *testing.T) {
	t.Setenv("QABOARD_BACKEND_URL", "")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "config.yaml"))

	require.NoError(t, err)
	assert.Equal(t, 30, cfg.Backend.TimeoutSec)
	assert.Equal(t, 60, cfg.Display.PollIntervalSec)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestSaveConfig_round_trips(t *testing.T) {
	t.Setenv("QABOARD_BACKEND_URL", "")
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	in := defaultAppConfig()
	in.Backend.URL = "https://qa.example.com"
	in.Display.PollIntervalSec = 15
	require.NoError(t, SaveConfig(path, in))

	out, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "https://qa.example.com", out.Backend.URL)
	assert.Equal(t, 15, out.Display.PollIntervalSec)
	assert.Equal(t, in.Log.File, out.Log.File)
}
