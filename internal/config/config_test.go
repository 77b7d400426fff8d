package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "https://generativelanguage.googleapis.com/v1beta", cfg.Gemini.APIBase)
	assert.Equal(t, "https://aiplatform.googleapis.com/v1", cfg.Vertex.APIBase)
	assert.Equal(t, "gemini-3-pro-image-preview", cfg.Models.Pro)
	assert.Equal(t, "gemini-2.5-flash-image", cfg.Models.Flash)
	assert.Equal(t, 180*time.Second, cfg.Provider.RequestTimeout)
	assert.Equal(t, 50, cfg.History.Limit)
	assert.Equal(t, 128, cfg.History.ThumbnailSize)
	assert.Equal(t, 8, cfg.Generation.MaxCount)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.NotEmpty(t, cfg.App.ConfigRoot)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "airender.yaml")
	content := []byte(`
app:
  config_root: ` + dir + `
history:
  limit: 10
provider:
  request_timeout: 5s
  rate_limit: 2.5
`)
	require.NoError(t, os.WriteFile(path, content, 0o644))
	t.Setenv("AIRENDER_MODELS_FLASH", "flash-test")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.App.ConfigRoot)
	assert.Equal(t, 10, cfg.History.Limit)
	assert.Equal(t, 5*time.Second, cfg.Provider.RequestTimeout)
	assert.InDelta(t, 2.5, cfg.Provider.RateLimit, 0.0001)
	assert.Equal(t, "flash-test", cfg.Models.Flash)
}

func TestLoad_BadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "airender.yaml")
	require.NoError(t, os.WriteFile(path, []byte("history: [unclosed"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
