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
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("API_KEY", "")

	cfg, err := Load(New(), "")
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.5-flash", cfg.Gemini.TextModel)
	assert.Equal(t, "imagen-4.0-generate-001", cfg.Gemini.ImageModel)
	assert.Equal(t, 45*time.Second, cfg.Timeouts.Call)
	assert.Equal(t, 0, cfg.Images.Concurrency)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, ".", cfg.Output.Dir)
	assert.Empty(t, cfg.Gemini.APIKey)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("API_KEY", "  from-api-key  ")
	t.Setenv("DECKGEN_LOG_LEVEL", "debug")
	t.Setenv("DECKGEN_IMAGES_CONCURRENCY", "4")

	cfg, err := Load(New(), "")
	require.NoError(t, err)
	assert.Equal(t, "from-api-key", cfg.Gemini.APIKey)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 4, cfg.Images.Concurrency)
}

func TestLoad_File(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("API_KEY", "")
	path := filepath.Join(t.TempDir(), "deckgen.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
gemini:
  api_key: file-key
  text_model: gemini-2.5-pro
timeouts:
  call: 30s
metrics:
  textfile: /tmp/deckgen.prom
`), 0o644))

	cfg, err := Load(New(), path)
	require.NoError(t, err)
	assert.Equal(t, "file-key", cfg.Gemini.APIKey)
	assert.Equal(t, "gemini-2.5-pro", cfg.Gemini.TextModel)
	assert.Equal(t, "imagen-4.0-generate-001", cfg.Gemini.ImageModel)
	assert.Equal(t, 30*time.Second, cfg.Timeouts.Call)
	assert.Equal(t, "/tmp/deckgen.prom", cfg.Metrics.Textfile)
}

func TestLoad_Invalid(t *testing.T) {
	_, err := Load(New(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	t.Setenv("DECKGEN_IMAGES_CONCURRENCY", "-1")
	_, err = Load(New(), "")
	assert.ErrorContains(t, err, "images.concurrency")
}
