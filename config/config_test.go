package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsy/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "newsy.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
keywords = ["llm"]

[[sources.primary]]
name = "Google AI Blog"
url = "https://primary.example/google"

[[sources.secondary]]
name = "Google AI"
url = "https://fallback.example/google"

[digest]
max_per_source = 3
cooldown_days = 7
`)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	require.Len(t, cfg.Sources.Primary, 1)
	assert.Equal(t, "Google AI Blog", cfg.Sources.Primary[0].Name)
	require.Len(t, cfg.Sources.Secondary, 1)

	assert.Equal(t, []string{"llm"}, cfg.Keywords)
	assert.Equal(t, 3, cfg.Digest.MaxPerSource)
	assert.Equal(t, 7, cfg.Digest.CooldownDays)
	// Unset values fall back to defaults.
	assert.Equal(t, 30, cfg.Digest.RetentionDays)
	assert.Equal(t, 10, cfg.Digest.FeedLimit)
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, `
[[sources.primary]]
name = "OpenAI News"
url = "https://primary.example/openai"
`)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, config.DefaultKeywords, cfg.Keywords)
	assert.Equal(t, 2, cfg.Digest.MaxPerSource)
	assert.Equal(t, 5, cfg.Digest.CooldownDays)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := config.LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}
