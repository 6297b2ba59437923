package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oppnadata/orgsync/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg := config.Load()

	assert.Equal(t, config.DefaultSiteURL, cfg.SiteURL)
	assert.Equal(t, config.DefaultOrgsURL, cfg.OrgsURL)
	assert.Equal(t, config.DefaultEmail, cfg.DefaultEmail)
	assert.Equal(t, config.DefaultLogPath, cfg.LogPath)
	assert.Equal(t, config.DefaultFetchRetries, cfg.FetchRetries)
	assert.Empty(t, cfg.APIKey)
	assert.False(t, cfg.HardDelete)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv(config.EnvSiteURL, "https://portal.example.se")
	t.Setenv(config.EnvAPIKey, "secret-key")
	t.Setenv(config.EnvOrgsURL, "https://feeds.example.se/orgs.json")
	t.Setenv(config.EnvDefaultEmail, "registry@example.se")
	t.Setenv(config.EnvLogPath, "/var/log/orgsync")

	cfg := config.Load()

	assert.Equal(t, "https://portal.example.se", cfg.SiteURL)
	assert.Equal(t, "secret-key", cfg.APIKey)
	assert.Equal(t, "https://feeds.example.se/orgs.json", cfg.OrgsURL)
	assert.Equal(t, "registry@example.se", cfg.DefaultEmail)
	assert.Equal(t, "/var/log/orgsync", cfg.LogPath)
}
