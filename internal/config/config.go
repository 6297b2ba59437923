// Package config loads orgsync configuration from the environment and
// an optional config file via Viper. Every setting has a documented
// default so a bare invocation against the production site works.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Environment variable names recognized by orgsync.
const (
	EnvSiteURL      = "ORGSYNC_SITE_URL"
	EnvAPIKey       = "ORGSYNC_API_KEY"
	EnvOrgsURL      = "ORGSYNC_ORGS_URL"
	EnvDefaultEmail = "ORGSYNC_DEFAULT_EMAIL"
	EnvLogPath      = "ORGSYNC_LOG_PATH"
)

// Defaults applied when neither the environment nor a config file
// provides a value.
const (
	DefaultSiteURL      = "http://oppnadata.se"
	DefaultOrgsURL      = "https://sandbox.oppnadata.se/sources.json"
	DefaultEmail        = "admin@email.com"
	DefaultLogPath      = "/tmp"
	DefaultHTTPTimeout  = 30 * time.Second
	DefaultFetchRetries = 5 // retries after the initial attempt, 6 calls total
)

// Config carries every setting a sync run needs. It is built once in the
// CLI layer and passed explicitly through the orchestrator, never held as
// ambient state.
type Config struct {
	SiteURL      string        // backend base URL
	APIKey       string        // backend API key, may be empty
	OrgsURL      string        // organization feed URL
	DefaultEmail string        // fallback contact email
	LogPath      string        // directory for run logs and reports
	HTTPTimeout  time.Duration // per-call connect/read deadline
	FetchRetries int           // feed fetch retries after the first attempt
	HardDelete   bool          // purge organizations instead of deactivating
	DryRun       bool          // classify and report without mutating
}

// Load builds a Config from Viper, which the CLI layer has already
// pointed at the environment and any --config file.
func Load() *Config {
	return &Config{
		SiteURL:      getString(EnvSiteURL, DefaultSiteURL),
		APIKey:       getString(EnvAPIKey, ""),
		OrgsURL:      getString(EnvOrgsURL, DefaultOrgsURL),
		DefaultEmail: getString(EnvDefaultEmail, DefaultEmail),
		LogPath:      getString(EnvLogPath, DefaultLogPath),
		HTTPTimeout:  DefaultHTTPTimeout,
		FetchRetries: DefaultFetchRetries,
	}
}

// getString is a helper to get string values from Viper.
// It checks both OS environment variables and Viper configuration.
func getString(key, fallback string) string {
	osValue := os.Getenv(key)
	viperValue := viper.GetString(strings.ToLower(key))

	if viperValue == "" && osValue != "" {
		return osValue
	}
	if viperValue == "" {
		return fallback
	}
	return viperValue
}
