package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Success(t *testing.T) {
	setMinimalEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.API.BaseURL != "http://localhost:8000/api/v1" {
		t.Fatalf("unexpected api base url %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 15*time.Second {
		t.Fatalf("expected default timeout 15s, got %v", cfg.API.Timeout)
	}
	if cfg.Identity.APIKey != "key-123" {
		t.Fatalf("unexpected identity api key %q", cfg.Identity.APIKey)
	}
	if cfg.Redis.Enabled() {
		t.Fatalf("redis should be disabled without url or address")
	}
	if cfg.Cache.CatalogTTL != 5*time.Minute {
		t.Fatalf("unexpected catalog ttl %v", cfg.Cache.CatalogTTL)
	}
	if cfg.Legacy.Collection != "items" {
		t.Fatalf("unexpected legacy collection %q", cfg.Legacy.Collection)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	setMinimalEnv(t)
	unsetEnv(t, EnvIdentityAPIKey)

	if _, err := Load(); err == nil {
		t.Fatal("expected missing identity api key to return an error")
	}
}

func TestLoad_RejectsBadAPIURL(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvAPIBaseURL, "ftp://example.com")

	if _, err := Load(); err == nil {
		t.Fatal("expected non-http api url to be rejected")
	}
}

func TestLoad_RejectsUnknownLegacyDriver(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvLegacyDriver, "mongo")

	if _, err := Load(); err == nil {
		t.Fatal("expected unknown legacy driver to be rejected")
	}
}

func TestRedisEnabled(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvRedisURL, "redis://localhost:6379/0")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if !cfg.Redis.Enabled() {
		t.Fatal("expected redis to be enabled")
	}
}

func setMinimalEnv(t *testing.T) {
	t.Helper()

	t.Setenv(EnvAppEnv, "dev")
	t.Setenv(EnvIdentityAPIKey, "key-123")
	unsetEnv(t, EnvAPIBaseURL, EnvAPITimeout, EnvRedisURL, EnvRedisAddr, EnvLegacyDriver, EnvLegacyDSN, EnvCatalogCacheTTL)
}

// unsetEnv removes keys for the duration of the test; envconfig treats an empty value as set.
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
		if err := os.Unsetenv(key); err != nil {
			t.Fatalf("failed to unset %s: %v", key, err)
		}
	}
}

func TestAppConfigEnvHelpers(t *testing.T) {
	devConfig := AppConfig{Env: "DEV"}
	if !devConfig.IsDev() {
		t.Fatalf("expected IsDev true for %q", devConfig.Env)
	}
	if devConfig.IsProd() {
		t.Fatalf("expected IsProd false for %q", devConfig.Env)
	}

	prodConfig := AppConfig{Env: "prod"}
	if !prodConfig.IsProd() {
		t.Fatalf("expected IsProd true for %q", prodConfig.Env)
	}
}
