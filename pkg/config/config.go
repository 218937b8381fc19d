package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App      AppConfig
	API      APIConfig
	Identity IdentityConfig
	Redis    RedisConfig
	Local    LocalConfig
	Legacy   LegacyConfig
	Cache    CacheConfig
	Checkout CheckoutConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.API.validate(); err != nil {
		return nil, err
	}
	if err := cfg.Legacy.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STOREFRONT_APP_ENV" default:"dev"`
	LogLevel     string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type APIConfig struct {
	BaseURL string        `envconfig:"STOREFRONT_API_BASE_URL" default:"http://localhost:8000/api/v1"`
	Timeout time.Duration `envconfig:"STOREFRONT_API_TIMEOUT" default:"15s"`
}

func (a APIConfig) validate() error {
	parsed, err := url.Parse(a.BaseURL)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", EnvAPIBaseURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s must be an http(s) url", EnvAPIBaseURL)
	}
	return nil
}

type IdentityConfig struct {
	BaseURL  string        `envconfig:"STOREFRONT_IDENTITY_BASE_URL" default:"https://identitytoolkit.googleapis.com/v1"`
	TokenURL string        `envconfig:"STOREFRONT_IDENTITY_TOKEN_URL" default:"https://securetoken.googleapis.com/v1/token"`
	APIKey   string        `envconfig:"STOREFRONT_IDENTITY_API_KEY" required:"true"`
	Skew     time.Duration `envconfig:"STOREFRONT_IDENTITY_TOKEN_SKEW" default:"1m"`
}

// RedisConfig is optional; leaving both URL and Address empty disables caching.
type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"4"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"3s"`
}

func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

// LocalConfig points at the on-disk store that plays the role of browser local storage.
type LocalConfig struct {
	Path string `envconfig:"STOREFRONT_LOCAL_DB_PATH" default:"storefront.db"`
}

type LegacyConfig struct {
	Driver     string `envconfig:"STOREFRONT_LEGACY_DB_DRIVER" default:"sqlite"`
	DSN        string `envconfig:"STOREFRONT_LEGACY_DB_DSN" default:"legacy.db"`
	Collection string `envconfig:"STOREFRONT_LEGACY_COLLECTION" default:"items"`
}

func (l LegacyConfig) validate() error {
	switch strings.ToLower(l.Driver) {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("%s must be %q or %q", EnvLegacyDriver, DriverPostgres, DriverSQLite)
	}
	if strings.TrimSpace(l.DSN) == "" {
		return fmt.Errorf("%s is required", EnvLegacyDSN)
	}
	return nil
}

type CacheConfig struct {
	CatalogTTL time.Duration `envconfig:"STOREFRONT_CATALOG_CACHE_TTL" default:"5m"`
}

type CheckoutConfig struct {
	IdempotencyKeyTTL time.Duration `envconfig:"STOREFRONT_CHECKOUT_KEY_TTL" default:"24h"`
}
