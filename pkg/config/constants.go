package config

const (
	EnvPrefix = "STOREFRONT"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv           = "STOREFRONT_APP_ENV"
	EnvLogLevel         = "STOREFRONT_LOG_LEVEL"
	EnvAPIBaseURL       = "STOREFRONT_API_BASE_URL"
	EnvAPITimeout       = "STOREFRONT_API_TIMEOUT"
	EnvIdentityBaseURL  = "STOREFRONT_IDENTITY_BASE_URL"
	EnvIdentityTokenURL = "STOREFRONT_IDENTITY_TOKEN_URL"
	EnvIdentityAPIKey   = "STOREFRONT_IDENTITY_API_KEY"
	EnvRedisURL         = "STOREFRONT_REDIS_URL"
	EnvRedisAddr        = "STOREFRONT_REDIS_ADDR"
	EnvLocalPath        = "STOREFRONT_LOCAL_DB_PATH"
	EnvLegacyDriver     = "STOREFRONT_LEGACY_DB_DRIVER"
	EnvLegacyDSN        = "STOREFRONT_LEGACY_DB_DSN"
	EnvCatalogCacheTTL  = "STOREFRONT_CATALOG_CACHE_TTL"
	EnvCheckoutKeyTTL   = "STOREFRONT_CHECKOUT_KEY_TTL"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)
