package config

// EnvPrefix is handed to envconfig; every field carries an explicit envconfig tag.
const EnvPrefix = "FREIGHTQUOTE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv          = "FREIGHTQUOTE_APP_ENV"
	EnvPort            = "FREIGHTQUOTE_APP_PORT"
	EnvLogLevel        = "FREIGHTQUOTE_LOG_LEVEL"
	EnvLogFormat       = "FREIGHTQUOTE_LOG_FORMAT"
	EnvDBDSN           = "FREIGHTQUOTE_DB_DSN"
	EnvDBHost          = "FREIGHTQUOTE_DB_HOST"
	EnvDBUser          = "FREIGHTQUOTE_DB_USER"
	EnvDBName          = "FREIGHTQUOTE_DB_NAME"
	EnvRedisURL        = "FREIGHTQUOTE_REDIS_URL"
	EnvCatalogBaseURL  = "FREIGHTQUOTE_CATALOG_BASE_URL"
	EnvCatalogToken    = "FREIGHTQUOTE_CATALOG_API_TOKEN"
	EnvCatalogPageSize = "FREIGHTQUOTE_CATALOG_PAGE_SIZE"
	EnvCatalogDebounce = "FREIGHTQUOTE_CATALOG_SEARCH_DEBOUNCE"
	EnvDraftsTTL       = "FREIGHTQUOTE_DRAFTS_WORKSPACE_TTL"
	EnvAutoMigrate     = "FREIGHTQUOTE_AUTO_MIGRATE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
