package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Catalog      CatalogConfig
	Drafts       DraftsConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Catalog.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// MigrationConfig is the subset of settings the migrate command reads, so schema
// changes do not need redis or catalog credentials.
type MigrationConfig struct {
	App AppConfig
	DB  DBConfig
}

func LoadForMigrations() (*MigrationConfig, error) {
	var cfg MigrationConfig
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"FREIGHTQUOTE_APP_ENV" required:"true"`
	Port         string `envconfig:"FREIGHTQUOTE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"FREIGHTQUOTE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"FREIGHTQUOTE_LOG_WARN_STACK" default:"false"`

	CORSOrigins []string `envconfig:"FREIGHTQUOTE_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"FREIGHTQUOTE_DB_DSN"`
	Driver string `envconfig:"FREIGHTQUOTE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"FREIGHTQUOTE_DB_HOST"`
	LegacyPort     int    `envconfig:"FREIGHTQUOTE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"FREIGHTQUOTE_DB_USER"`
	LegacyPassword string `envconfig:"FREIGHTQUOTE_DB_PASSWORD"`
	LegacyName     string `envconfig:"FREIGHTQUOTE_DB_NAME"`
	LegacySSLMode  string `envconfig:"FREIGHTQUOTE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FREIGHTQUOTE_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"FREIGHTQUOTE_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"FREIGHTQUOTE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FREIGHTQUOTE_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	// Queries slower than this are logged at warn; zero disables the check.
	SlowQueryThreshold time.Duration `envconfig:"FREIGHTQUOTE_DB_SLOW_QUERY_THRESHOLD" default:"200ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FREIGHTQUOTE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"FREIGHTQUOTE_REDIS_ADDR"`
	Password     string        `envconfig:"FREIGHTQUOTE_REDIS_PASSWORD"`
	DB           int           `envconfig:"FREIGHTQUOTE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FREIGHTQUOTE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FREIGHTQUOTE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FREIGHTQUOTE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FREIGHTQUOTE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FREIGHTQUOTE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// CatalogConfig points the offer catalog clients at the upstream market-offer API.
type CatalogConfig struct {
	BaseURL        string        `envconfig:"FREIGHTQUOTE_CATALOG_BASE_URL" required:"true"`
	APIToken       string        `envconfig:"FREIGHTQUOTE_CATALOG_API_TOKEN"`
	Timeout        time.Duration `envconfig:"FREIGHTQUOTE_CATALOG_TIMEOUT" default:"15s"`
	PageSize       int           `envconfig:"FREIGHTQUOTE_CATALOG_PAGE_SIZE" default:"100"`
	MaxPages       int           `envconfig:"FREIGHTQUOTE_CATALOG_MAX_PAGES" default:"20"`
	SearchDebounce time.Duration `envconfig:"FREIGHTQUOTE_CATALOG_SEARCH_DEBOUNCE" default:"1000ms"`

	// Per-client-IP budget for endpoints that reach the upstream API.
	UpstreamRateWindow time.Duration `envconfig:"FREIGHTQUOTE_CATALOG_RATE_WINDOW" default:"1m"`
	UpstreamRateLimit  int           `envconfig:"FREIGHTQUOTE_CATALOG_RATE_LIMIT" default:"30"`
}

func (c CatalogConfig) validate() error {
	if _, err := url.Parse(c.BaseURL); err != nil {
		return fmt.Errorf("invalid %s: %w", EnvCatalogBaseURL, err)
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("%s must be positive", EnvCatalogPageSize)
	}
	return nil
}

// DraftsConfig controls how long idle quote workspaces survive in redis.
type DraftsConfig struct {
	WorkspaceTTL time.Duration `envconfig:"FREIGHTQUOTE_DRAFTS_WORKSPACE_TTL" default:"72h"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"FREIGHTQUOTE_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
