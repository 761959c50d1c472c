package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "COFFREFORT"

	AppEnvDev  = "dev"
	AppEnvProd = "production"

	EnvAppEnv   = "COFFREFORT_APP_ENV"
	EnvPort     = "COFFREFORT_APP_PORT"
	EnvDBDSN    = "COFFREFORT_DB_DSN"
	EnvDBHost   = "COFFREFORT_DB_HOST"
	EnvDBUser   = "COFFREFORT_DB_USER"
	EnvDBName   = "COFFREFORT_DB_NAME"
	EnvRedisURL = "COFFREFORT_REDIS_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App   AppConfig
	DB    DBConfig
	Redis RedisConfig
	Cache CacheConfig
	Flags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"COFFREFORT_APP_ENV" required:"true"`
	Port         string `envconfig:"COFFREFORT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"COFFREFORT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"COFFREFORT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"COFFREFORT_DB_DSN"`
	Driver string `envconfig:"COFFREFORT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"COFFREFORT_DB_HOST"`
	LegacyPort     int    `envconfig:"COFFREFORT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"COFFREFORT_DB_USER"`
	LegacyPassword string `envconfig:"COFFREFORT_DB_PASSWORD"`
	LegacyName     string `envconfig:"COFFREFORT_DB_NAME"`
	LegacySSLMode  string `envconfig:"COFFREFORT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"COFFREFORT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"COFFREFORT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"COFFREFORT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"COFFREFORT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"COFFREFORT_REDIS_URL"`
	Address      string        `envconfig:"COFFREFORT_REDIS_ADDR"`
	Password     string        `envconfig:"COFFREFORT_REDIS_PASSWORD"`
	DB           int           `envconfig:"COFFREFORT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"COFFREFORT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"COFFREFORT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"COFFREFORT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"COFFREFORT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"COFFREFORT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// CacheConfig drives the cache coordinator sitting in front of the
// balance/dashboard computations.
type CacheConfig struct {
	Backend       string        `envconfig:"COFFREFORT_CACHE_BACKEND" default:"memory"`
	BalanceTTL    time.Duration `envconfig:"COFFREFORT_CACHE_BALANCE_TTL" default:"60s"`
	DashboardTTL  time.Duration `envconfig:"COFFREFORT_CACHE_DASHBOARD_TTL" default:"60s"`
	SweepInterval time.Duration `envconfig:"COFFREFORT_CACHE_SWEEP_INTERVAL" default:"5m"`
}

// UseRedis reports whether the shared Redis cache tier is selected.
func (c CacheConfig) UseRedis() bool {
	return strings.EqualFold(strings.TrimSpace(c.Backend), "redis")
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"COFFREFORT_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"COFFREFORT_AUTO_MIGRATE" default:"false"`
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
