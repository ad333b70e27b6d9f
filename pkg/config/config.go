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
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	Nexi         NexiConfig
	Sendgrid     SendgridConfig
	Sweep        SweepConfig
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
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"LISENS_APP_ENV" required:"true"`
	Port         string `envconfig:"LISENS_APP_PORT" required:"true"`
	BaseURL      string `envconfig:"LISENS_APP_BASE_URL" default:"http://localhost:3000"`
	LogLevel     string `envconfig:"LISENS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"LISENS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"LISENS_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"LISENS_DB_DSN"`
	Driver string `envconfig:"LISENS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"LISENS_DB_HOST"`
	LegacyPort     int    `envconfig:"LISENS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"LISENS_DB_USER"`
	LegacyPassword string `envconfig:"LISENS_DB_PASSWORD"`
	LegacyName     string `envconfig:"LISENS_DB_NAME"`
	LegacySSLMode  string `envconfig:"LISENS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"LISENS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"LISENS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"LISENS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"LISENS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"LISENS_REDIS_URL" required:"true"`
	PoolSize     int           `envconfig:"LISENS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"LISENS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"LISENS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"LISENS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"LISENS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// NexiConfig holds the Nets Easy payment API credentials and endpoints.
type NexiConfig struct {
	SecretKey      string        `envconfig:"LISENS_NEXI_SECRET_KEY" required:"true"`
	BaseURL        string        `envconfig:"LISENS_NEXI_BASE_URL" default:"https://test.api.dibspayment.eu"`
	RequestTimeout time.Duration `envconfig:"LISENS_NEXI_REQUEST_TIMEOUT" default:"15s"`
	TermsURL       string        `envconfig:"LISENS_NEXI_TERMS_URL" default:"https://bilsport.no/terms"`
}

type SendgridConfig struct {
	APIKey    string `envconfig:"LISENS_SENDGRID_API_KEY"`
	FromEmail string `envconfig:"LISENS_SENDGRID_FROM_EMAIL" default:"lisens@bilsport.no"`
	FromName  string `envconfig:"LISENS_SENDGRID_FROM_NAME" default:"Norges Bilsportforbund"`
}

type SweepConfig struct {
	PendingOrderTTL time.Duration `envconfig:"LISENS_SWEEP_PENDING_ORDER_TTL" default:"24h"`
	Interval        time.Duration `envconfig:"LISENS_SWEEP_INTERVAL" default:"15m"`
	LockTTL         time.Duration `envconfig:"LISENS_SWEEP_LOCK_TTL" default:"10m"`
	BatchSize       int           `envconfig:"LISENS_SWEEP_BATCH_SIZE" default:"100"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"LISENS_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"LISENS_AUTO_MIGRATE" default:"false"`
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
