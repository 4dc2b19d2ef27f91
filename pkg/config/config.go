package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App       AppConfig
	Dashboard DashboardConfig
	Sources   SourcesConfig
	Redis     RedisConfig
	GCP       GCPConfig
	PubSub    PubSubConfig
	Live      LiveConfig
	CORS      CORSConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Sources.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"MERCHANTPULSE_APP_ENV" required:"true"`
	Port         string `envconfig:"MERCHANTPULSE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"MERCHANTPULSE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MERCHANTPULSE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DashboardConfig struct {
	DefaultWindowDays int           `envconfig:"MERCHANTPULSE_DASHBOARD_DEFAULT_WINDOW_DAYS" default:"30"`
	TransactionsCap   int           `envconfig:"MERCHANTPULSE_DASHBOARD_TRANSACTIONS_CAP" default:"100"`
	ProductsCap       int           `envconfig:"MERCHANTPULSE_DASHBOARD_PRODUCTS_CAP" default:"100"`
	FilterDebounce    time.Duration `envconfig:"MERCHANTPULSE_DASHBOARD_FILTER_DEBOUNCE" default:"300ms"`
	RefreshInterval   time.Duration `envconfig:"MERCHANTPULSE_DASHBOARD_REFRESH_INTERVAL" default:"15m"`
}

// SourcesConfig describes the upstream read endpoints the dashboard fans out to.
// Every source lives under BaseURL; CriticalIDs lists the sources whose failure
// or empty result must surface as a user-visible banner.
type SourcesConfig struct {
	BaseURL      string        `envconfig:"MERCHANTPULSE_SOURCES_BASE_URL" required:"true"`
	FetchTimeout time.Duration `envconfig:"MERCHANTPULSE_SOURCES_FETCH_TIMEOUT" default:"10s"`
	CriticalIDs  []string      `envconfig:"MERCHANTPULSE_SOURCES_CRITICAL_IDS" default:"inventory"`
}

func (s SourcesConfig) IsCritical(id string) bool {
	for _, c := range s.CriticalIDs {
		if strings.EqualFold(strings.TrimSpace(c), id) {
			return true
		}
	}
	return false
}

func (s SourcesConfig) validate() error {
	if strings.TrimSpace(s.BaseURL) == "" {
		return fmt.Errorf("%s is required", EnvSourcesBaseURL)
	}
	if s.FetchTimeout <= 0 {
		return fmt.Errorf("%s must be positive", EnvSourcesFetchTimeout)
	}
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"MERCHANTPULSE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"MERCHANTPULSE_REDIS_ADDR"`
	Password     string        `envconfig:"MERCHANTPULSE_REDIS_PASSWORD"`
	DB           int           `envconfig:"MERCHANTPULSE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MERCHANTPULSE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MERCHANTPULSE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MERCHANTPULSE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MERCHANTPULSE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MERCHANTPULSE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"MERCHANTPULSE_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"MERCHANTPULSE_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"MERCHANTPULSE_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	LiveSubscription string `envconfig:"MERCHANTPULSE_PUBSUB_LIVE_SUBSCRIPTION" required:"true"`
}

type LiveConfig struct {
	IdempotencyTTL time.Duration `envconfig:"MERCHANTPULSE_LIVE_IDEMPOTENCY_TTL" default:"24h"`
	BackoffInitial time.Duration `envconfig:"MERCHANTPULSE_LIVE_BACKOFF_INITIAL" default:"1s"`
	BackoffMax     time.Duration `envconfig:"MERCHANTPULSE_LIVE_BACKOFF_MAX" default:"1m"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"MERCHANTPULSE_CORS_ALLOWED_ORIGINS" default:"*"`
}
