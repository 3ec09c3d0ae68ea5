package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App        AppConfig
	Data       DataConfig
	Pipeline   PipelineConfig
	Cache      CacheConfig
	Redis      RedisConfig
	Boundaries BoundariesConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Pipeline.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"OLIST_APP_ENV" required:"true"`
	Port         string   `envconfig:"OLIST_APP_PORT" default:"8080"`
	LogLevel     string   `envconfig:"OLIST_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"OLIST_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"OLIST_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DataConfig struct {
	Dir         string  `envconfig:"OLIST_DATA_DIR" default:"data"`
	MinLatitude float64 `envconfig:"OLIST_DATA_MIN_LATITUDE" default:"-35"`
}

type PipelineConfig struct {
	ExcludedMonths            []string `envconfig:"OLIST_EXCLUDED_MONTHS" default:"2018-09"`
	ExcludedTransactionMonths []string `envconfig:"OLIST_EXCLUDED_TRANSACTION_MONTHS" default:"2018-09,2020-02,2020-04"`
	ExcludedTransactionDays   []string `envconfig:"OLIST_EXCLUDED_TRANSACTION_DAYS" default:"2020-02-03,2020-04-09"`
	StrictJoins               bool     `envconfig:"OLIST_STRICT_JOINS" default:"false"`
	RJMinLongitude            float64  `envconfig:"OLIST_RJ_MIN_LONGITUDE" default:"-45"`
	FixMonetaryTier2          bool     `envconfig:"OLIST_RFM_FIX_MONETARY_TIER2" default:"false"`
}

func (p PipelineConfig) validate() error {
	for _, m := range append(append([]string{}, p.ExcludedMonths...), p.ExcludedTransactionMonths...) {
		if _, err := time.Parse(MonthLayout, strings.TrimSpace(m)); err != nil {
			return fmt.Errorf("invalid excluded month %q: expected %s", m, MonthLayout)
		}
	}
	for _, d := range p.ExcludedTransactionDays {
		if _, err := time.Parse(time.DateOnly, strings.TrimSpace(d)); err != nil {
			return fmt.Errorf("invalid excluded day %q: expected %s", d, time.DateOnly)
		}
	}
	return nil
}

type CacheConfig struct {
	MaxEntries int           `envconfig:"OLIST_CACHE_MAX_ENTRIES" default:"256"`
	TTL        time.Duration `envconfig:"OLIST_CACHE_TTL" default:"0"`
	RemoteTTL  time.Duration `envconfig:"OLIST_CACHE_REMOTE_TTL" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"OLIST_REDIS_URL"`
	Address      string        `envconfig:"OLIST_REDIS_ADDR"`
	Password     string        `envconfig:"OLIST_REDIS_PASSWORD"`
	DB           int           `envconfig:"OLIST_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"OLIST_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"OLIST_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"OLIST_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"OLIST_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"OLIST_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a shared Redis cache tier was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type BoundariesConfig struct {
	BaseURL string        `envconfig:"OLIST_BOUNDARIES_BASE_URL" default:"https://raw.githubusercontent.com/luizpedone/municipal-brazilian-geodata/refs/heads/master/data"`
	Timeout time.Duration `envconfig:"OLIST_BOUNDARIES_TIMEOUT" default:"10s"`
}
