package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"gopkg.in/yaml.v3"
)

// Config captures the settings required to boot the service and its jobs.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Upstream    UpstreamConfig    `yaml:"upstream"`
	Store       StoreConfig       `yaml:"store"`
	Aggregation AggregationConfig `yaml:"aggregation"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// ServerConfig controls the HTTP listener behaviour.
type ServerConfig struct {
	Address         string        `yaml:"address"`
	MetricsAddress  string        `yaml:"metricsAddress"`
	GracefulTimeout time.Duration `yaml:"gracefulTimeout"`
}

// UpstreamConfig configures access to the user generator API and the fetch
// client's cache and pagination tunables.
type UpstreamConfig struct {
	BaseURL          string        `yaml:"baseURL"`
	Seed             string        `yaml:"seed"`
	Timeout          time.Duration `yaml:"timeout"`
	PageSize         int           `yaml:"pageSize"`
	MaxUsers         int           `yaml:"maxUsers"`
	CacheTTL         time.Duration `yaml:"cacheTTL"`
	CacheCapacity    int           `yaml:"cacheCapacity"`
	DebounceInterval time.Duration `yaml:"debounceInterval"`
}

// StoreConfig configures the Valkey/Redis-compatible key-value store holding
// the event stream and the stats snapshot.
type StoreConfig struct {
	Addr         string        `yaml:"addr"`
	Username     string        `yaml:"username"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	DialTimeout  time.Duration `yaml:"dialTimeout"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	MaxRetries   int           `yaml:"maxRetries"`
	TLS          bool          `yaml:"tls"`
	LogsKey      string        `yaml:"logsKey"`
	StatsKey     string        `yaml:"statsKey"`
	PrefsKey     string        `yaml:"prefsKey"`
}

// AggregationConfig controls the recurring stats job.
type AggregationConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// envOverrides is parsed from the environment after the YAML file; pointer
// fields distinguish "unset" from zero values.
type envOverrides struct {
	ServerAddress   string         `env:"PEOPLEDECK_SERVER_ADDRESS"`
	MetricsAddress  string         `env:"PEOPLEDECK_METRICS_ADDRESS"`
	UpstreamBaseURL string         `env:"PEOPLEDECK_UPSTREAM_URL"`
	UpstreamSeed    string         `env:"PEOPLEDECK_UPSTREAM_SEED"`
	PageSize        *int           `env:"PEOPLEDECK_PAGE_SIZE"`
	MaxUsers        *int           `env:"PEOPLEDECK_MAX_USERS"`
	CacheTTL        *time.Duration `env:"PEOPLEDECK_CACHE_TTL"`
	CacheCapacity   *int           `env:"PEOPLEDECK_CACHE_CAPACITY"`
	StoreAddr       string         `env:"PEOPLEDECK_STORE_ADDR"`
	StoreUsername   string         `env:"PEOPLEDECK_STORE_USERNAME"`
	StorePassword   string         `env:"PEOPLEDECK_STORE_PASSWORD"`
	StoreDB         *int           `env:"PEOPLEDECK_STORE_DB"`
	StoreTLS        *bool          `env:"PEOPLEDECK_STORE_TLS"`
	Interval        *time.Duration `env:"PEOPLEDECK_AGGREGATION_INTERVAL"`
	LogLevel        string         `env:"PEOPLEDECK_LOG_LEVEL"`
	LogJSON         *bool          `env:"PEOPLEDECK_LOG_JSON"`
}

// Load initialises Config from a YAML file plus environment overrides, then
// validates it. Validation failures are fatal by design: the process should
// crash at startup rather than degrade silently.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("PEOPLEDECK_CONFIG")
	}

	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	var overrides envOverrides
	if err := env.Parse(&overrides); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	apply(&cfg, overrides)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the required settings and tunable ranges.
func (c *Config) Validate() error {
	if c.Upstream.BaseURL == "" {
		return errors.New("config: upstream base URL is required")
	}
	if c.Upstream.Seed == "" {
		return errors.New("config: upstream seed is required")
	}
	if c.Store.Addr == "" {
		return errors.New("config: store addr is required")
	}
	if c.Upstream.PageSize < 1 || c.Upstream.PageSize > 100 {
		return fmt.Errorf("config: page size must be in [1,100], got %d", c.Upstream.PageSize)
	}
	if c.Upstream.MaxUsers < 1 {
		return fmt.Errorf("config: max users must be positive, got %d", c.Upstream.MaxUsers)
	}
	if c.Upstream.CacheCapacity < 1 {
		return fmt.Errorf("config: cache capacity must be positive, got %d", c.Upstream.CacheCapacity)
	}
	if c.Aggregation.Interval <= 0 {
		return fmt.Errorf("config: aggregation interval must be positive, got %s", c.Aggregation.Interval)
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Address:         ":8080",
			MetricsAddress:  ":2112",
			GracefulTimeout: 10 * time.Second,
		},
		Upstream: UpstreamConfig{
			Timeout:          10 * time.Second,
			PageSize:         50,
			MaxUsers:         1000,
			CacheTTL:         5 * time.Minute,
			CacheCapacity:    100,
			DebounceInterval: 300 * time.Millisecond,
		},
		Store: StoreConfig{
			DialTimeout:  2 * time.Second,
			ReadTimeout:  500 * time.Millisecond,
			WriteTimeout: 500 * time.Millisecond,
			MaxRetries:   2,
			LogsKey:      "search_logs",
			StatsKey:     "search_stats",
			PrefsKey:     "selected_nationalities",
		},
		Aggregation: AggregationConfig{Interval: 5 * time.Minute},
		Logging:     LoggingConfig{Level: "info", JSON: false},
	}
}

func apply(cfg *Config, o envOverrides) {
	if o.ServerAddress != "" {
		cfg.Server.Address = o.ServerAddress
	}
	if o.MetricsAddress != "" {
		cfg.Server.MetricsAddress = o.MetricsAddress
	}
	if o.UpstreamBaseURL != "" {
		cfg.Upstream.BaseURL = o.UpstreamBaseURL
	}
	if o.UpstreamSeed != "" {
		cfg.Upstream.Seed = o.UpstreamSeed
	}
	if o.PageSize != nil {
		cfg.Upstream.PageSize = *o.PageSize
	}
	if o.MaxUsers != nil {
		cfg.Upstream.MaxUsers = *o.MaxUsers
	}
	if o.CacheTTL != nil {
		cfg.Upstream.CacheTTL = *o.CacheTTL
	}
	if o.CacheCapacity != nil {
		cfg.Upstream.CacheCapacity = *o.CacheCapacity
	}
	if o.StoreAddr != "" {
		cfg.Store.Addr = o.StoreAddr
	}
	if o.StoreUsername != "" {
		cfg.Store.Username = o.StoreUsername
	}
	if o.StorePassword != "" {
		cfg.Store.Password = o.StorePassword
	}
	if o.StoreDB != nil {
		cfg.Store.DB = *o.StoreDB
	}
	if o.StoreTLS != nil {
		cfg.Store.TLS = *o.StoreTLS
	}
	if o.Interval != nil {
		cfg.Aggregation.Interval = *o.Interval
	}
	if o.LogLevel != "" {
		cfg.Logging.Level = o.LogLevel
	}
	if o.LogJSON != nil {
		cfg.Logging.JSON = *o.LogJSON
	}
}
