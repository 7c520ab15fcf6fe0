package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ProviderEntry declares one external data provider. It is the YAML
// counterpart of provider.Config; the DI layer converts entries at startup.
type ProviderEntry struct {
	ID         string         `yaml:"id"`
	Name       string         `yaml:"name"`
	Locator    string         `yaml:"locator"`
	BaseURL    string         `yaml:"base_url"`
	APIKey     string         `yaml:"api_key"`
	RateLimit  int            `yaml:"rate_limit"` // requests per minute
	Timeout    time.Duration  `yaml:"timeout"`
	Retries    int            `yaml:"retries"`
	Enabled    bool           `yaml:"enabled"`
	Priority   int            `yaml:"priority"` // lower = preferred
	Categories []string       `yaml:"categories"`
	Regions    []string       `yaml:"regions"`
	CacheTTL   time.Duration  `yaml:"cache_ttl"`
	Params     map[string]any `yaml:"params"`
}

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logging"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Middleware struct {
		MaxRequests   int           `yaml:"max_requests"`   // per client per window
		WindowSeconds int           `yaml:"window_seconds"` // sliding window size
		CacheTTL      time.Duration `yaml:"cache_ttl"`      // response cache TTL
		SlowThreshold time.Duration `yaml:"slow_threshold"`
	} `yaml:"middleware"`
	Cache struct {
		Backend string `yaml:"backend"` // memory, redis, or layered
		MaxSize int    `yaml:"max_size"`
		Redis   struct {
			Host     string `yaml:"host"`
			Port     int    `yaml:"port"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Kafka struct {
		Enabled      bool          `yaml:"enabled"`
		Brokers      []string      `yaml:"brokers"`
		Topic        string        `yaml:"topic"` // fetch-completion events
		LogTopic     string        `yaml:"log_topic"`
		RequiredAcks int           `yaml:"required_acks"`
		Compression  string        `yaml:"compression"`
		MaxAttempts  int           `yaml:"max_attempts"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
		BatchTimeout time.Duration `yaml:"batch_timeout"`
		Async        bool          `yaml:"async"`
	} `yaml:"kafka"`
	Fetch struct {
		MaxConcurrent int `yaml:"max_concurrent"` // bulk fetch gate
		MaxBulkSize   int `yaml:"max_bulk_size"`
	} `yaml:"fetch"`
	Providers []ProviderEntry `yaml:"providers"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Cache.Redis.Host = v
	}

	// Per-provider API keys: FINFETCH_<ID>_API_KEY wins over the file.
	for i := range c.Providers {
		env := "FINFETCH_" + strings.ToUpper(strings.ReplaceAll(c.Providers[i].ID, "-", "_")) + "_API_KEY"
		if v := os.Getenv(env); v != "" {
			c.Providers[i].APIKey = v
		}
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Middleware.MaxRequests == 0 {
		c.Middleware.MaxRequests = 100
	}
	if c.Middleware.WindowSeconds == 0 {
		c.Middleware.WindowSeconds = 60
	}
	if c.Middleware.CacheTTL == 0 {
		c.Middleware.CacheTTL = 5 * time.Minute
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = "memory"
	}
	if c.Fetch.MaxConcurrent == 0 {
		c.Fetch.MaxConcurrent = 5
	}
	if c.Fetch.MaxBulkSize == 0 {
		c.Fetch.MaxBulkSize = 50
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	switch c.Cache.Backend {
	case "memory", "redis", "layered":
	default:
		return fmt.Errorf("cache.backend must be 'memory', 'redis', or 'layered', got '%s'", c.Cache.Backend)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if len(c.Providers) == 0 {
		return fmt.Errorf("at least one provider must be declared")
	}
	seen := make(map[string]struct{}, len(c.Providers))
	for _, p := range c.Providers {
		if p.ID == "" {
			return fmt.Errorf("provider id is required")
		}
		if p.Locator == "" {
			return fmt.Errorf("provider %s: locator is required", p.ID)
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("duplicate provider id '%s'", p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	return nil
}
