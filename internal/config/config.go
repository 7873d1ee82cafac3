package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Defaults applied to values missing from the file and environment
const (
	DefaultBaseURL         = "http://localhost:3001/api/v1"
	DefaultHTTPAddr        = ":8080"
	DefaultStepTimeout     = 10 * time.Second
	DefaultRefreshSchedule = "@every 5m"
	DefaultCacheTTL        = 24 * time.Hour
	DefaultLocale          = "en"
)

// Config holds Pallas configuration
type Config struct {
	HTTP         HTTPConfig          `yaml:"http"`
	Postgres     PostgresConfig      `yaml:"postgres"`
	Redis        RedisConfig         `yaml:"redis"`
	Logging      LoggingConfig       `yaml:"logging"`
	Competitions []CompetitionConfig `yaml:"competitions"`
}

// HTTPConfig configures the API listener
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// PostgresConfig configures the fixture archive. An empty DSN disables it.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// RedisConfig configures the fixture cache. An empty Addr disables it.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// LoggingConfig selects the log level and output format
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// CompetitionConfig describes one league API to pull fixtures from
type CompetitionConfig struct {
	Key         string        `yaml:"key"`
	DisplayName string        `yaml:"display_name"`
	BaseURL     string        `yaml:"base_url"`
	StepTimeout time.Duration `yaml:"step_timeout"` // per request of the token/fixtures handshake
	Refresh     string        `yaml:"refresh"`      // cron spec, e.g. "@every 5m"
	Locale      string        `yaml:"locale"`       // BCP 47 tag for the alphabetical tie-break
}

// Default returns the configuration used when no file is present
func Default() *Config {
	return &Config{
		HTTP:    HTTPConfig{Addr: DefaultHTTPAddr},
		Redis:   RedisConfig{CacheTTL: DefaultCacheTTL},
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Competitions: []CompetitionConfig{
			{
				Key:         "default",
				DisplayName: "League",
				BaseURL:     DefaultBaseURL,
				StepTimeout: DefaultStepTimeout,
				Refresh:     DefaultRefreshSchedule,
				Locale:      DefaultLocale,
			},
		},
	}
}

// Load reads the YAML file at path, applies defaults and environment
// overrides, and validates the result. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// defaults only
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			var fileCfg Config
			if err := yaml.Unmarshal(data, &fileCfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
			cfg.merge(&fileCfg)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// merge overlays the non-zero values of other onto c
func (c *Config) merge(other *Config) {
	if other.HTTP.Addr != "" {
		c.HTTP.Addr = other.HTTP.Addr
	}
	if other.Postgres.DSN != "" {
		c.Postgres.DSN = other.Postgres.DSN
	}
	if other.Redis.Addr != "" {
		c.Redis.Addr = other.Redis.Addr
	}
	if other.Redis.Password != "" {
		c.Redis.Password = other.Redis.Password
	}
	if other.Redis.DB != 0 {
		c.Redis.DB = other.Redis.DB
	}
	if other.Redis.CacheTTL != 0 {
		c.Redis.CacheTTL = other.Redis.CacheTTL
	}
	if other.Logging.Level != "" {
		c.Logging.Level = other.Logging.Level
	}
	if other.Logging.Format != "" {
		c.Logging.Format = other.Logging.Format
	}
	if len(other.Competitions) > 0 {
		c.Competitions = other.Competitions
	}
}

// applyEnv lets the environment override file values
func (c *Config) applyEnv() {
	c.HTTP.Addr = getEnv("PALLAS_HTTP_ADDR", c.HTTP.Addr)
	c.Postgres.DSN = getEnv("PALLAS_POSTGRES_DSN", c.Postgres.DSN)
	c.Redis.Addr = getEnv("PALLAS_REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnv("PALLAS_REDIS_PASSWORD", c.Redis.Password)
	c.Logging.Level = getEnv("PALLAS_LOG_LEVEL", c.Logging.Level)

	if db := os.Getenv("PALLAS_REDIS_DB"); db != "" {
		if parsed, err := strconv.Atoi(db); err == nil {
			c.Redis.DB = parsed
		}
	}

	// A single base URL override only makes sense for single-competition setups
	if baseURL := os.Getenv("PALLAS_API_BASE_URL"); baseURL != "" && len(c.Competitions) == 1 {
		c.Competitions[0].BaseURL = baseURL
	}
}

func (c *Config) applyDefaults() {
	if c.Redis.CacheTTL <= 0 {
		c.Redis.CacheTTL = DefaultCacheTTL
	}
	for i := range c.Competitions {
		comp := &c.Competitions[i]
		if comp.BaseURL == "" {
			comp.BaseURL = DefaultBaseURL
		}
		if comp.StepTimeout <= 0 {
			comp.StepTimeout = DefaultStepTimeout
		}
		if comp.Refresh == "" {
			comp.Refresh = DefaultRefreshSchedule
		}
		if comp.Locale == "" {
			comp.Locale = DefaultLocale
		}
		if comp.DisplayName == "" {
			comp.DisplayName = comp.Key
		}
	}
}

// Validate checks the configuration for unusable values
func (c *Config) Validate() error {
	if len(c.Competitions) == 0 {
		return fmt.Errorf("at least one competition must be configured")
	}

	seen := make(map[string]bool, len(c.Competitions))
	for i, comp := range c.Competitions {
		if comp.Key == "" {
			return fmt.Errorf("competition %d: key is required", i)
		}
		if seen[comp.Key] {
			return fmt.Errorf("competition %s: duplicate key", comp.Key)
		}
		seen[comp.Key] = true

		if comp.BaseURL == "" {
			return fmt.Errorf("competition %s: base_url is required", comp.Key)
		}
		if _, err := cron.ParseStandard(comp.Refresh); err != nil {
			return fmt.Errorf("competition %s: invalid refresh schedule %q: %w", comp.Key, comp.Refresh, err)
		}
		if _, err := language.Parse(comp.Locale); comp.Locale != "" && err != nil {
			return fmt.Errorf("competition %s: invalid locale %q: %w", comp.Key, comp.Locale, err)
		}
	}

	return nil
}

// LocaleTag returns the parsed collation locale, falling back to English
func (c CompetitionConfig) LocaleTag() language.Tag {
	tag, err := language.Parse(c.Locale)
	if err != nil || c.Locale == "" {
		return language.English
	}
	return tag
}

// getEnv gets an environment variable with a default fallback
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
