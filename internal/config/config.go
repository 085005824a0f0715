package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type AsanaConfig struct {
	Token      string `mapstructure:"token"`
	ProjectGID string `mapstructure:"project_gid"`
	TeamGID    string `mapstructure:"team_gid"`
}

type CacheConfig struct {
	TTL         time.Duration `mapstructure:"ttl"`
	PostgresURL string        `mapstructure:"postgres_url"`
}

type StatsConfig struct {
	Weeks  int `mapstructure:"weeks"`
	Months int `mapstructure:"months"`
}

type Config struct {
	Asana    AsanaConfig `mapstructure:"asana"`
	HTTPAddr string      `mapstructure:"http_addr"`
	DBPath   string      `mapstructure:"db_path"`
	Cache    CacheConfig `mapstructure:"cache"`
	Stats    StatsConfig `mapstructure:"stats"`

	FetchConcurrency int        `mapstructure:"fetch_concurrency"`
	LogLevel         slog.Level `mapstructure:"-"`
}

// Load reads .env (if present), then the optional YAML file at path, then the
// environment. Environment variables use underscores, e.g. CACHE_TTL.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("db_path", "./dashboard.db")
	v.SetDefault("cache.ttl", "12h")
	v.SetDefault("cache.postgres_url", "")
	v.SetDefault("stats.weeks", 52)
	v.SetDefault("stats.months", 12)
	v.SetDefault("fetch_concurrency", 8)
	v.SetDefault("log_level", "info")
	v.SetDefault("asana.token", "")
	v.SetDefault("asana.project_gid", "")
	v.SetDefault("asana.team_gid", "")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(v.GetString("log_level"))); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", v.GetString("log_level"), err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache ttl must be positive, got %v", c.Cache.TTL)
	}
	if c.FetchConcurrency <= 0 {
		return fmt.Errorf("fetch concurrency must be positive, got %d", c.FetchConcurrency)
	}
	if c.Stats.Weeks <= 0 || c.Stats.Months <= 0 {
		return fmt.Errorf("stats windows must be positive, got %d weeks and %d months", c.Stats.Weeks, c.Stats.Months)
	}
	return nil
}

// CanRefresh reports whether enough Asana settings are present to fetch a report.
func (c *Config) CanRefresh() bool {
	return c.Asana.Token != "" && c.Asana.ProjectGID != ""
}
