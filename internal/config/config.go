// Package config loads and validates scraper configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/JakeFAU/depth-scraper/internal/crawler"
	"github.com/JakeFAU/depth-scraper/internal/logging"
)

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Crawler CrawlerConfig  `mapstructure:"crawler"`
	Logging logging.Config `mapstructure:"logging"`
	Metrics MetricsConfig  `mapstructure:"metrics"`
}

// CrawlerConfig governs the worker pool, fetch retries, and output tree.
type CrawlerConfig struct {
	Workers              int           `mapstructure:"workers"`
	Retries              int           `mapstructure:"retries"`
	BaseTimeout          time.Duration `mapstructure:"base_timeout"`
	OutputDir            string        `mapstructure:"output_dir"`
	Storage              string        `mapstructure:"storage"`
	UserAgent            string        `mapstructure:"user_agent"`
	MaxRequestsPerSecond float64       `mapstructure:"max_requests_per_second"`
	MaxBodyBytes         int           `mapstructure:"max_body_bytes"`
}

// Artifact storage backends selectable through crawler.storage.
const (
	StorageLocal  = "local"
	StorageMemory = "memory"
)

// MetricsConfig controls where the Prometheus textfile is written.
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SCRAPER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("crawler.workers", 10)
	v.SetDefault("crawler.retries", crawler.DefaultRetries)
	v.SetDefault("crawler.base_timeout", crawler.DefaultBaseTimeout)
	v.SetDefault("crawler.output_dir", ".")
	v.SetDefault("crawler.storage", StorageLocal)
	v.SetDefault("crawler.user_agent", "scraper/1.0")
	v.SetDefault("crawler.max_requests_per_second", 0)
	v.SetDefault("crawler.max_body_bytes", 10<<20)
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.max_size_mb", 100)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.compress", false)
	v.SetDefault("metrics.textfile", "")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Crawler.Workers <= 0 {
		return fmt.Errorf("%w: crawler.workers must be > 0", crawler.ErrInvalidConfig)
	}
	if c.Crawler.Retries <= 0 {
		return fmt.Errorf("%w: crawler.retries must be > 0", crawler.ErrInvalidConfig)
	}
	if c.Crawler.BaseTimeout <= 0 {
		return fmt.Errorf("%w: crawler.base_timeout must be > 0", crawler.ErrInvalidConfig)
	}
	if c.Crawler.OutputDir == "" {
		return fmt.Errorf("%w: crawler.output_dir must be set", crawler.ErrInvalidConfig)
	}
	switch c.Crawler.Storage {
	case StorageLocal, StorageMemory:
	default:
		return fmt.Errorf("%w: crawler.storage must be %q or %q, got %q",
			crawler.ErrInvalidConfig, StorageLocal, StorageMemory, c.Crawler.Storage)
	}
	if c.Crawler.MaxRequestsPerSecond < 0 {
		return fmt.Errorf("%w: crawler.max_requests_per_second must be >= 0", crawler.ErrInvalidConfig)
	}
	if c.Crawler.MaxBodyBytes < 0 {
		return fmt.Errorf("%w: crawler.max_body_bytes must be >= 0", crawler.ErrInvalidConfig)
	}
	return nil
}
