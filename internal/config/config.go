// Package config loads parsearch settings from an optional YAML file and
// PARSEARCH_ environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/vegasq/parsearch/reader"
)

// EnvPrefix prefixes every environment variable, e.g. PARSEARCH_HTTP_ADDR.
const EnvPrefix = "PARSEARCH"

// Config is the complete runtime configuration.
type Config struct {
	Log    LogConfig    `mapstructure:"log"`
	Search SearchConfig `mapstructure:"search"`
	HTTP   HTTPConfig   `mapstructure:"http"`
	// Locale selects number formatting, e.g. "en-US".
	Locale      string              `mapstructure:"locale"`
	DataSources []reader.DataSource `mapstructure:"datasources"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SearchConfig tunes sessions and result caps.
type SearchConfig struct {
	// StoreSizes caps the items aggregated per group depth.
	StoreSizes []int `mapstructure:"store_sizes"`
	// DefaultMaxResults caps the rows returned per group depth.
	DefaultMaxResults []int `mapstructure:"default_max_results"`
	// BatchSize is the number of rows ingested between snapshots.
	BatchSize     int           `mapstructure:"batch_size"`
	Workers       int           `mapstructure:"workers"`
	MaxIdle       time.Duration `mapstructure:"max_idle"`
	MaxAge        time.Duration `mapstructure:"max_age"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

var defaults = map[string]interface{}{
	"log.level":                  "info",
	"log.format":                 "text",
	"locale":                     "en-US",
	"http.addr":                  ":8080",
	"search.store_sizes":         []int{1000000, 100, 10, 1},
	"search.default_max_results": []int{1000000},
	"search.batch_size":          1000,
	"search.workers":             8,
	"search.max_idle":            10 * time.Minute,
	"search.max_age":             time.Hour,
	"search.sweep_interval":      30 * time.Second,
	"datasources":                []reader.DataSource{},
}

// Load reads path when set, then applies environment overrides. Without a
// path only defaults and the environment are used.
func Load(path string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config %s: %w", path, err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the search service cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Search.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("search.batch_size must be positive, got %d", c.Search.BatchSize))
	}
	if c.Search.Workers <= 0 {
		errs = append(errs, fmt.Errorf("search.workers must be positive, got %d", c.Search.Workers))
	}
	for _, size := range append(append([]int(nil), c.Search.StoreSizes...), c.Search.DefaultMaxResults...) {
		if size <= 0 {
			errs = append(errs, fmt.Errorf("result sizes must be positive, got %d", size))
			break
		}
	}
	for i, ds := range c.DataSources {
		if ds.Path == "" {
			errs = append(errs, fmt.Errorf("datasources[%d]: path is required", i))
		}
		if ds.Name == "" && ds.UUID == "" {
			errs = append(errs, fmt.Errorf("datasources[%d]: name or uuid is required", i))
		}
	}
	return errors.Join(errs...)
}

// Catalog returns the configured data sources.
func (c *Config) Catalog() *reader.Catalog {
	return reader.NewCatalog(c.DataSources...)
}
