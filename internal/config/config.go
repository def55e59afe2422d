// Package config loads settings from an optional YAML file, then applies
// GEOBOUNDS_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/kass/geo-bounds/pkg/postgis"
)

// EnvPrefix prefixes every environment override, e.g. GEOBOUNDS_SERVER_ADDR
const EnvPrefix = "GEOBOUNDS"

// Config is the full application configuration
type Config struct {
	Server  ServerConfig   `yaml:"server"`
	Index   IndexConfig    `yaml:"index"`
	PostGIS postgis.Config `yaml:"postgis"`
	Log     LogConfig      `yaml:"log"`
}

// ServerConfig configures the HTTP API server
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	Mode            string        `yaml:"mode"`
	ReadTimeout     time.Duration `yaml:"read_timeout" split_words:"true"`
	WriteTimeout    time.Duration `yaml:"write_timeout" split_words:"true"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" split_words:"true"`
}

// IndexConfig locates the saved place index and sets its partition count
type IndexConfig struct {
	File       string `yaml:"file"`
	Partitions int    `yaml:"partitions"`
}

// LogConfig selects the log level and the console or json encoding
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the settings used when neither file nor environment set a value
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			Mode:            "release",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Index: IndexConfig{
			File: "geo_index.gob",
		},
		PostGIS: postgis.Config{
			Host:           "localhost",
			Port:           5432,
			User:           "postgres",
			Database:       "geodb",
			SSLMode:        "disable",
			MaxConnections: 25,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads path on top of the defaults and applies environment overrides.
// An empty path or a missing file leaves the defaults in place.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("reading config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parsing config file %s: %w", path, err)
			}
		}
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	return &cfg, nil
}
