// Package config loads and validates the pipeline run configuration. A
// config file (JSON or YAML) names the mapping, the storage backend, the
// stage chain, and the run settings.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/c360/cleansweep/errors"
	"github.com/c360/cleansweep/pipeline"
)

// Config is the full run configuration.
type Config struct {
	// Mapping is the path to the mapping spec file.
	Mapping string `json:"mapping" yaml:"mapping"`

	Storage  StorageConfig   `json:"storage" yaml:"storage"`
	Input    InputConfig     `json:"input" yaml:"input"`
	Pipeline pipeline.Config `json:"pipeline,omitempty" yaml:"pipeline,omitempty"`
	Stages   []StageConfig   `json:"stages,omitempty" yaml:"stages,omitempty"`
	Metrics  MetricsConfig   `json:"metrics,omitempty" yaml:"metrics,omitempty"`
	NATS     NATSConfig      `json:"nats,omitempty" yaml:"nats,omitempty"`
}

// StorageConfig selects the artifact store backend.
type StorageConfig struct {
	// Backend is "fs" or "nats".
	Backend string `json:"backend" yaml:"backend"`
	// Dir is the root directory for the fs backend.
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty"`
	// Bucket is the JetStream ObjectStore bucket for the nats backend.
	Bucket string `json:"bucket,omitempty" yaml:"bucket,omitempty"`
	// Cache enables an in-memory read cache in front of the backend.
	Cache CacheConfig `json:"cache,omitempty" yaml:"cache,omitempty"`
}

// CacheConfig controls the optional store read cache.
type CacheConfig struct {
	Enabled bool          `json:"enabled" yaml:"enabled"`
	MaxSize int           `json:"max_size,omitempty" yaml:"max_size,omitempty"`
	TTL     time.Duration `json:"ttl,omitempty" yaml:"ttl,omitempty"`
}

// InputConfig selects the documents to process.
type InputConfig struct {
	// Prefix lists store keys to process. Ignored when Keys is set.
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	// Keys names documents explicitly.
	Keys []string `json:"keys,omitempty" yaml:"keys,omitempty"`
}

// StageConfig names a stage and carries its settings. Settings are kept as a
// generic map so they survive both JSON and YAML, and are handed to the
// stage factory as raw JSON.
type StageConfig struct {
	Name     string         `json:"name" yaml:"name"`
	Settings map[string]any `json:"settings,omitempty" yaml:"settings,omitempty"`
}

// Raw returns the stage settings as raw JSON for the stage factory.
func (s StageConfig) Raw() (json.RawMessage, error) {
	if s.Settings == nil {
		return nil, nil
	}
	data, err := json.Marshal(s.Settings)
	if err != nil {
		return nil, errors.WrapInvalid(err, "config", "Raw", "encode stage settings")
	}
	return data, nil
}

// MetricsConfig controls the metrics HTTP endpoint.
type MetricsConfig struct {
	Enabled bool   `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Port    int    `json:"port,omitempty" yaml:"port,omitempty"`
	Path    string `json:"path,omitempty" yaml:"path,omitempty"`
}

// NATSConfig holds connection settings for the nats storage backend.
type NATSConfig struct {
	URL      string `json:"url,omitempty" yaml:"url,omitempty"`
	Username string `json:"username,omitempty" yaml:"username,omitempty"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
	Token    string `json:"token,omitempty" yaml:"token,omitempty"`
}

// Load reads a config file, dispatching on extension (.json, .yaml, .yml),
// and validates it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: %s: %v", errors.ErrMissingConfig, path, err),
			"config", "Load", "read config file")
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, errors.WrapInvalid(err, "config", "Load", "parse YAML config")
		}
	case ".json":
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, errors.WrapInvalid(err, "config", "Load", "parse JSON config")
		}
	default:
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: unsupported config extension %q", errors.ErrInvalidConfig, filepath.Ext(path)),
			"config", "Load", "dispatch by extension")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the config and fills defaults.
func (c *Config) Validate() error {
	if c.Mapping == "" {
		return invalid("mapping is required")
	}

	switch c.Storage.Backend {
	case "", "fs":
		c.Storage.Backend = "fs"
		if c.Storage.Dir == "" {
			return invalid("storage.dir is required for the fs backend")
		}
	case "nats":
		if c.Storage.Bucket == "" {
			return invalid("storage.bucket is required for the nats backend")
		}
		if c.NATS.URL == "" {
			c.NATS.URL = "nats://127.0.0.1:4222"
		}
	default:
		return invalid(fmt.Sprintf("unknown storage backend %q", c.Storage.Backend))
	}

	if c.Storage.Cache.Enabled {
		if c.Storage.Cache.MaxSize == 0 {
			c.Storage.Cache.MaxSize = 128
		}
		if c.Storage.Cache.MaxSize < 0 {
			return invalid("storage.cache.max_size must be positive")
		}
		if c.Storage.Cache.TTL < 0 {
			return invalid("storage.cache.ttl must not be negative")
		}
	}

	if len(c.Input.Keys) == 0 && c.Input.Prefix == "" {
		return invalid("input.keys or input.prefix is required")
	}

	seen := make(map[string]struct{}, len(c.Stages))
	for i, stage := range c.Stages {
		if stage.Name == "" {
			return invalid(fmt.Sprintf("stages[%d].name is required", i))
		}
		if _, dup := seen[stage.Name]; dup {
			return invalid(fmt.Sprintf("stage %q listed twice", stage.Name))
		}
		seen[stage.Name] = struct{}{}
	}

	if c.Metrics.Enabled {
		if c.Metrics.Port == 0 {
			c.Metrics.Port = 9090
		}
		if c.Metrics.Path == "" {
			c.Metrics.Path = "/metrics"
		}
	}
	return nil
}

func invalid(detail string) error {
	return errors.WrapInvalid(
		fmt.Errorf("%w: %s", errors.ErrInvalidConfig, detail),
		"config", "Validate", "validate config")
}
