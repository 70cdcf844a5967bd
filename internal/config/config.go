// Package config loads the ripple.json project configuration.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "ripple.json"

	// DefaultAddr is the default server listen address.
	DefaultAddr = ":8080"

	// DefaultTopWords is the default word-frequency view-model size.
	DefaultTopWords = 20
)

// Config represents the complete ripple.json configuration.
type Config struct {
	// Name is the project name.
	Name string `json:"name,omitempty"`

	// Addr is the server listen address.
	Addr string `json:"addr,omitempty"`

	// Dataset configures the backing record source.
	Dataset DatasetConfig `json:"dataset,omitempty"`

	// Sessions configures session limits.
	Sessions SessionsConfig `json:"sessions,omitempty"`

	// Metrics enables the Prometheus middleware and /metrics endpoint.
	Metrics bool `json:"metrics,omitempty"`

	// Tracing enables OpenTelemetry spans around requests and passes.
	Tracing bool `json:"tracing,omitempty"`
}

// DatasetConfig locates and maps the CSV dataset. Exactly one of Path or
// the S3 pair must be set.
type DatasetConfig struct {
	// Path is a local CSV file.
	Path string `json:"path,omitempty"`

	// S3Bucket and S3Key locate a CSV object in S3.
	S3Bucket string `json:"s3Bucket,omitempty"`
	S3Key    string `json:"s3Key,omitempty"`

	// RegionColumn and LocalityColumn name the cascade columns.
	// Defaults: "region", "locality".
	RegionColumn   string `json:"regionColumn,omitempty"`
	LocalityColumn string `json:"localityColumn,omitempty"`

	// NameColumn is the payload field tokenized for word frequency.
	// Default: "name".
	NameColumn string `json:"nameColumn,omitempty"`

	// TopWords caps the word-frequency view-model.
	TopWords int `json:"topWords,omitempty"`
}

// SessionsConfig bounds session behavior.
type SessionsConfig struct {
	// MaxSessions limits concurrently live sessions. 0 = unlimited.
	MaxSessions int `json:"maxSessions,omitempty"`

	// MaxPassesPerFlush bounds passes per drain. 0 = library default.
	MaxPassesPerFlush int `json:"maxPassesPerFlush,omitempty"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Addr: DefaultAddr,
		Dataset: DatasetConfig{
			TopWords: DefaultTopWords,
		},
	}
}

// Load reads ripple.json from dir, falling back to defaults for missing
// fields. A missing file is not an error; the defaults are returned.
func Load(dir string) (*Config, error) {
	cfg := Default()

	path := filepath.Join(dir, ConfigFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.Dataset.TopWords <= 0 {
		cfg.Dataset.TopWords = DefaultTopWords
	}
	return cfg, nil
}

// Save writes the configuration to dir/ripple.json.
func (c *Config) Save(dir string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	path := filepath.Join(dir, ConfigFileName)
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// Validate checks that the configuration names a dataset.
func (c *Config) Validate() error {
	d := c.Dataset
	hasPath := d.Path != ""
	hasS3 := d.S3Bucket != "" && d.S3Key != ""
	switch {
	case !hasPath && !hasS3:
		return errors.New("config: dataset requires path or s3Bucket/s3Key")
	case hasPath && hasS3:
		return errors.New("config: dataset path and s3Bucket/s3Key are mutually exclusive")
	}
	return nil
}
