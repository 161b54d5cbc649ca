// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"
)

// DefaultPath is read when no configuration file is named.
const DefaultPath = "fanrun.yaml"

var (
	// ErrReadConfig is returned when the configuration file cannot be read.
	ErrReadConfig = errors.New("failed to read config file")
	// ErrInvalidYaml is returned when the configuration file is not valid YAML.
	ErrInvalidYaml = errors.New("invalid YAML")
	// ErrInvalidConfig is returned when a loaded configuration fails validation.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// FsFactory returns the filesystem configuration is read from.
var FsFactory = func() afero.Fs {
	return afero.NewOsFs()
}

// Config is the application configuration.
type Config struct {
	ProfileEnvVar  string   `yaml:"profile_env_var"`
	RegionEnvVar   string   `yaml:"region_env_var"`
	DefaultTimeout string   `yaml:"default_timeout"`
	StopOnFailure  bool     `yaml:"stop_on_failure"`
	HistorySize    int      `yaml:"history_size"`
	Tiers          []string `yaml:"tiers"`
	StreamBuffer   int      `yaml:"stream_buffer"`
	MaxOutputBytes int64    `yaml:"max_output_bytes"`
	Shell          string   `yaml:"shell"`
	Listen         string   `yaml:"listen"`
	ProfilesFile   string   `yaml:"profiles_file"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		ProfileEnvVar:  "AWS_PROFILE",
		RegionEnvVar:   "AWS_DEFAULT_REGION",
		DefaultTimeout: "300s",
		StopOnFailure:  true,
		HistorySize:    100,
		Tiers:          []string{"dev"},
		StreamBuffer:   16,
		MaxOutputBytes: 8 * 1024 * 1024,
		Listen:         "127.0.0.1:8000",
	}
}

// Load reads path and overlays it on Default. An empty path loads DefaultPath
// if it exists and falls back to Default otherwise.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	data, err := afero.ReadFile(FsFactory(), path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}

		return nil, errors.Join(ErrReadConfig, err)
	}

	return Parse(data)
}

// Parse decodes YAML over Default and validates the result. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	if err := yaml.UnmarshalWithOptions(data, cfg, yaml.DisallowUnknownField()); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYaml, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var result error

	if c.ProfileEnvVar == "" {
		result = multierror.Append(result, errors.New("profile_env_var must not be empty"))
	}

	if d, err := time.ParseDuration(c.DefaultTimeout); err != nil {
		result = multierror.Append(result, fmt.Errorf("default_timeout: %w", err))
	} else if d <= 0 {
		result = multierror.Append(result, fmt.Errorf("default_timeout must be positive, got %s", d))
	}

	if c.HistorySize <= 0 {
		result = multierror.Append(result, fmt.Errorf("history_size must be positive, got %d", c.HistorySize))
	}

	if c.StreamBuffer < 0 {
		result = multierror.Append(result, fmt.Errorf("stream_buffer must not be negative, got %d", c.StreamBuffer))
	}

	if c.MaxOutputBytes <= 0 {
		result = multierror.Append(result, fmt.Errorf("max_output_bytes must be positive, got %d", c.MaxOutputBytes))
	}

	if c.Listen == "" {
		result = multierror.Append(result, errors.New("listen must not be empty"))
	}

	if slices.Contains(c.Tiers, "") {
		result = multierror.Append(result, errors.New("tiers must not contain empty names"))
	}

	if result != nil {
		return errors.Join(ErrInvalidConfig, result)
	}

	return nil
}

// Timeout returns DefaultTimeout parsed. Call Validate first; invalid values yield zero.
func (c *Config) Timeout() time.Duration {
	d, _ := time.ParseDuration(c.DefaultTimeout)
	return d
}
