// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads and validates tracing session configuration.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	tracegateerrors "github.com/tracegate/tracegate/pkg/errors"
	"github.com/tracegate/tracegate/pkg/trace"
)

var (
	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("config: invalid configuration")
)

// Config represents a tracing session configuration.
type Config struct {
	// Events lists the event kinds the tracer reports. The single
	// entry "all" is the wildcard. Empty means the default set
	// (call, return, c_call, c_return).
	Events []string `yaml:"events,omitempty"`

	// Pause is an optional boolean expression deciding where execution
	// suspends, evaluated over the event environment (kind, path, line,
	// method, module, locals). Empty means the default predicate.
	Pause string `yaml:"pause,omitempty"`

	// Log configures structured logging for the session.
	Log LogConfig `yaml:"log,omitempty"`

	// Record configures optional event recording.
	Record RecordConfig `yaml:"record,omitempty"`
}

// LogConfig configures logging for a session.
type LogConfig struct {
	// Level sets the minimum log level (trace, debug, info, warn, error).
	Level string `yaml:"level,omitempty"`

	// Format sets the output format (json, text).
	Format string `yaml:"format,omitempty"`
}

// RecordConfig configures event recording sinks.
type RecordConfig struct {
	// Path is the SQLite database file delivered events are stored in.
	// Empty disables database recording.
	Path string `yaml:"path,omitempty"`

	// JSONL is a JSON-lines file delivered events are appended to.
	// Empty disables file recording.
	JSONL string `yaml:"jsonl,omitempty"`
}

// Default returns the default session configuration.
func Default() *Config {
	return &Config{}
}

// Load reads and validates a session configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &tracegateerrors.ConfigError{
			Reason: fmt.Sprintf("failed to read %s", path),
			Cause:  err,
		}
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, &tracegateerrors.ConfigError{
			Reason: "failed to parse YAML",
			Cause:  err,
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if _, err := c.Filter(); err != nil {
		return &tracegateerrors.ConfigError{
			Key:    "events",
			Reason: err.Error(),
			Cause:  ErrInvalidConfig,
		}
	}

	if c.Pause != "" {
		if _, err := trace.PauseExpr(c.Pause); err != nil {
			return &tracegateerrors.ConfigError{
				Key:    "pause",
				Reason: err.Error(),
				Cause:  ErrInvalidConfig,
			}
		}
	}

	switch c.Log.Level {
	case "", "trace", "debug", "info", "warn", "warning", "error":
	default:
		return &tracegateerrors.ConfigError{
			Key:    "log.level",
			Reason: fmt.Sprintf("unknown level %q", c.Log.Level),
			Cause:  ErrInvalidConfig,
		}
	}

	switch c.Log.Format {
	case "", "json", "text":
	default:
		return &tracegateerrors.ConfigError{
			Key:    "log.format",
			Reason: fmt.Sprintf("unknown format %q", c.Log.Format),
			Cause:  ErrInvalidConfig,
		}
	}

	return nil
}

// Filter builds the FilterSet the configuration describes.
func (c *Config) Filter() (trace.FilterSet, error) {
	if len(c.Events) == 0 {
		return trace.DefaultFilter(), nil
	}
	return trace.ParseFilter(c.Events)
}

// Options builds tracer options from the configuration.
func (c *Config) Options() ([]trace.Option, error) {
	filter, err := c.Filter()
	if err != nil {
		return nil, err
	}
	return []trace.Option{trace.WithFilter(filter)}, nil
}
