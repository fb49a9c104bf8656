// Copyright 2026 The Termplex Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for Termplex tools.
//
// Configuration is loaded from a single YAML file specified by:
//   - TERMPLEX_CONFIG environment variable, or
//   - --config flag passed to the command
//
// There are no search paths or automatic discovery. When neither is
// set, built-in defaults apply — capture must work with zero setup, so
// a missing config file is not an error, only an unreadable one is.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the master configuration for Termplex tools.
type Config struct {
	// Shell is the command launched when the capture CLI is given no
	// command argv. Default: $SHELL from the environment, falling back
	// to /bin/zsh. Use ResolveShell to apply that chain.
	Shell string `yaml:"shell"`

	// Term is the TERM value exported to the captured child.
	// Default: xterm-256color
	Term string `yaml:"term"`

	// ReadChunk is the per-wake read size in bytes for the input and
	// output pumps. Bounds how much data a single wake can move, which
	// bounds relay latency. Default: 1024
	ReadChunk int `yaml:"read_chunk"`

	// Replay configures playback defaults.
	Replay ReplayConfig `yaml:"replay"`

	// Compact configures session archiving.
	Compact CompactConfig `yaml:"compact"`
}

// ReplayConfig configures playback defaults for the replay command.
type ReplayConfig struct {
	// Speed is the playback rate multiplier. 2.0 plays twice as fast.
	// Default: 1.0
	Speed float64 `yaml:"speed"`

	// IdleCap is the longest gap reproduced between writes, as a Go
	// duration string. Long idle stretches in the recording are clamped
	// to this on playback. Empty or "0" disables clamping.
	// Default: 2s
	IdleCap string `yaml:"idle_cap"`
}

// CompactConfig configures session archiving.
type CompactConfig struct {
	// Method is the compression codec for compacted raw logs.
	// One of "zstd" or "lz4". Default: zstd
	Method string `yaml:"method"`
}

// Default returns the default configuration. These defaults are the
// complete zero-setup behavior of the suite; a config file only
// overrides them.
func Default() *Config {
	return &Config{
		Shell:     "",
		Term:      "xterm-256color",
		ReadChunk: 1024,
		Replay: ReplayConfig{
			Speed:   1.0,
			IdleCap: "2s",
		},
		Compact: CompactConfig{
			Method: "zstd",
		},
	}
}

// Load loads configuration from the TERMPLEX_CONFIG environment
// variable. When the variable is unset, the defaults are returned
// without touching the filesystem.
func Load() (*Config, error) {
	configPath := os.Getenv("TERMPLEX_CONFIG")
	if configPath == "" {
		return Default(), nil
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path, merging over
// the defaults. The config file is the single source of truth: no
// environment variable overrides individual values.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Term == "" {
		errs = append(errs, fmt.Errorf("term is required"))
	}

	if c.ReadChunk <= 0 {
		errs = append(errs, fmt.Errorf("read_chunk must be positive, got %d", c.ReadChunk))
	}

	if c.Replay.Speed <= 0 {
		errs = append(errs, fmt.Errorf("replay.speed must be positive, got %g", c.Replay.Speed))
	}

	if _, err := c.Replay.IdleCapDuration(); err != nil {
		errs = append(errs, fmt.Errorf("replay.idle_cap: %w", err))
	}

	if c.Compact.Method != "zstd" && c.Compact.Method != "lz4" {
		errs = append(errs, fmt.Errorf("compact.method must be one of: zstd, lz4; got %q", c.Compact.Method))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// ResolveShell returns the command to run when no argv is given:
// the configured shell, the SHELL environment variable, or /bin/zsh,
// in that order.
func (c *Config) ResolveShell() string {
	if c.Shell != "" {
		return c.Shell
	}
	if shell := os.Getenv("SHELL"); shell != "" {
		return shell
	}
	return "/bin/zsh"
}

// IdleCapDuration parses the idle cap. An empty string means no cap
// and returns zero. Negative durations are an error.
func (r *ReplayConfig) IdleCapDuration() (time.Duration, error) {
	if r.IdleCap == "" || r.IdleCap == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(r.IdleCap)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", r.IdleCap, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("duration %q is negative", r.IdleCap)
	}
	return d, nil
}
