// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading for sonder.
//
// Settings come from ~/.sonder/config.toml with environment variable
// overrides applied last. Missing files are not an error; the built-in
// defaults stand.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/sonderhq/sonder-tui/internal/model"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete sonder configuration.
type Config struct {
	// DefaultModel is the display name of the model selected at
	// startup (see the model rotation). Unknown names fall back to the
	// first rotation entry.
	DefaultModel string `toml:"default_model"`

	OpenRouter OpenRouterConfig `toml:"openrouter"`
	Search     SearchConfig     `toml:"search"`
	Log        LogConfig        `toml:"log"`
}

// OpenRouterConfig holds the chat backend settings.
type OpenRouterConfig struct {
	// APIKey is the OpenRouter credential. Usually supplied via the
	// OPENROUTER_API_KEY environment variable rather than the file.
	APIKey string `toml:"api_key"`

	// BaseURL overrides the API endpoint; empty means the default.
	BaseURL string `toml:"base_url"`
}

// SearchConfig holds the web-search tool settings.
type SearchConfig struct {
	// FirecrawlKey is the Firecrawl credential for search_online.
	FirecrawlKey string `toml:"firecrawl_key"`
}

// LogConfig controls the debug log file.
type LogConfig struct {
	// Enabled turns file logging on. The TUI owns the terminal, so
	// logs go to a file or nowhere.
	Enabled bool `toml:"enabled"`

	// Path overrides the log file location (default ~/.sonder/debug.log).
	Path string `toml:"path"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		DefaultModel: model.Models[0].Name,
	}
}

// =============================================================================
// PATHS
// =============================================================================

// ConfigDir returns the sonder configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".sonder"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// LogPath resolves the debug log location for cfg.
func (c *Config) LogPath() (string, error) {
	if c.Log.Path != "" {
		return c.Log.Path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "debug.log"), nil
}

// EnsureConfigDir creates the config directory if needed.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// ensureSecurePermissions tightens the config file to 0600; it carries
// API keys.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.Mode().Perm() != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions: %w", err)
		}
	}
	return nil
}

// =============================================================================
// LOAD
// =============================================================================

// Load reads the config file when present, applies environment
// overrides, and validates. A missing file yields the defaults.
func Load() (*Config, error) {
	cfg := Default()

	path, err := ConfigPath()
	if err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			if err := LoadTOML(cfg, path); err != nil {
				return nil, err
			}
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.normalize()
	return cfg, nil
}

// LoadTOML loads configuration from a TOML file into cfg.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode config file: %w", err)
	}
	return nil
}

// ApplyEnvOverrides applies environment variables over the loaded
// values. The environment always wins.
func (c *Config) ApplyEnvOverrides() {
	if key := os.Getenv("OPENROUTER_API_KEY"); key != "" {
		c.OpenRouter.APIKey = key
	}
	if key := os.Getenv("FIRECRAWL_API_KEY"); key != "" {
		c.Search.FirecrawlKey = key
	}
	if name := os.Getenv("SONDER_MODEL"); name != "" {
		c.DefaultModel = name
	}
	if path := os.Getenv("SONDER_LOG"); path != "" {
		c.Log.Enabled = true
		c.Log.Path = path
	}
}

// normalize resolves the default model name against the rotation.
func (c *Config) normalize() {
	c.DefaultModel = model.ModelByName(c.DefaultModel).Name
}

// =============================================================================
// SAVE
// =============================================================================

// Save writes cfg to the config file with owner-only permissions.
func Save(cfg *Config) error {
	if err := EnsureConfigDir(); err != nil {
		return err
	}
	path, err := ConfigPath()
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}
