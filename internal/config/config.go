// Copyright (c) 2025 Synchub
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package config loads and stores CLI configuration in the XDG config dir.
// Only non-secret settings are kept here; tokens go to the token store.
//
// Precedence, lowest first: built-in defaults, config.json, a .env file in the
// working directory, then SYNCHUB_* environment variables.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"synchub/cli/internal/xdg"
)

// Config holds non-sensitive CLI settings.
type Config struct {
	APIBaseURL  string        `json:"api_base_url"`
	LogLevel    string        `json:"log_level"`
	HTTPTimeout Duration      `json:"http_timeout"`
	Store       StoreConfig   `json:"store"`
	Console     ConsoleConfig `json:"console"`
	Auth        AuthConfig    `json:"auth"`
}

// StoreConfig selects the durable token store backend.
type StoreConfig struct {
	// Backend is one of auto, keyring, sqlite, memory.
	Backend string `json:"backend"`
	// Path is the SQLite file; empty means <data dir>/tokens.db.
	Path string `json:"path"`
}

// ConsoleConfig holds web console settings.
type ConsoleConfig struct {
	Addr string `json:"addr"`
}

// AuthConfig holds session behaviour toggles.
type AuthConfig struct {
	// RefreshOnUnauthorized enables the single-flight refresh exchange on 401.
	RefreshOnUnauthorized bool `json:"refresh_on_unauthorized"`
}

// Duration is a time.Duration that marshals as a Go duration string ("30s").
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("duration must be a string like \"30s\": %w", err)
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Default returns built-in defaults.
func Default() Config {
	return Config{
		APIBaseURL:  "http://localhost:8000",
		LogLevel:    "info",
		HTTPTimeout: Duration(30 * time.Second),
		Store:       StoreConfig{Backend: "auto"},
		Console:     ConsoleConfig{Addr: "127.0.0.1:5173"},
	}
}

// path returns the path to the config file.
func path() (string, error) {
	dir, err := xdg.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads configuration; missing file returns defaults with env overrides applied.
func Load() (Config, error) {
	p, err := path()
	if err != nil {
		return Default(), err
	}
	return LoadFile(p)
}

// LoadFile reads configuration from p. A missing file is not an error.
func LoadFile(p string) (Config, error) {
	c, err := readFile(p)
	if err != nil {
		return c, err
	}

	// .env is optional; a missing file is the common case.
	_ = godotenv.Load()

	if err := applyEnv(&c); err != nil {
		return c, err
	}
	return c, c.Validate()
}

// readFile returns defaults overlaid with the file at p, without env overrides.
func readFile(p string) (Config, error) {
	c := Default()
	data, err := os.ReadFile(p)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return c, err
	default:
		if err := json.Unmarshal(data, &c); err != nil {
			return c, fmt.Errorf("parse %s: %w", p, err)
		}
	}
	return c, nil
}

func applyEnv(c *Config) error {
	if v := os.Getenv("SYNCHUB_API_BASE_URL"); v != "" {
		c.APIBaseURL = v
	}
	if v := os.Getenv("SYNCHUB_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("SYNCHUB_STORE_BACKEND"); v != "" {
		c.Store.Backend = v
	}
	if v := os.Getenv("SYNCHUB_STORE_PATH"); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv("SYNCHUB_CONSOLE_ADDR"); v != "" {
		c.Console.Addr = v
	}
	if v := os.Getenv("SYNCHUB_REFRESH_ON_UNAUTHORIZED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("SYNCHUB_REFRESH_ON_UNAUTHORIZED: %w", err)
		}
		c.Auth.RefreshOnUnauthorized = b
	}
	return nil
}

// Validate checks enumerated fields.
func (c Config) Validate() error {
	switch c.Store.Backend {
	case "auto", "keyring", "sqlite", "memory":
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	switch strings.ToLower(c.LogLevel) {
	case "trace", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	if c.APIBaseURL == "" {
		return errors.New("api_base_url must not be empty")
	}
	if c.HTTPTimeout < 0 {
		return errors.New("http_timeout must not be negative")
	}
	return nil
}

// Keys lists the settings accepted by Set, in display order.
var Keys = []string{
	"api_base_url",
	"log_level",
	"http_timeout",
	"store.backend",
	"store.path",
	"console.addr",
	"auth.refresh_on_unauthorized",
}

// Set assigns one setting by its JSON key path.
func (c *Config) Set(key, value string) error {
	switch key {
	case "api_base_url":
		c.APIBaseURL = strings.TrimRight(value, "/")
	case "log_level":
		c.LogLevel = value
	case "http_timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("http_timeout: %w", err)
		}
		c.HTTPTimeout = Duration(d)
	case "store.backend":
		c.Store.Backend = value
	case "store.path":
		c.Store.Path = value
	case "console.addr":
		c.Console.Addr = value
	case "auth.refresh_on_unauthorized":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("auth.refresh_on_unauthorized: %w", err)
		}
		c.Auth.RefreshOnUnauthorized = b
	default:
		return fmt.Errorf("unknown setting %q (known: %s)", key, strings.Join(Keys, ", "))
	}
	return nil
}

// Update changes one setting in the config file and saves it. Environment
// overrides are not written back.
func Update(key, value string) (Config, error) {
	p, err := path()
	if err != nil {
		return Config{}, err
	}
	c, err := readFile(p)
	if err != nil {
		return c, err
	}
	if err := c.Set(key, value); err != nil {
		return c, err
	}
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, Save(c)
}

// Save writes configuration with 0600 permissions.
func Save(c Config) error {
	p, err := path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
		return err
	}
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(p, b, 0o600)
}
