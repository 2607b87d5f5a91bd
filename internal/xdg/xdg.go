// Copyright (c) 2025 Synchub
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package xdg provides helpers to resolve XDG Base Directory paths for synchub.
// Configuration lives under the config dir; the SQLite token store lives under
// the data dir so it is not swept up with disposable state.
package xdg

import (
	"os"
	"path/filepath"
)

const appDir = "synchub"

// ConfigDir returns the XDG config directory for synchub.
// The directory is created with private permissions (0700) if missing.
// It falls back to ~/.config/synchub when XDG_CONFIG_HOME is unset.
func ConfigDir() (string, error) {
	return resolve("XDG_CONFIG_HOME", ".config")
}

// DataDir returns the XDG data directory for synchub.
// It falls back to ~/.local/share/synchub when XDG_DATA_HOME is unset.
func DataDir() (string, error) {
	return resolve("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

func resolve(env, fallback string) (string, error) {
	base := os.Getenv(env)
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, fallback)
	}
	dir := filepath.Join(base, appDir)
	if err := os.MkdirAll(dir, 0o700); err != nil { // private dir
		return "", err
	}
	return dir, nil
}
