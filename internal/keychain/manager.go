// Copyright (c) 2025 Synchub
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package keychain is the durable token store for synchub.
//
// It holds at most one access token and one refresh token, always written and
// cleared as a pair. Three backends are available: the OS credential store
// (macOS Keychain, Windows Credential Manager, Secret Service and friends via
// 99designs/keyring), a private SQLite file for headless hosts, and an
// in-memory keyring for tests.
package keychain

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	apperrors "synchub/cli/internal/errors"
)

// ServiceName identifies our keychain/credential store namespace.
const ServiceName = "synchub"

// Keys used for storing secrets.
const (
	KeyAccessToken  = "auth_access_token"
	KeyRefreshToken = "auth_refresh_token"
)

// Backend names accepted by Open.
const (
	BackendAuto    = "auto"
	BackendKeyring = "keyring"
	BackendSQLite  = "sqlite"
	BackendMemory  = "memory"
)

// ErrNotFound is returned by backends when a key has never been written or was removed.
var ErrNotFound = errors.New("keychain: key not found")

// keychainBackend defines the primitive operations every storage backend provides.
type keychainBackend interface {
	Set(key, value string) error
	Get(key string) (string, error)
	Delete(key string) error
}

// pairWriter is implemented by backends that can store both tokens atomically.
type pairWriter interface {
	SetPair(accessKey, access, refreshKey, refresh string) error
}

// Pair is the stored token pair. Empty strings mean absent.
type Pair struct {
	AccessToken  string
	RefreshToken string
}

// Empty reports whether the pair holds no credentials.
func (p Pair) Empty() bool { return p.AccessToken == "" && p.RefreshToken == "" }

// Options configures Open.
type Options struct {
	Backend string
	// Path is the SQLite database file used by the sqlite backend.
	Path string
}

// Manager provides thread-safe pair operations over a single backend.
type Manager struct {
	mu      sync.RWMutex
	backend keychainBackend
	name    string
}

// Open selects and opens a backend. "auto" prefers the OS keyring on macOS and
// Windows and falls back to SQLite everywhere else, including when the
// keyring cannot be opened.
func Open(opts Options) (*Manager, error) {
	switch opts.Backend {
	case BackendMemory:
		return NewMemory(), nil
	case BackendSQLite:
		return openSQLiteManager(opts.Path)
	case BackendKeyring:
		b, err := openNativeBackend()
		if err != nil {
			return nil, apperrors.Wrap(apperrors.StorageFailure, "open keyring", err)
		}
		return newManager(b, BackendKeyring), nil
	case BackendAuto, "":
		if runtime.GOOS == "darwin" || runtime.GOOS == "windows" {
			if b, err := openNativeBackend(); err == nil {
				return newManager(b, BackendKeyring), nil
			}
		}
		return openSQLiteManager(opts.Path)
	default:
		return nil, apperrors.New(apperrors.InvalidInput, fmt.Sprintf("unknown token store backend %q", opts.Backend))
	}
}

// NewMemory returns a Manager backed by an in-process keyring.
func NewMemory() *Manager {
	return newManager(newMemoryBackend(), BackendMemory)
}

func newManager(b keychainBackend, name string) *Manager {
	return &Manager{backend: b, name: name}
}

func openSQLiteManager(path string) (*Manager, error) {
	b, err := openSQLiteBackend(path)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.StorageFailure, "open sqlite token store", err)
	}
	return newManager(b, BackendSQLite), nil
}

// openNativeBackend tries the macOS security command first, then the keyring library.
func openNativeBackend() (keychainBackend, error) {
	if b, err := newSecurityBackend(); err == nil {
		return b, nil
	}
	return openRingBackend()
}

// Backend returns the name of the active backend.
func (m *Manager) Backend() string { return m.name }

// Write durably stores both tokens as a pair.
// When the backend cannot write atomically and the second write fails, the
// first value is removed again so no half pair is left behind on purpose.
func (m *Manager) Write(accessToken, refreshToken string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if pw, ok := m.backend.(pairWriter); ok {
		if err := pw.SetPair(KeyAccessToken, accessToken, KeyRefreshToken, refreshToken); err != nil {
			return apperrors.Wrap(apperrors.StorageFailure, "write token pair", err)
		}
		return nil
	}

	if err := m.backend.Set(KeyAccessToken, accessToken); err != nil {
		return apperrors.Wrap(apperrors.StorageFailure, "write access token", err)
	}
	if err := m.backend.Set(KeyRefreshToken, refreshToken); err != nil {
		_ = m.backend.Delete(KeyAccessToken)
		return apperrors.Wrap(apperrors.StorageFailure, "write refresh token", err)
	}
	return nil
}

// Read returns the last written pair. If either key is missing both are
// reported absent with a nil error; any other backend failure is returned.
func (m *Manager) Read() (Pair, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	access, err := m.backend.Get(KeyAccessToken)
	if errors.Is(err, ErrNotFound) {
		return Pair{}, nil
	}
	if err != nil {
		return Pair{}, apperrors.Wrap(apperrors.StorageFailure, "read access token", err)
	}

	refresh, err := m.backend.Get(KeyRefreshToken)
	if errors.Is(err, ErrNotFound) {
		return Pair{}, nil
	}
	if err != nil {
		return Pair{}, apperrors.Wrap(apperrors.StorageFailure, "read refresh token", err)
	}

	if access == "" || refresh == "" {
		return Pair{}, nil
	}
	return Pair{AccessToken: access, RefreshToken: refresh}, nil
}

// Clear removes both tokens. Keys that are already gone are not an error.
func (m *Manager) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for _, k := range []string{KeyAccessToken, KeyRefreshToken} {
		if err := m.backend.Delete(k); err != nil && !errors.Is(err, ErrNotFound) {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return apperrors.Wrap(apperrors.StorageFailure, "clear tokens", err)
	}
	return nil
}

// Close releases backend resources where the backend holds any.
func (m *Manager) Close() error {
	if c, ok := m.backend.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
