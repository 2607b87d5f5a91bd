// Copyright (c) 2025 Synchub
// Licensed under the MIT License. See LICENSE file in the project root for details.

package keychain

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "synchub/cli/internal/errors"
)

// flakyBackend is an in-memory backend that can be told to fail specific operations.
type flakyBackend struct {
	items     map[string]string
	failSet   map[string]bool
	failGet   bool
	failClear bool
}

func newFlaky() *flakyBackend {
	return &flakyBackend{items: map[string]string{}, failSet: map[string]bool{}}
}

func (f *flakyBackend) Set(key, value string) error {
	if f.failSet[key] {
		return errors.New("disk full")
	}
	f.items[key] = value
	return nil
}

func (f *flakyBackend) Get(key string) (string, error) {
	if f.failGet {
		return "", errors.New("keychain locked")
	}
	v, ok := f.items[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (f *flakyBackend) Delete(key string) error {
	if f.failClear {
		return errors.New("keychain locked")
	}
	if _, ok := f.items[key]; !ok {
		return ErrNotFound
	}
	delete(f.items, key)
	return nil
}

func TestManager(t *testing.T) {
	t.Run("Read Before Write Is Empty", func(t *testing.T) {
		m := NewMemory()
		p, err := m.Read()
		require.NoError(t, err)
		assert.True(t, p.Empty())
	})

	t.Run("Write Then Read", func(t *testing.T) {
		m := NewMemory()
		require.NoError(t, m.Write("access-1", "refresh-1"))

		p, err := m.Read()
		require.NoError(t, err)
		assert.Equal(t, Pair{AccessToken: "access-1", RefreshToken: "refresh-1"}, p)
	})

	t.Run("Last Writer Wins", func(t *testing.T) {
		m := NewMemory()
		require.NoError(t, m.Write("a1", "r1"))
		require.NoError(t, m.Write("a2", "r2"))

		p, err := m.Read()
		require.NoError(t, err)
		assert.Equal(t, Pair{AccessToken: "a2", RefreshToken: "r2"}, p)
	})

	t.Run("Clear Removes Both And Is Idempotent", func(t *testing.T) {
		m := NewMemory()
		require.NoError(t, m.Write("a", "r"))
		require.NoError(t, m.Clear())
		require.NoError(t, m.Clear())

		p, err := m.Read()
		require.NoError(t, err)
		assert.True(t, p.Empty())
	})

	t.Run("Half Pair Reads As Absent", func(t *testing.T) {
		b := newFlaky()
		b.items[KeyAccessToken] = "orphan"
		m := newManager(b, "flaky")

		p, err := m.Read()
		require.NoError(t, err)
		assert.True(t, p.Empty())

		b.items = map[string]string{KeyRefreshToken: "orphan"}
		p, err = m.Read()
		require.NoError(t, err)
		assert.True(t, p.Empty())
	})

	t.Run("Failed Second Write Rolls Back First", func(t *testing.T) {
		b := newFlaky()
		b.failSet[KeyRefreshToken] = true
		m := newManager(b, "flaky")

		err := m.Write("a", "r")
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.StorageFailure))
		assert.NotContains(t, b.items, KeyAccessToken)
	})

	t.Run("Backend Read Failure Is Reported", func(t *testing.T) {
		b := newFlaky()
		b.failGet = true
		m := newManager(b, "flaky")

		_, err := m.Read()
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.StorageFailure))
	})

	t.Run("Clear Failure Is Reported", func(t *testing.T) {
		b := newFlaky()
		b.failClear = true
		m := newManager(b, "flaky")

		err := m.Clear()
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.StorageFailure))
	})
}

func TestSQLiteBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "tokens.db")

	m, err := Open(Options{Backend: BackendSQLite, Path: path})
	require.NoError(t, err)
	assert.Equal(t, BackendSQLite, m.Backend())
	require.NoError(t, m.Write("access-1", "refresh-1"))
	require.NoError(t, m.Close())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	// A fresh process sees what the previous one wrote.
	reopened, err := Open(Options{Backend: BackendSQLite, Path: path})
	require.NoError(t, err)
	defer reopened.Close()

	p, err := reopened.Read()
	require.NoError(t, err)
	assert.Equal(t, Pair{AccessToken: "access-1", RefreshToken: "refresh-1"}, p)

	require.NoError(t, reopened.Clear())
	require.NoError(t, reopened.Clear())
	p, err = reopened.Read()
	require.NoError(t, err)
	assert.True(t, p.Empty())
}

func TestOpen(t *testing.T) {
	m, err := Open(Options{Backend: BackendMemory})
	require.NoError(t, err)
	assert.Equal(t, BackendMemory, m.Backend())

	_, err = Open(Options{Backend: "floppy"})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.InvalidInput))
}
