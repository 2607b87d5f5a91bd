// Copyright (c) 2025 Synchub
// Licensed under the MIT License. See LICENSE file in the project root for details.

//go:build !darwin

package keychain

import "errors"

var errNoSecurityCommand = errors.New("security command backend requires macOS")

func newSecurityBackend() (keychainBackend, error) {
	return nil, errNoSecurityCommand
}
