// Copyright (c) 2025 Synchub
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"encoding/json"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAPIArgs(t *testing.T) {
	method, path, body, err := parseAPIArgs([]string{"get", "playlists"})
	require.NoError(t, err)
	assert.Equal(t, "GET", method)
	assert.Equal(t, "/playlists", path)
	assert.Nil(t, body)

	method, path, body, err = parseAPIArgs([]string{"POST", "/playlists", `{"name":"Road trip"}`})
	require.NoError(t, err)
	assert.Equal(t, "POST", method)
	assert.Equal(t, "/playlists", path)
	assert.Equal(t, json.RawMessage(`{"name":"Road trip"}`), body)

	_, _, _, err = parseAPIArgs([]string{"trace", "/x"})
	assert.ErrorContains(t, err, "unsupported method")

	_, _, _, err = parseAPIArgs([]string{"post", "/x", "{not json"})
	assert.ErrorContains(t, err, "not valid JSON")
}

func TestCommandTree(t *testing.T) {
	for _, name := range []string{"login", "register", "logout", "whoami", "me", "api", "refresh", "serve", "version", "config"} {
		c, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.NotEqual(t, rootCmd, c, name)
	}
	for _, c := range []*cobra.Command{versionCmd, configCmd, configShowCmd, configSetCmd} {
		_, ok := c.Annotations[skipApp]
		assert.True(t, ok, c.Name())
	}
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "the current account", displayName(""))
	assert.Equal(t, "42", displayName("42"))
}
