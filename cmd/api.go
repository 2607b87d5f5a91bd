// Copyright (c) 2025 Synchub
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// apiCmd sends an authorized request to the Synchub API and prints the body.
var apiCmd = &cobra.Command{
	Use:   "api <get|post|put|patch|delete> <path> [json-body]",
	Short: "Call the Synchub API with the current session",
	Long: `The api command sends one request with the stored access token attached and
prints the response body. If the server rejects the token, the session ends and the
saved tokens are removed.

Examples:
  synchub api get /playlists
  synchub api post /playlists '{"name":"Road trip"}'`,
	Args: cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		method, path, body, err := parseAPIArgs(args)
		if err != nil {
			return err
		}
		if !requireSession() {
			return nil
		}

		resp, err := application.Backend.Do(cmd.Context(), method, path, body)
		if resp != nil && len(resp.Body) > 0 {
			writeBody(resp.Body)
		}
		if err != nil {
			return presentError(err, fmt.Sprintf("calling %s %s", method, path))
		}
		return nil
	},
}

// parseAPIArgs validates the method, path and optional JSON body.
func parseAPIArgs(args []string) (string, string, any, error) {
	method := strings.ToUpper(args[0])
	switch method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
	default:
		return "", "", nil, fmt.Errorf("unsupported method %q", args[0])
	}
	path := args[1]
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(args) < 3 {
		return method, path, nil, nil
	}
	raw := json.RawMessage(args[2])
	if !json.Valid(raw) {
		return "", "", nil, fmt.Errorf("request body is not valid JSON")
	}
	return method, path, raw, nil
}

func writeBody(b []byte) {
	var out bytes.Buffer
	if err := json.Indent(&out, b, "", "  "); err != nil {
		os.Stdout.Write(b)
		fmt.Println()
		return
	}
	out.WriteByte('\n')
	out.WriteTo(os.Stdout)
}

func init() {
	rootCmd.AddCommand(apiCmd)
}
