// Copyright (c) 2025 Synchub
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"encoding/json"
	"net/http"
	"strings"
)

// Tokens is a credential pair issued by the API.
type Tokens struct {
	AccessToken  string
	RefreshToken string
}

// parseBearerToken extracts token from a value like "Bearer <token>" case-insensitively.
func parseBearerToken(value string) string {
	v := strings.TrimSpace(value)
	if len(v) < 7 || !strings.EqualFold(v[:6], "bearer") || v[6] != ' ' {
		return ""
	}
	return strings.TrimSpace(v[7:])
}

// parseTokens reads a token pair from a response. The body may use
// snake_case or camelCase keys; an Authorization header is accepted as a
// fallback for the access token.
func parseTokens(body []byte, header http.Header) Tokens {
	var raw map[string]any
	_ = json.Unmarshal(body, &raw)

	t := Tokens{
		AccessToken:  extractAccessToken(raw),
		RefreshToken: extractRefreshToken(raw),
	}
	if t.AccessToken == "" && header != nil {
		t.AccessToken = parseBearerToken(header.Get("Authorization"))
	}
	return t
}

// extractAccessToken tries the field names the API has used for the access token.
func extractAccessToken(raw map[string]any) string {
	return firstString(raw, "access_token", "accessToken", "token")
}

// extractRefreshToken tries the field names the API has used for the refresh token.
func extractRefreshToken(raw map[string]any) string {
	return firstString(raw, "refresh_token", "refreshToken")
}

func firstString(raw map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := raw[k].(string); ok {
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		}
	}
	return ""
}
