// Copyright (c) 2025 Synchub
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package logging provides the structured logger and secret masking used across
// synchub. Tokens and passwords must go through Mask before they reach a log
// line or an error message shown to the user.
package logging

import (
	"fmt"
	"regexp"
)

var (
	rePassword  = regexp.MustCompile(`(?i)(password=)([^\s;&]+)`)
	reBearer    = regexp.MustCompile(`(?i)(bearer\s+)([A-Za-z0-9._~+/=-]+)`)
	reTokenKV   = regexp.MustCompile(`(?i)((?:access_?token|refresh_?token|token)=)([^\s;&]+)`)
	reTokenJSON = regexp.MustCompile(`(?i)("(?:access_?token|refresh_?token|password)"\s*:\s*")([^"]*)(")`)
)

// Mask replaces sensitive values in the input string with "***".
func Mask(s string) string {
	out := s
	out = rePassword.ReplaceAllString(out, "$1***")
	out = reBearer.ReplaceAllString(out, "$1***")
	out = reTokenKV.ReplaceAllString(out, "$1***")
	out = reTokenJSON.ReplaceAllString(out, "$1***$3")
	return out
}

// Fingerprint returns a short, non-reversible hint of a token for debug logs.
func Fingerprint(token string) string {
	if token == "" {
		return "<none>"
	}
	if len(token) <= 8 {
		return "***"
	}
	return token[:4] + "…" + token[len(token)-4:]
}

// PresentError renders err after what the user was doing, with secrets masked.
func PresentError(action string, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", action, Mask(err.Error()))
}
