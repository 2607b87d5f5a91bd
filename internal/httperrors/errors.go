// Copyright (c) 2025 Synchub
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package httperrors turns API and network failures into user-facing messages.
package httperrors

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"syscall"

	"github.com/pterm/pterm"

	"synchub/cli/internal/backend"
	apperrors "synchub/cli/internal/errors"
)

// Category is the user-facing class of a failure.
type Category string

const (
	Timeout           Category = "timeout"
	DNS               Category = "dns"
	ConnectionRefused Category = "connection_refused"
	TLS               Category = "tls"
	Server            Category = "server"
	SessionExpired    Category = "session_expired"
	Rejected          Category = "rejected"
	Other             Category = "other"
)

// Classify assigns err to a Category.
func Classify(err error) Category {
	switch {
	case err == nil:
		return ""
	case apperrors.KindOf(err) == apperrors.Unauthorized:
		return SessionExpired
	case isTimeout(err):
		return Timeout
	case isDNS(err):
		return DNS
	case isConnectionRefused(err):
		return ConnectionRefused
	case isTLS(err):
		return TLS
	case backend.StatusCode(err) >= 500:
		return Server
	case apperrors.Is(err, apperrors.CredentialRejected), apperrors.Is(err, apperrors.DuplicateAccount), apperrors.Is(err, apperrors.InvalidInput):
		return Rejected
	default:
		return Other
	}
}

// Explain returns a headline and hints for err, which happened while doing action.
func Explain(err error, action, host string) (string, []string) {
	switch Classify(err) {
	case SessionExpired:
		return "Session expired while " + action, []string{"Run `synchub login` to sign in again."}
	case Timeout:
		return "Connection timeout while " + action, []string{
			"The server took too long to respond.",
			"Check your connection and try again in a few moments.",
		}
	case DNS:
		return "Cannot resolve server address while " + action, []string{
			fmt.Sprintf("Unable to look up %s.", host),
			"Check your internet connection and DNS settings.",
		}
	case ConnectionRefused:
		return "Connection refused while " + action, []string{
			fmt.Sprintf("Nothing is accepting connections at %s.", host),
			"Check that the API is running and api_base_url is correct.",
		}
	case TLS:
		return "Secure connection failed while " + action, []string{
			"The TLS handshake with the server failed.",
			"Check your system clock and any HTTPS proxy settings.",
		}
	case Server:
		return "Server error while " + action, []string{"The Synchub API reported an internal error. Try again later."}
	case Rejected:
		return userMessage(err), nil
	default:
		return fmt.Sprintf("Failed %s", action), []string{userMessage(err)}
	}
}

// Present prints err with pterm and returns it wrapped for the caller.
func Present(err error, action, baseURL string) error {
	if err == nil {
		return nil
	}
	headline, hints := Explain(err, action, HostOf(baseURL))
	pterm.Error.Println(headline)
	for _, h := range hints {
		pterm.Println("  • " + h)
	}
	pterm.Debug.Printf("Technical details: %v\n", err)
	return fmt.Errorf("%s: %w", action, err)
}

// HostOf extracts the host from a URL for error messages.
func HostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "the server"
	}
	return u.Host
}

func userMessage(err error) string {
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	var e *apperrors.E
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

func isTimeout(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "timeout") || strings.Contains(s, "deadline exceeded")
}

func isDNS(err error) bool {
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}

func isConnectionRefused(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "connection refused")
}

func isTLS(err error) bool {
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "tls:") || strings.Contains(s, "x509:") || strings.Contains(s, "certificate")
}
