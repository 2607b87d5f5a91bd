// Copyright (c) 2025 Synchub
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package guard gates protected views on the session.
//
// The gate has two states. It is open while an access token is present and
// closed otherwise. It is evaluated on every request with no caching, so a
// logout closes it for the very next navigation.
package guard

import (
	"net/http"
	"net/url"
	"strings"
)

// DefaultReturnPath is where a login lands when no usable destination was recorded.
const DefaultReturnPath = "/dashboard"

// FromParam is the query parameter carrying the pending redirect location.
const FromParam = "from"

// SessionReader is the only thing the guard needs from the session.
type SessionReader interface {
	Authenticated() bool
}

// Decision is the outcome of one evaluation.
type Decision struct {
	Open     bool
	Redirect string
}

// Guard evaluates access to protected paths.
type Guard struct {
	reader    SessionReader
	loginPath string
}

// New returns a Guard that sends closed requests to loginPath.
func New(reader SessionReader, loginPath string) *Guard {
	if loginPath == "" {
		loginPath = "/login"
	}
	return &Guard{reader: reader, loginPath: loginPath}
}

// Evaluate decides whether requested may be shown right now.
func (g *Guard) Evaluate(requested string) Decision {
	if g.reader.Authenticated() {
		return Decision{Open: true}
	}
	return Decision{Redirect: g.loginPath + "?" + FromParam + "=" + url.QueryEscape(requested)}
}

// Middleware wraps next so it only runs while the gate is open. A closed gate
// answers 303 See Other so the protected URL is replaced rather than kept in
// history.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		d := g.Evaluate(r.URL.RequestURI())
		if !d.Open {
			http.Redirect(w, r, d.Redirect, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ReturnPath cleans a pending redirect location. Only local absolute paths
// are honored; anything else, including the auth pages themselves, yields
// DefaultReturnPath.
func ReturnPath(raw string) string {
	if raw == "" || !strings.HasPrefix(raw, "/") {
		return DefaultReturnPath
	}
	if strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, `/\`) {
		return DefaultReturnPath
	}
	if strings.ContainsAny(raw, "\r\n\t") {
		return DefaultReturnPath
	}

	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return DefaultReturnPath
	}
	switch strings.TrimRight(u.Path, "/") {
	case "", "/login", "/register", "/logout":
		return DefaultReturnPath
	}
	return raw
}
