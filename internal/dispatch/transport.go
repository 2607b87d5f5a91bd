// Copyright (c) 2025 Synchub
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package dispatch wraps every outbound API request with the session contract.
//
// Before a request leaves, the current access token (if any) is attached as a
// bearer credential. After a response arrives, a 401 is announced to
// subscribers as an authorization-failed Event and the response is handed back
// to the caller untouched. Transport errors pass through and never count as an
// authorization failure.
package dispatch

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pterm/pterm"
	"golang.org/x/sync/singleflight"

	"synchub/cli/internal/logging"
)

// RequestIDHeader carries a per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// TokenSource yields the current access token; empty means unauthenticated.
type TokenSource interface {
	AccessToken() string
}

// Refresher exchanges the stored refresh token for a new access token.
type Refresher interface {
	Refresh(ctx context.Context) (accessToken string, err error)
}

// Event describes a request the server rejected as unauthorized.
type Event struct {
	Method     string
	URL        string
	StatusCode int
	RequestID  string
	At         time.Time
}

// Listener receives authorization-failed events.
type Listener func(Event)

// Option configures a Transport.
type Option func(*Transport)

// WithRefresher enables a single-flight refresh exchange on 401 before the
// failure is announced.
func WithRefresher(r Refresher) Option {
	return func(t *Transport) { t.refresher = r }
}

// WithOrigin limits the bearer credential to requests whose scheme and host
// match apiBaseURL. Requests to any other origin go out without it and their
// 401s are not announced.
func WithOrigin(apiBaseURL string) Option {
	return func(t *Transport) {
		u, err := url.Parse(apiBaseURL)
		if err != nil || u.Host == "" {
			return
		}
		t.origin = &url.URL{Scheme: u.Scheme, Host: u.Host}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *pterm.Logger) Option {
	return func(t *Transport) { t.logger = l }
}

// Transport is an http.RoundTripper implementing the outbound and inbound hooks.
type Transport struct {
	base      http.RoundTripper
	tokens    TokenSource
	refresher Refresher
	logger    *pterm.Logger
	origin    *url.URL

	group singleflight.Group

	mu        sync.RWMutex
	listeners []Listener
}

// New wraps base (http.DefaultTransport when nil).
func New(base http.RoundTripper, tokens TokenSource, opts ...Option) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	t := &Transport{base: base, tokens: tokens, logger: logging.Discard()}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Subscribe registers l for authorization-failed events and returns a func
// that removes it.
func (t *Transport) Subscribe(l Listener) (cancel func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.listeners = append(t.listeners, l)
	idx := len(t.listeners) - 1
	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if idx < len(t.listeners) {
			t.listeners[idx] = nil
		}
	}
}

func (t *Transport) emit(ev Event) {
	t.mu.RLock()
	ls := make([]Listener, 0, len(t.listeners))
	for _, l := range t.listeners {
		if l != nil {
			ls = append(ls, l)
		}
	}
	t.mu.RUnlock()

	for _, l := range ls {
		l(ev)
	}
}

type anonymousKey struct{}

// Anonymous marks ctx so requests made with it carry no bearer credential and
// never count as an authorization failure. Credential exchanges use it: a
// rejected password is not a rejected session.
func Anonymous(ctx context.Context) context.Context {
	return context.WithValue(ctx, anonymousKey{}, true)
}

func isAnonymous(ctx context.Context) bool {
	v, _ := ctx.Value(anonymousKey{}).(bool)
	return v
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if !t.trusted(req) {
		return t.base.RoundTrip(t.prepare(req, ""))
	}

	out := t.prepare(req, t.tokens.AccessToken())
	requestID := out.Header.Get(RequestIDHeader)

	resp, err := t.base.RoundTrip(out)
	if err != nil {
		t.logger.Debug("request failed", t.logger.Args("method", req.Method, "url", logging.Mask(req.URL.String()), "request_id", requestID, "error", err))
		return nil, err
	}
	t.logger.Trace("response", t.logger.Args("method", req.Method, "url", logging.Mask(req.URL.String()), "status", resp.StatusCode, "request_id", requestID))

	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	if t.refresher != nil {
		if retried, ok := t.retryAfterRefresh(req); ok {
			resp.Body.Close()
			return retried, nil
		}
	}

	t.logger.Debug("authorization failed", t.logger.Args("method", req.Method, "url", logging.Mask(req.URL.String()), "request_id", requestID))
	t.emit(Event{
		Method:     req.Method,
		URL:        req.URL.String(),
		StatusCode: resp.StatusCode,
		RequestID:  requestID,
		At:         time.Now(),
	})
	return resp, nil
}

// trusted reports whether req may carry the session's bearer credential.
// A redirect hop that leaves the origin of the first request in its chain is
// never trusted, matching what net/http does for caller-set Authorization.
func (t *Transport) trusted(req *http.Request) bool {
	if isAnonymous(req.Context()) {
		return false
	}
	first := req
	for first.Response != nil && first.Response.Request != nil {
		first = first.Response.Request
	}
	if !sameOrigin(first.URL, req.URL) {
		return false
	}
	return t.origin == nil || sameOrigin(t.origin, req.URL)
}

func sameOrigin(a, b *url.URL) bool {
	return strings.EqualFold(a.Scheme, b.Scheme) && strings.EqualFold(a.Host, b.Host)
}

// prepare clones req and applies the outbound hook.
func (t *Transport) prepare(req *http.Request, token string) *http.Request {
	out := req.Clone(req.Context())
	if token != "" {
		out.Header.Set("Authorization", "Bearer "+token)
	} else {
		out.Header.Del("Authorization")
	}
	if out.Header.Get(RequestIDHeader) == "" {
		out.Header.Set(RequestIDHeader, uuid.NewString())
	}
	return out
}

// retryAfterRefresh performs one shared refresh and replays req once.
// It reports false when the refresh fails, the body cannot be replayed, or
// the replay itself errors or is rejected again.
func (t *Transport) retryAfterRefresh(req *http.Request) (*http.Response, bool) {
	if req.Body != nil && req.Body != http.NoBody && req.GetBody == nil {
		return nil, false
	}

	// Concurrent 401s share one exchange. The key is fixed because at most
	// one session exists per Transport.
	v, err, _ := t.group.Do("refresh", func() (any, error) {
		return t.refresher.Refresh(req.Context())
	})
	if err != nil {
		t.logger.Debug("token refresh failed", t.logger.Args("error", logging.Mask(err.Error())))
		return nil, false
	}
	token, _ := v.(string)
	if token == "" {
		return nil, false
	}

	replay := t.prepare(req, token)
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, false
		}
		replay.Body = body
	}

	resp, err := t.base.RoundTrip(replay)
	if err != nil {
		return nil, false
	}
	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		return nil, false
	}
	return resp, true
}
