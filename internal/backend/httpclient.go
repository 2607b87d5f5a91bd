// Copyright (c) 2025 Synchub
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package backend is the REST client for the Synchub API.
//
// Every request goes through the transport handed to New, which in practice is
// the session dispatcher: the client itself never touches tokens.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pterm/pterm"

	apperrors "synchub/cli/internal/errors"
	"synchub/cli/internal/logging"
)

// Endpoints holds the URL paths of the auth API.
type Endpoints struct {
	Login    string
	Register string
	Refresh  string
}

// DefaultEndpoints matches the Synchub API.
var DefaultEndpoints = Endpoints{
	Login:    "/auth/login",
	Register: "/auth/register",
	Refresh:  "/auth/refresh",
}

// maxBodyBytes caps how much of a response body is buffered.
const maxBodyBytes = 4 << 20

// Client implements the API client over REST endpoints.
type Client struct {
	baseURL   string
	endpoints Endpoints
	client    *http.Client
	logger    *pterm.Logger
	userAgent string
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the request logger.
func WithLogger(l *pterm.Logger) Option { return func(c *Client) { c.logger = l } }

// WithUserAgent sets the User-Agent header sent on every request.
func WithUserAgent(ua string) Option { return func(c *Client) { c.userAgent = ua } }

// New creates a client for baseURL. transport is normally a *dispatch.Transport;
// nil means http.DefaultTransport. A zero timeout disables the client timeout.
func New(baseURL string, transport http.RoundTripper, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		endpoints: DefaultEndpoints,
		client:    &http.Client{Transport: transport, Timeout: timeout},
		logger:    logging.Discard(),
		userAgent: "synchub-cli",
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// BaseURL returns the API root without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// Response is a fully buffered API response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// JSON decodes the body into v.
func (r *Response) JSON(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Do sends method path with body encoded as JSON (nil for none).
//
// A request that never got a response returns a Transport error. A status of
// 400 or above returns the buffered response together with an *APIError whose
// kind follows the status.
func (c *Client) Do(ctx context.Context, method, path string, body any) (*Response, error) {
	var payload io.Reader
	if body != nil {
		raw, ok := body.(json.RawMessage)
		if !ok {
			b, err := json.Marshal(body)
			if err != nil {
				return nil, apperrors.Wrap(apperrors.InvalidInput, "encode request body", err)
			}
			raw = b
		}
		payload = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), payload)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.InvalidInput, "build request", err)
	}
	c.setStandardHeaders(req)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Debug("api request failed", c.logger.Args("method", method, "path", path, "error", logging.Mask(err.Error())))
		return nil, apperrors.Wrap(apperrors.Transport, fmt.Sprintf("%s %s", method, path), err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Transport, "read response body", err)
	}
	out := &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: b}
	c.logger.Debug("api request", c.logger.Args("method", method, "path", path, "status", resp.StatusCode, "elapsed", time.Since(start).Round(time.Millisecond)))

	if resp.StatusCode >= http.StatusBadRequest {
		return out, newAPIError(resp.StatusCode, b)
	}
	return out, nil
}

// Post is Do with POST.
func (c *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, http.MethodPost, path, body)
}

// url joins path onto the API root. Paths are always relative to it, so the
// session credential never travels to another host through Do.
func (c *Client) url(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

// setStandardHeaders sets headers common to every API call.
func (c *Client) setStandardHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
}
