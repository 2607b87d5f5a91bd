// Copyright (c) 2025 Synchub
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package app owns the session context of one Synchub process.
//
// New builds every collaborator explicitly and wires the dispatcher's
// authorization-failed event to the session's logout. Nothing here is a
// package-level singleton: the entry point creates one App and passes it down.
package app

import (
	"github.com/pterm/pterm"

	"synchub/cli/internal/auth"
	"synchub/cli/internal/backend"
	"synchub/cli/internal/config"
	"synchub/cli/internal/console"
	"synchub/cli/internal/dispatch"
	"synchub/cli/internal/keychain"
	"synchub/cli/internal/logging"
	"synchub/cli/internal/session"
)

// App is the explicitly constructed session context.
type App struct {
	Config    config.Config
	Logger    *pterm.Logger
	Store     *keychain.Manager
	Session   *session.Session
	Transport *dispatch.Transport
	Backend   *backend.Client
	Auth      *auth.Service
	Refresher *auth.Refresher

	unsubscribe func()
}

// Option configures New.
type Option func(*options)

type options struct {
	version string
}

// WithVersion sets the version reported in the User-Agent header.
func WithVersion(v string) Option { return func(o *options) { o.version = v } }

// New wires the application. A token store that cannot be opened is logged
// and replaced by an in-memory one, so New never fails on storage.
func New(cfg config.Config, logger *pterm.Logger, opts ...Option) *App {
	if logger == nil {
		logger = logging.Discard()
	}
	o := options{version: "dev"}
	for _, opt := range opts {
		opt(&o)
	}

	store, err := keychain.Open(keychain.Options{Backend: cfg.Store.Backend, Path: cfg.Store.Path})
	if err != nil {
		logger.Warn("token store unavailable, session will not survive restart", logger.Args("backend", cfg.Store.Backend, "error", logging.Mask(err.Error())))
		store = keychain.NewMemory()
	}
	logger.Debug("token store opened", logger.Args("backend", store.Backend()))

	a := &App{Config: cfg, Logger: logger, Store: store}
	a.Session = session.New(store, logger)

	// The transport needs the refresher and the refresher needs the backend
	// client, which needs the transport; the late-bound refresher breaks the cycle.
	lazy := &lateRefresher{}
	var topts []dispatch.Option
	topts = append(topts, dispatch.WithLogger(logger), dispatch.WithOrigin(cfg.APIBaseURL))
	if cfg.Auth.RefreshOnUnauthorized {
		topts = append(topts, dispatch.WithRefresher(lazy))
	}
	a.Transport = dispatch.New(nil, a.Session, topts...)
	a.unsubscribe = a.Transport.Subscribe(a.Session.HandleAuthorizationFailed)

	a.Backend = backend.New(cfg.APIBaseURL, a.Transport, cfg.HTTPTimeout.Std(),
		backend.WithLogger(logger),
		backend.WithUserAgent("synchub-cli/"+o.version),
	)
	a.Auth = auth.NewService(a.Backend, a.Session, logger)
	a.Refresher = auth.NewRefresher(a.Backend, a.Session, logger)
	lazy.r = a.Refresher

	return a
}

// Console returns a web console bound to this App's session.
func (a *App) Console() *console.Server {
	return console.New(a.Auth, a.Session, a.Logger)
}

// Close detaches the session from the dispatcher and closes the token store.
func (a *App) Close() error {
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
	return a.Store.Close()
}
