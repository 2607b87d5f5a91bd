// Copyright (c) 2025 Synchub
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package session holds the in-memory authentication state.
//
// A Session is seeded once from the durable token store and from then on is
// the only authority on whether the user is signed in. Login and Logout are
// the only two operations that change it; every change is mirrored to the
// store synchronously and announced to subscribers.
package session

import (
	"errors"
	"sync"

	"github.com/pterm/pterm"

	"synchub/cli/internal/dispatch"
	"synchub/cli/internal/keychain"
	"synchub/cli/internal/logging"
)

// ErrInvalidTokens is returned by Login when either token is empty.
var ErrInvalidTokens = errors.New("session: access and refresh tokens must both be non-empty")

// Store is the durable mirror of the session.
type Store interface {
	Read() (keychain.Pair, error)
	Write(accessToken, refreshToken string) error
	Clear() error
}

// Tokens is the credential pair. Empty strings mean absent.
type Tokens struct {
	AccessToken  string
	RefreshToken string
}

// Session is the process-wide authentication state, owned by the application
// entry point and passed to whoever needs it.
type Session struct {
	store  Store
	logger *pterm.Logger

	mu          sync.RWMutex
	tokens      Tokens
	persisted   bool
	subscribers map[int]func(Tokens)
	nextID      int
}

// New seeds a Session from store. A read failure is logged and the session
// starts signed out; New never fails.
func New(store Store, logger *pterm.Logger) *Session {
	if logger == nil {
		logger = logging.Discard()
	}
	s := &Session{
		store:       store,
		logger:      logger,
		persisted:   true,
		subscribers: map[int]func(Tokens){},
	}

	pair, err := store.Read()
	if err != nil {
		logger.Warn("token store unreadable, starting signed out", logger.Args("error", logging.Mask(err.Error())))
		return s
	}
	if !pair.Empty() {
		s.tokens = Tokens{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken}
	}
	return s
}

// Tokens returns a copy of the current pair.
func (s *Session) Tokens() Tokens {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens
}

// AccessToken returns the current access token, or "" when signed out.
func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens.AccessToken
}

// RefreshToken returns the current refresh token, or "" when signed out.
func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens.RefreshToken
}

// Authenticated reports whether an access token is present.
func (s *Session) Authenticated() bool {
	return s.AccessToken() != ""
}

// Persisted reports whether the last Login reached the durable store. When
// false, the session will not survive a restart.
func (s *Session) Persisted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.persisted
}

// Subscribe registers fn to be called after every change with the new pair.
func (s *Session) Subscribe(fn func(Tokens)) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.subscribers[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subscribers, id)
	}
}

// Login stores a freshly issued pair. A durable write failure is logged and
// recorded in Persisted but not returned: the in-memory session stays
// authoritative for the life of the process.
func (s *Session) Login(t Tokens) error {
	if t.AccessToken == "" || t.RefreshToken == "" {
		return ErrInvalidTokens
	}

	s.mu.Lock()
	s.tokens = t
	err := s.store.Write(t.AccessToken, t.RefreshToken)
	s.persisted = err == nil
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("session will not survive restart: token store write failed", s.logger.Args("error", logging.Mask(err.Error())))
	} else {
		s.logger.Debug("session stored", s.logger.Args("access_token", logging.Fingerprint(t.AccessToken)))
	}

	s.notify(t)
	return nil
}

// Logout clears the session and the store. Logging out while already signed
// out does nothing.
func (s *Session) Logout() {
	s.mu.Lock()
	if s.tokens == (Tokens{}) {
		s.mu.Unlock()
		return
	}
	s.tokens = Tokens{}
	s.persisted = true
	err := s.store.Clear()
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("token store clear failed", s.logger.Args("error", logging.Mask(err.Error())))
	} else {
		s.logger.Debug("session cleared")
	}

	s.notify(Tokens{})
}

// HandleAuthorizationFailed is the dispatcher subscriber: a rejected request
// ends the session.
func (s *Session) HandleAuthorizationFailed(ev dispatch.Event) {
	s.logger.Info("server rejected session, signing out", s.logger.Args("method", ev.Method, "url", logging.Mask(ev.URL), "request_id", ev.RequestID))
	s.Logout()
}

func (s *Session) notify(t Tokens) {
	s.mu.RLock()
	fns := make([]func(Tokens), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		fn(t)
	}
}
