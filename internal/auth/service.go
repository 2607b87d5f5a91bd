// Copyright (c) 2025 Synchub
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package auth provides the credential flows of the Synchub CLI.
// It exchanges an email and password for a token pair, hands the pair to the
// session, and reads display information back out of the access token.
package auth

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pterm/pterm"

	"synchub/cli/internal/backend"
	apperrors "synchub/cli/internal/errors"
	"synchub/cli/internal/logging"
	"synchub/cli/internal/session"
)

// API is the part of the backend client the auth flows need.
type API interface {
	Login(ctx context.Context, email, password string) (backend.Tokens, error)
	Register(ctx context.Context, email, password string) error
	Refresh(ctx context.Context, refreshToken string) (backend.Tokens, error)
}

// Service centralizes authentication-related operations against the backend
// and the session.
type Service struct {
	be     API
	sess   *session.Session
	logger *pterm.Logger
}

// NewService constructs an auth Service.
func NewService(be API, sess *session.Session, logger *pterm.Logger) *Service {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Service{be: be, sess: sess, logger: logger}
}

// Login validates the input, exchanges it for a token pair and stores the
// pair in the session. On any failure the session is left untouched.
func (s *Service) Login(ctx context.Context, email, password string) error {
	if err := ValidateCredentials(email, password); err != nil {
		return err
	}

	tokens, err := s.be.Login(ctx, email, password)
	if err != nil {
		s.logger.Debug("login rejected", s.logger.Args("email", email, "kind", apperrors.KindOf(err)))
		return err
	}
	if err := s.sess.Login(session.Tokens{AccessToken: tokens.AccessToken, RefreshToken: tokens.RefreshToken}); err != nil {
		return apperrors.Wrap(apperrors.CredentialRejected, "login response was incomplete", err)
	}

	s.logger.Info("signed in", s.logger.Args("email", email, "access_token", logging.Fingerprint(tokens.AccessToken)))
	return nil
}

// Register creates the account and then signs in with the same credentials.
func (s *Service) Register(ctx context.Context, email, password, confirm string) error {
	if err := ValidateRegistration(email, password, confirm); err != nil {
		return err
	}
	if err := s.be.Register(ctx, email, password); err != nil {
		return err
	}
	s.logger.Info("account created", s.logger.Args("email", email))

	if err := s.Login(ctx, email, password); err != nil {
		return apperrors.Wrap(apperrors.KindOf(err), "account created but sign-in failed", err)
	}
	return nil
}

// Logout ends the session. The API has no server-side logout.
func (s *Service) Logout(ctx context.Context) error {
	was := s.sess.Authenticated()
	s.sess.Logout()
	if was {
		s.logger.Info("signed out")
	}
	return nil
}

// Identity is what the access token says about the signed-in user. It is
// read without verifying the signature and is for display only.
type Identity struct {
	Subject   string
	ExpiresAt time.Time
	Persisted bool
}

// Expired reports whether the token's exp claim lies in the past.
func (i Identity) Expired() bool {
	return !i.ExpiresAt.IsZero() && time.Now().After(i.ExpiresAt)
}

// WhoAmI returns the identity of the current session, or ok=false when
// signed out. A token that is not a JWT yields an empty Identity.
func (s *Service) WhoAmI() (Identity, bool) {
	token := s.sess.AccessToken()
	if token == "" {
		return Identity{}, false
	}

	id := Identity{Persisted: s.sess.Persisted()}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		s.logger.Debug("access token is not a readable JWT", s.logger.Args("error", err))
		return id, true
	}
	if sub, err := claims.GetSubject(); err == nil {
		id.Subject = sub
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		id.ExpiresAt = exp.Time
	}
	return id, true
}
