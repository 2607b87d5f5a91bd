// Copyright (c) 2025 Synchub
// Licensed under the MIT License. See LICENSE file in the project root for details.

package auth

import (
	"context"

	"github.com/pterm/pterm"

	apperrors "synchub/cli/internal/errors"
	"synchub/cli/internal/logging"
	"synchub/cli/internal/session"
)

// Refresher exchanges the session's refresh token for a new pair. It
// satisfies dispatch.Refresher.
type Refresher struct {
	be     API
	sess   *session.Session
	logger *pterm.Logger
}

// NewRefresher returns a Refresher bound to sess.
func NewRefresher(be API, sess *session.Session, logger *pterm.Logger) *Refresher {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Refresher{be: be, sess: sess, logger: logger}
}

// Refresh performs the exchange and stores the rotated pair. A rejected
// refresh token ends the session.
func (r *Refresher) Refresh(ctx context.Context) (string, error) {
	rt := r.sess.RefreshToken()
	if rt == "" {
		return "", apperrors.New(apperrors.Unauthorized, "not logged in")
	}

	tokens, err := r.be.Refresh(ctx, rt)
	if err != nil {
		if apperrors.Is(err, apperrors.Unauthorized) {
			r.logger.Info("refresh token rejected, signing out")
			r.sess.Logout()
		}
		return "", err
	}
	if err := r.sess.Login(session.Tokens{AccessToken: tokens.AccessToken, RefreshToken: tokens.RefreshToken}); err != nil {
		return "", apperrors.Wrap(apperrors.Unauthorized, "refresh response was incomplete", err)
	}

	r.logger.Debug("access token refreshed", r.logger.Args("access_token", logging.Fingerprint(tokens.AccessToken)))
	return tokens.AccessToken, nil
}
