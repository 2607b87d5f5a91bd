// Copyright (c) 2025 Synchub
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"context"
	"net/http"

	"synchub/cli/internal/dispatch"
	apperrors "synchub/cli/internal/errors"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login calls POST /auth/login and returns the issued pair.
// A refused submission is reported as CredentialRejected; a missing response
// stays a Transport error. Credential exchanges are sent anonymously, so a
// wrong password never ends the current session.
func (c *Client) Login(ctx context.Context, email, password string) (Tokens, error) {
	resp, err := c.Post(dispatch.Anonymous(ctx), c.endpoints.Login, credentials{Email: email, Password: password})
	if err != nil {
		if StatusCode(err) != 0 {
			return Tokens{}, apperrors.Wrap(apperrors.CredentialRejected, "login failed", err)
		}
		return Tokens{}, err
	}

	t := parseTokens(resp.Body, resp.Header)
	if t.AccessToken == "" || t.RefreshToken == "" {
		return Tokens{}, apperrors.New(apperrors.CredentialRejected, "login response did not contain a token pair")
	}
	return t, nil
}

// Register calls POST /auth/register. A 400 means the email is taken and is
// reported as DuplicateAccount; other refusals are CredentialRejected.
func (c *Client) Register(ctx context.Context, email, password string) error {
	_, err := c.Post(dispatch.Anonymous(ctx), c.endpoints.Register, credentials{Email: email, Password: password})
	if err == nil {
		return nil
	}
	switch StatusCode(err) {
	case 0:
		return err
	case http.StatusBadRequest:
		return apperrors.Wrap(apperrors.DuplicateAccount, "email already registered", err)
	default:
		return apperrors.Wrap(apperrors.CredentialRejected, "registration failed", err)
	}
}

// Refresh calls POST /auth/refresh with the refresh token and returns the
// new pair. When the API does not rotate the refresh token the old one is kept.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (Tokens, error) {
	if refreshToken == "" {
		return Tokens{}, apperrors.New(apperrors.Unauthorized, "no refresh token")
	}
	resp, err := c.Post(dispatch.Anonymous(ctx), c.endpoints.Refresh, map[string]string{"refresh_token": refreshToken})
	if err != nil {
		switch StatusCode(err) {
		case 0:
			return Tokens{}, err
		case http.StatusUnauthorized:
			return Tokens{}, apperrors.Wrap(apperrors.Unauthorized, "refresh token expired or revoked", err)
		default:
			return Tokens{}, apperrors.Wrap(apperrors.CredentialRejected, "refresh failed", err)
		}
	}

	t := parseTokens(resp.Body, resp.Header)
	if t.AccessToken == "" {
		return Tokens{}, apperrors.New(apperrors.Unauthorized, "no access_token in refresh response")
	}
	if t.RefreshToken == "" {
		t.RefreshToken = refreshToken
	}
	return t, nil
}
