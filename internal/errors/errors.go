// Copyright (c) 2025 Synchub
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package errors defines typed errors with categories for user-friendly reporting.
// Every failure that crosses the session core carries a Kind so callers can tell
// a rejected credential from a duplicate account, an expired session, a storage
// problem or a dead network without string matching.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind is a machine-readable error category.
type Kind string

const (
	// CredentialRejected indicates the login or registration endpoint refused the submission.
	CredentialRejected Kind = "credential_rejected"
	// DuplicateAccount indicates registration failed because the email is taken.
	DuplicateAccount Kind = "duplicate_account"
	// Unauthorized indicates an authenticated request was rejected (401).
	Unauthorized Kind = "unauthorized"
	// StorageFailure indicates the durable token store could not be read or written.
	StorageFailure Kind = "storage_failure"
	// Transport indicates no response was received at all.
	Transport Kind = "transport"
	// InvalidInput indicates the caller supplied malformed input.
	InvalidInput Kind = "invalid_input"
)

// E wraps an error with kind and human-friendly message.
type E struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *E) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying error to errors.Is / errors.As.
func (e *E) Unwrap() error { return e.Err }

func Wrap(kind Kind, msg string, err error) *E { return &E{Kind: kind, Message: msg, Err: err} }
func New(kind Kind, msg string) *E             { return &E{Kind: kind, Message: msg} }

// KindOf returns the Kind of the outermost *E in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *E
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether any *E in err's chain has the given kind.
func Is(err error, kind Kind) bool {
	for err != nil {
		var e *E
		if !stderrors.As(err, &e) {
			return false
		}
		if e.Kind == kind {
			return true
		}
		err = e.Err
	}
	return false
}
