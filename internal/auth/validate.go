// Copyright (c) 2025 Synchub
// Licensed under the MIT License. See LICENSE file in the project root for details.

package auth

import (
	"net/mail"
	"strings"
	"unicode/utf8"

	apperrors "synchub/cli/internal/errors"
)

// MinPasswordLength is the shortest password the API accepts.
const MinPasswordLength = 8

// FieldError is a validation failure tied to one form field.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string { return e.Field + ": " + e.Message }

func invalid(field, msg string) error {
	return apperrors.Wrap(apperrors.InvalidInput, msg, &FieldError{Field: field, Message: msg})
}

// ValidateCredentials checks the login form.
func ValidateCredentials(email, password string) error {
	if err := validateEmail(email); err != nil {
		return err
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return invalid("password", "Password must be at least 8 characters")
	}
	return nil
}

// ValidateRegistration checks the registration form.
func ValidateRegistration(email, password, confirm string) error {
	if err := ValidateCredentials(email, password); err != nil {
		return err
	}
	if password != confirm {
		return invalid("confirm_password", "Passwords don't match")
	}
	return nil
}

func validateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != strings.TrimSpace(email) || addr.Name != "" {
		return invalid("email", "Please enter a valid email")
	}
	return nil
}
