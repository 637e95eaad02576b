package errors

import (
	"errors"
	"fmt"
)

// Common error types for the meeting form
var (
	// Configuration errors
	ErrConfiguration = errors.New("configuration error")

	// Authentication errors
	ErrAuthenticationExpired = errors.New("authentication expired")
	ErrInvalidState          = errors.New("invalid oauth state")
	ErrAuthorizationDenied   = errors.New("authorization denied")

	// Dispatch errors
	ErrWorkflowNotFound = errors.New("workflow not found")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrDispatchFailed   = errors.New("workflow dispatch failed")
	ErrTransport        = errors.New("transport error")
	ErrSubmitInProgress = errors.New("submission already in progress")

	// Session errors
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
