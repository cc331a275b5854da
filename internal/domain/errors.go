package domain

import (
	"errors"
	"fmt"
)

var ErrAccountNotConfigured = errors.New("account not configured, run 'sf login' first")

type ErrorKind string

const (
	// ErrorKindConnection covers transport failures and malformed discovery
	// responses.
	ErrorKindConnection ErrorKind = "connection"
	// ErrorKindAuth covers rejected credentials and malformed auth responses.
	ErrorKindAuth ErrorKind = "auth"
	// ErrorKindAPI covers every other unexpected upstream failure.
	ErrorKindAPI ErrorKind = "api"
)

// Error is the common base for all upstream failures, discriminated by Kind.
type Error struct {
	Kind    ErrorKind
	Message string
	// Status holds the upstream HTTP status when one was received.
	Status int
	cause  error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s error: %s (status %d)", e.Kind, e.Message, e.Status)
	}

	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

func NewConnectionError(message string, cause error) *Error {
	return &Error{Kind: ErrorKindConnection, Message: message, cause: cause}
}

func NewAuthError(message string, status int) *Error {
	return &Error{Kind: ErrorKindAuth, Message: message, Status: status}
}

func NewAPIError(message string, status int) *Error {
	return &Error{Kind: ErrorKindAPI, Message: message, Status: status}
}

// IsUpstreamError reports whether err belongs to the upstream error taxonomy,
// regardless of kind.
func IsUpstreamError(err error) bool {
	var upstream *Error
	return errors.As(err, &upstream)
}

func isKind(err error, kind ErrorKind) bool {
	var upstream *Error
	if !errors.As(err, &upstream) {
		return false
	}

	return upstream.Kind == kind
}

func IsConnectionError(err error) bool {
	return isKind(err, ErrorKindConnection)
}

func IsAuthError(err error) bool {
	return isKind(err, ErrorKindAuth)
}

func IsAPIError(err error) bool {
	return isKind(err, ErrorKindAPI)
}
