// Package apierr defines the error taxonomy shared by the paging, leaderboard,
// polling and transport packages.
//
// Callers match on the kind instead of on concrete types:
//
//	if errors.Is(err, apierr.ErrNotFound) {
//		// collection or resource absent
//	}
package apierr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure returned by the Strava API or by local validation.
type Kind string

const (
	// KindNotFound means the resource or collection does not exist (HTTP 404).
	KindNotFound Kind = "not_found"

	// KindNotAuthorized means the credential lacks access (HTTP 401/403).
	KindNotAuthorized Kind = "not_authorized"

	// KindInvalidDescriptor means a paging descriptor was rejected before any remote call.
	KindInvalidDescriptor Kind = "invalid_descriptor"

	// KindOther covers every other transport or API failure.
	KindOther Kind = "other"
)

// Sentinels for errors.Is. An *Error matches the sentinel of its Kind.
var (
	ErrNotFound          = errors.New("not found")
	ErrNotAuthorized     = errors.New("not authorized")
	ErrInvalidDescriptor = errors.New("invalid paging descriptor")
)

// Error carries the kind of a failure together with the HTTP context, if any.
type Error struct {
	Kind       Kind
	StatusCode int
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("strava %s error: %s: %v", e.Kind, msg, e.Err)
	}
	return fmt.Sprintf("strava %s error: %s", e.Kind, msg)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrNotAuthorized:
		return e.Kind == KindNotAuthorized
	case ErrInvalidDescriptor:
		return e.Kind == KindInvalidDescriptor
	}
	return false
}

// New returns an *Error of the given kind.
func New(kind Kind, statusCode int, message string) *Error {
	return &Error{Kind: kind, StatusCode: statusCode, Message: message}
}

// Wrap returns an *Error of the given kind wrapping err.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of err. Errors not produced by this package are KindOther,
// nil yields the empty kind.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}

	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrNotAuthorized):
		return KindNotAuthorized
	case errors.Is(err, ErrInvalidDescriptor):
		return KindInvalidDescriptor
	default:
		return KindOther
	}
}

// IsNotFound reports whether err signals an absent resource or collection.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsNotAuthorized reports whether err signals missing access.
func IsNotAuthorized(err error) bool {
	return errors.Is(err, ErrNotAuthorized)
}

// FromStatus maps an HTTP status code onto an *Error. Codes below 400 return nil.
func FromStatus(statusCode int, status string) *Error {
	switch {
	case statusCode < 400:
		return nil
	case statusCode == 404:
		return New(KindNotFound, statusCode, status)
	case statusCode == 401 || statusCode == 403:
		return New(KindNotAuthorized, statusCode, status)
	default:
		return New(KindOther, statusCode, status)
	}
}
