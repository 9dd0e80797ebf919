// Package common defines the error taxonomy, shared constants and small
// helpers used across tourbook. Callers should match errors with
// errors.Is against the sentinels below or inspect the Kind with KindOf;
// the message text is for humans only.
package common

import (
	"errors"
	"fmt"
)

// Kind classifies an error. Every kind except KindInternal is
// operational: expected, user-facing and safe to describe to a client.
type Kind int

const (
	KindInternal Kind = iota
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindInvalidQuery
	KindResetTokenInvalid
	KindRateLimited
	KindValidationFailed
)

var kindNames = map[Kind]string{
	KindInternal:          "internal",
	KindUnauthenticated:   "unauthenticated",
	KindForbidden:         "forbidden",
	KindNotFound:          "not_found",
	KindInvalidQuery:      "invalid_query",
	KindResetTokenInvalid: "reset_token_invalid",
	KindRateLimited:       "rate_limited",
	KindValidationFailed:  "validation_failed",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is the tagged error carried through the access layer.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports a match when target is an *Error of the same kind. This
// lets the kind sentinels work with errors.Is regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Kind sentinels, for errors.Is.
var (
	ErrUnauthenticated   = &Error{Kind: KindUnauthenticated, Message: "unauthenticated"}
	ErrForbidden         = &Error{Kind: KindForbidden, Message: "forbidden"}
	ErrNotFound          = &Error{Kind: KindNotFound, Message: "not found"}
	ErrInvalidQuery      = &Error{Kind: KindInvalidQuery, Message: "invalid query"}
	ErrResetTokenInvalid = &Error{Kind: KindResetTokenInvalid, Message: "reset token invalid"}
	ErrRateLimited       = &Error{Kind: KindRateLimited, Message: "rate limited"}
	ErrValidationFailed  = &Error{Kind: KindValidationFailed, Message: "validation failed"}
)

// Lower-level signals, translated into tagged errors by the layer above.
var (
	// ErrRecordNotFound is returned by repositories when no row matches.
	ErrRecordNotFound = errors.New("record not found")

	// ErrInvalidToken covers malformed tokens and bad signatures.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired is returned for a well-formed token past its expiry.
	ErrTokenExpired = errors.New("token expired")
)

func Unauthenticated(msg string) error {
	return &Error{Kind: KindUnauthenticated, Message: msg}
}

func Forbidden(msg string) error {
	return &Error{Kind: KindForbidden, Message: msg}
}

func NotFound(msg string) error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func InvalidQuery(format string, args ...any) error {
	return &Error{Kind: KindInvalidQuery, Message: fmt.Sprintf(format, args...)}
}

// ResetTokenInvalid deliberately carries one fixed message: a wrong
// token and an expired one must look the same to the caller.
func ResetTokenInvalid() error {
	return &Error{Kind: KindResetTokenInvalid, Message: "Token is invalid or has expired"}
}

func RateLimited(msg string) error {
	return &Error{Kind: KindRateLimited, Message: msg}
}

// ValidationFailed wraps an optional cause (for example a multierror of
// field problems) under a safe message.
func ValidationFailed(msg string, cause error) error {
	return &Error{Kind: KindValidationFailed, Message: msg, Err: cause}
}

// KindOf returns the kind of the first *Error in err's chain, or
// KindInternal when there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsOperational reports whether err may be described to a client.
func IsOperational(err error) bool {
	return err != nil && KindOf(err) != KindInternal
}

// PublicMessage returns the safe message for operational errors and a
// fixed generic text for everything else.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return e.Message
	}
	return GenericFailureMessage
}
