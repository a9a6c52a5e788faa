// Package services defines the business logic for users, problems, and judge
// records. This file defines the operation error taxonomy shared by every
// service method and consumed exactly once per request by the HTTP pipeline.
//
// Every failure a handler can see is an *Error carrying a Kind and a
// free-form detail string. Kinds are classified exactly once, in
// Kind.Class(), as either a client fault (safe to describe in the response)
// or an internal fault (detail is logged, never returned). No other place in
// the codebase decides how an error is presented.
package services

import (
	"errors"
	"fmt"
)

// Class separates caller faults from implementation/infrastructure faults.
type Class int

const (
	// ClassClient marks failures attributable to the caller's input or
	// state. The detail string may be included in the response.
	ClassClient Class = iota
	// ClassInternal marks failures of the system itself. The detail string
	// is logged server-side and never reaches the caller.
	ClassInternal
)

// Kind enumerates the closed set of operation failure kinds.
type Kind int

const (
	// KindMalformedRequest: the request body failed to parse.
	KindMalformedRequest Kind = iota
	// KindMissingCredential: no token presented where one is required.
	KindMissingCredential
	// KindInvalidCredential: token failed verification or the authorization check.
	KindInvalidCredential
	// KindValidationFailed: required field absent/empty or semantic constraint violated.
	KindValidationFailed
	// KindConflict: uniqueness constraint violated (e.g. duplicate account).
	KindConflict
	// KindNotFound: referenced entity does not exist.
	KindNotFound
	// KindWrongPassword: supplied password does not match the stored hash.
	KindWrongPassword
	// KindPersistenceFailure: storage layer returned an unexpected error.
	KindPersistenceFailure
	// KindSerializationFailure: signing or encoding failed unexpectedly.
	KindSerializationFailure
)

// Class returns the classification of the kind. This switch is the single
// point that decides what the caller may learn about a failure.
func (k Kind) Class() Class {
	switch k {
	case KindPersistenceFailure, KindSerializationFailure:
		return ClassInternal
	default:
		return ClassClient
	}
}

// String returns the short, stable category used as the client-facing
// message for client-class errors.
func (k Kind) String() string {
	switch k {
	case KindMalformedRequest:
		return "malformed request"
	case KindMissingCredential:
		return "missing credential"
	case KindInvalidCredential:
		return "invalid credential"
	case KindValidationFailed:
		return "validation failed"
	case KindConflict:
		return "duplicate data"
	case KindNotFound:
		return "not found"
	case KindWrongPassword:
		return "wrong password"
	case KindPersistenceFailure:
		return "persistence failure"
	case KindSerializationFailure:
		return "serialization failure"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is the typed operation error produced by service methods and
// consumed by the HTTP pipeline. It carries exactly one detail string.
type Error struct {
	Kind   Kind
	Detail string
}

// Error implements the error interface.
func (e *Error) Error() string { return e.Kind.String() + ": " + e.Detail }

// E builds an *Error with a formatted detail string.
func E(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// AsError coerces err into an *Error. Untyped errors are treated as
// persistence failures: an unexpected error from a lower layer is an
// infrastructure fault whose detail must not leak to the caller.
func AsError(err error) *Error {
	var oe *Error
	if errors.As(err, &oe) {
		return oe
	}
	return &Error{Kind: KindPersistenceFailure, Detail: err.Error()}
}
