// Package apperror defines the typed failures services raise and the HTTP layer translates.
package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for the response boundary.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindDuplicate
	KindInvalidCredentials
	KindInvalidVerificationCode
	KindInvalidDomain
	KindSubdomainMismatch
	KindGiveawayEntry
	KindFileUpload
	KindValidation
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindDuplicate:
		return "duplicate"
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindInvalidVerificationCode:
		return "invalid_verification_code"
	case KindInvalidDomain:
		return "invalid_domain"
	case KindSubdomainMismatch:
		return "subdomain_mismatch"
	case KindGiveawayEntry:
		return "giveaway_entry"
	case KindFileUpload:
		return "file_upload"
	case KindValidation:
		return "validation"
	case KindUnavailable:
		return "unavailable"
	default:
		return "internal"
	}
}

// Error is a business or auth failure with a client-safe message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, msg string) *Error { return &Error{Kind: kind, Message: msg} }

func NotFound(msg string) *Error                { return newError(KindNotFound, msg) }
func Duplicate(msg string) *Error               { return newError(KindDuplicate, msg) }
func InvalidCredentials(msg string) *Error      { return newError(KindInvalidCredentials, msg) }
func InvalidVerificationCode(msg string) *Error { return newError(KindInvalidVerificationCode, msg) }
func InvalidDomain(msg string) *Error           { return newError(KindInvalidDomain, msg) }
func SubdomainMismatch(msg string) *Error       { return newError(KindSubdomainMismatch, msg) }
func GiveawayEntry(msg string) *Error           { return newError(KindGiveawayEntry, msg) }
func Validation(msg string) *Error              { return newError(KindValidation, msg) }

// FileUpload wraps an optional provider error.
func FileUpload(msg string, cause error) *Error {
	return &Error{Kind: KindFileUpload, Message: msg, Err: cause}
}

// Unavailable marks a transient infrastructure failure.
func Unavailable(msg string, cause error) *Error {
	return &Error{Kind: KindUnavailable, Message: msg, Err: cause}
}

// KindOf returns the kind of err, or KindInternal when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
