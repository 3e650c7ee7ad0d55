// Package apperr carries the user-facing failure taxonomy of the message pipeline.
package apperr

import (
	"errors"
	"fmt"
)

// Kind failure class; drives logging level and the reply text fallback
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindEntitlement
	KindExtraction
	KindLedgerAccess
	KindConfigPersistence
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindEntitlement:
		return "entitlement"
	case KindExtraction:
		return "extraction"
	case KindLedgerAccess:
		return "ledger_access"
	case KindConfigPersistence:
		return "config_persistence"
	default:
		return "unknown"
	}
}

// Error is a failure whose Message may be shown to the sender as is.
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

func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

func Validationf(format string, args ...interface{}) *Error {
	return Validation(fmt.Sprintf(format, args...))
}

func Entitlement(msg string) *Error {
	return &Error{Kind: KindEntitlement, Message: msg}
}

func Extraction(msg string, cause error) *Error {
	return &Error{Kind: KindExtraction, Message: msg, Err: cause}
}

func LedgerAccess(msg string, cause error) *Error {
	return &Error{Kind: KindLedgerAccess, Message: msg, Err: cause}
}

func ConfigPersistence(cause error) *Error {
	return &Error{Kind: KindConfigPersistence, Message: "Terjadi kesalahan server. Silakan coba lagi nanti.", Err: cause}
}

// KindOf returns the kind of the first *Error in err's chain
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// UserMessage returns the reply text for err, or fallback when err carries none
func UserMessage(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return fallback
}
