package domain

import (
	"errors"
	"fmt"
)

// Storage level sentinels. Repositories wrap these, services translate them
// into an *Error with the matching kind.
var (
	ErrRecordNotFound = errors.New("record not found")
	ErrDuplicateKey   = errors.New("duplicate key")
	ErrPartyFull      = errors.New("party is full")
	ErrPartyClosed    = errors.New("party is not recruiting")
	// ErrPartyChanged reports a conditional party write whose membership or
	// status moved since it was read, or whose party is gone.
	ErrPartyChanged = errors.New("party changed since it was read")
)

type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindValidation
	KindNotFound
	KindInvalidPassword
	KindDuplicate
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindInvalidPassword:
		return "invalid_password"
	case KindDuplicate:
		return "duplicate"
	default:
		return "unknown"
	}
}

// Error is the single failure type returned by the application services.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewValidationError(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NewNotFoundError(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func NewInvalidPasswordError(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidPassword, Message: fmt.Sprintf(format, args...)}
}

func NewDuplicateError(format string, args ...any) *Error {
	return &Error{Kind: KindDuplicate, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
