package apperr

import (
	"errors"
	"fmt"
	"strings"
)

type Kind string

const (
	KindValidation      Kind = "validation"
	KindUnauthenticated Kind = "unauthenticated"
	KindForbidden       Kind = "forbidden"
	KindNotFound        Kind = "not_found"
	KindEmptyCart       Kind = "empty_cart"
	KindPersistence     Kind = "persistence"
)

// Error is the failure result returned by every core operation. Message is safe to
// show to the caller; Err carries the internal cause and is never rendered.
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

// Is matches on kind, so errors.Is(err, apperr.ErrNotFound) works for any not-found error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

var (
	ErrValidation      = &Error{Kind: KindValidation}
	ErrUnauthenticated = &Error{Kind: KindUnauthenticated}
	ErrForbidden       = &Error{Kind: KindForbidden}
	ErrNotFound        = &Error{Kind: KindNotFound}
	ErrEmptyCart       = &Error{Kind: KindEmptyCart}
	ErrPersistence     = &Error{Kind: KindPersistence}
)

func Validation(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func Unauthenticated() error {
	return &Error{Kind: KindUnauthenticated, Message: "authentication required"}
}

func Forbidden() error {
	return &Error{Kind: KindForbidden, Message: "not authorized"}
}

func NotFound(resource string, ids ...string) error {
	msg := resource + " not found"
	if len(ids) > 0 {
		msg = fmt.Sprintf("%s not found: %s", resource, strings.Join(ids, ", "))
	}
	return &Error{Kind: KindNotFound, Message: msg}
}

func EmptyCart() error {
	return &Error{Kind: KindEmptyCart, Message: "cart is empty"}
}

// Persistence wraps a store failure behind a generic message.
func Persistence(err error) error {
	return &Error{Kind: KindPersistence, Message: "could not complete the operation", Err: err}
}

// KindOf returns the kind of the first *Error in err's chain. Unknown errors are
// treated as persistence failures so nothing internal leaks to callers.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindPersistence
}

// IsAuth reports whether err is an unauthenticated or forbidden failure.
func IsAuth(err error) bool {
	k := KindOf(err)
	return err != nil && (k == KindUnauthenticated || k == KindForbidden)
}

// Message returns the caller-facing message for err.
func Message(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Kind != KindPersistence {
		return appErr.Message
	}
	return "could not complete the operation"
}

// FromStore passes typed errors through and turns anything else into a persistence
// failure.
func FromStore(err error) error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return err
	}
	return Persistence(err)
}
