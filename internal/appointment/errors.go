package appointment

import (
	"errors"
	"fmt"
)

// ErrorKind classifies business failures the caller can act on.
type ErrorKind string

const (
	KindValidation        ErrorKind = "validation_error"
	KindNotFound          ErrorKind = "not_found"
	KindForbidden         ErrorKind = "forbidden"
	KindSlotUnavailable   ErrorKind = "slot_unavailable"
	KindInvalidTransition ErrorKind = "invalid_transition"
	KindAlreadyTerminal   ErrorKind = "already_terminal"
)

// Error is a business error. Two Errors match under errors.Is when their kinds match,
// so callers compare against the sentinels below.
type Error struct {
	Kind    ErrorKind
	Field   string
	Message string
	// Retryable marks a failure where the same request may succeed shortly,
	// such as a slot that is free but whose day is locked by another booking.
	Retryable bool
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrValidation        = &Error{Kind: KindValidation, Message: "validation failed"}
	ErrNotFound          = &Error{Kind: KindNotFound, Message: "not found"}
	ErrForbidden         = &Error{Kind: KindForbidden, Message: "forbidden"}
	ErrSlotUnavailable   = &Error{Kind: KindSlotUnavailable, Message: "slot unavailable"}
	ErrInvalidTransition = &Error{Kind: KindInvalidTransition, Message: "invalid status transition"}
	ErrAlreadyTerminal   = &Error{Kind: KindAlreadyTerminal, Message: "appointment already terminal"}

	ErrAppointmentNotFound = &Error{Kind: KindNotFound, Field: "appointment_id", Message: "appointment not found"}
)

// KindOf returns the business kind of err, if it carries one.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// IsRetryable reports whether err is a business error worth retrying unchanged.
func IsRetryable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Retryable
}

func validationError(field, msg string) *Error {
	return &Error{Kind: KindValidation, Field: field, Message: msg}
}

func NotFound(field, msg string) *Error {
	return &Error{Kind: KindNotFound, Field: field, Message: msg}
}

func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Message: msg}
}

func Validation(field, msg string) *Error {
	return validationError(field, msg)
}

func SlotUnavailable(date string, slot Slot, msg string) *Error {
	return &Error{Kind: KindSlotUnavailable, Field: date + " " + slot.String(), Message: msg}
}
