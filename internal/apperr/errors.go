// Package apperr defines the error kinds returned across repository, service
// and handler boundaries.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so the HTTP layer can pick a status code
type Kind string

const (
	KindValidation        Kind = "validation"
	KindNotFound          Kind = "not_found"
	KindDuplicateKey      Kind = "duplicate_key"
	KindInvalidTransition Kind = "invalid_transition"
	KindTenantMismatch    Kind = "tenant_mismatch"
	KindDoctorInactive    Kind = "doctor_inactive"
	KindOutsideShift      Kind = "outside_shift"
	KindSlotConflict      Kind = "slot_conflict"
	KindDoctorBusy        Kind = "doctor_busy"
	KindUnauthorized      Kind = "unauthorized"
	KindForbidden         Kind = "forbidden"
	KindInternal          Kind = "internal"
)

// Error is a classified failure. Two Errors match under errors.Is when
// their kinds are equal, so the sentinels below work as comparison targets.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is
var (
	ErrValidation        = &Error{Kind: KindValidation, Message: "validation failed"}
	ErrNotFound          = &Error{Kind: KindNotFound, Message: "not found"}
	ErrDuplicateKey      = &Error{Kind: KindDuplicateKey, Message: "already exists"}
	ErrInvalidTransition = &Error{Kind: KindInvalidTransition, Message: "invalid status transition"}
	ErrTenantMismatch    = &Error{Kind: KindTenantMismatch, Message: "doctor belongs to another hospital"}
	ErrDoctorInactive    = &Error{Kind: KindDoctorInactive, Message: "doctor is not active"}
	ErrOutsideShift      = &Error{Kind: KindOutsideShift, Message: "time is outside the doctor's shift"}
	ErrSlotConflict      = &Error{Kind: KindSlotConflict, Message: "doctor already has an appointment at that time"}
	ErrDoctorBusy        = &Error{Kind: KindDoctorBusy, Message: "doctor has active appointments"}
	ErrUnauthorized      = &Error{Kind: KindUnauthorized, Message: "invalid credentials"}
	ErrForbidden         = &Error{Kind: KindForbidden, Message: "access denied"}
)

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Validation(format string, args ...interface{}) *Error {
	return Newf(KindValidation, format, args...)
}

func NotFound(entity string) *Error {
	return Newf(KindNotFound, "%s not found", entity)
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
