package models

import (
	"errors"
	"fmt"
)

// Error codes shared by the store, the gateway boundary and the lifecycle manager.
const (
	CodeValidation        = "validation"
	CodeConflict          = "conflict"
	CodeNotFound          = "notFound"
	CodeForbidden         = "forbidden"
	CodeInvalidTransition = "invalidTransition"
	CodeGateway           = "gateway"
)

// BookingError carries a stable Code so callers can branch with errors.Is
// while Message stays human readable.
type BookingError struct {
	Code    string
	Message string
	Err     error
}

func (e *BookingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BookingError) Unwrap() error { return e.Err }

// Is matches any BookingError with the same Code.
func (e *BookingError) Is(target error) bool {
	var t *BookingError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

var (
	ErrValidation        = &BookingError{Code: CodeValidation, Message: "invalid input"}
	ErrConflict          = &BookingError{Code: CodeConflict, Message: "slot already booked or reserved"}
	ErrNotFound          = &BookingError{Code: CodeNotFound, Message: "booking not found"}
	ErrForbidden         = &BookingError{Code: CodeForbidden, Message: "not authorized to modify this booking"}
	ErrInvalidTransition = &BookingError{Code: CodeInvalidTransition, Message: "booking is no longer pending"}
	ErrGateway           = &BookingError{Code: CodeGateway, Message: "payment status unknown"}
)

func NewValidationError(msg string) error {
	return &BookingError{Code: CodeValidation, Message: msg}
}

func NewConflictError(msg string) error {
	return &BookingError{Code: CodeConflict, Message: msg}
}

func NewNotFoundError(msg string) error {
	return &BookingError{Code: CodeNotFound, Message: msg}
}

func NewForbiddenError(msg string) error {
	return &BookingError{Code: CodeForbidden, Message: msg}
}

func NewInvalidTransitionError(msg string) error {
	return &BookingError{Code: CodeInvalidTransition, Message: msg}
}

// NewGatewayError wraps a provider failure; it is never a FAILED payment.
func NewGatewayError(msg string, err error) error {
	return &BookingError{Code: CodeGateway, Message: msg, Err: err}
}

// ErrorCode extracts the BookingError code, or "" for foreign errors.
func ErrorCode(err error) string {
	var be *BookingError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}

// ErrorMessage returns the user-facing message for err.
func ErrorMessage(err error) string {
	var be *BookingError
	if errors.As(err, &be) {
		return be.Message
	}
	return err.Error()
}
