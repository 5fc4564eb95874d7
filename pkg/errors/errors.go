package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code
type ErrorCode int

// AppError represents an application error
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrNotFound ErrorCode = iota + 1000
	ErrBadRequest
	ErrUnauthorized
	ErrForbidden
	ErrInternal
)

// Workflow error codes. These form the queue taxonomy callers switch on.
const (
	ErrNoEligibleClinician ErrorCode = iota + 2000
	ErrIneligibleClinicianForPayer
	ErrInvalidTransition
	ErrDuplicateActiveEntry
	ErrNotAssignedClinician
	ErrStaleState
	ErrValidation
)

// Code extracts the ErrorCode from err, or ErrInternal if err carries none.
func Code(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrInternal
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	return Code(err) == code
}

// Error constructors
func NewNotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Err:     err,
	}
}

func NewBadRequest(message string, err error) *AppError {
	return &AppError{
		Code:    ErrBadRequest,
		Message: message,
		Err:     err,
	}
}

func NewInternal(err error) *AppError {
	return &AppError{
		Code:    ErrInternal,
		Message: "internal server error",
		Err:     err,
	}
}

func Unauthorized(err error) *AppError {
	return &AppError{
		Code:    ErrUnauthorized,
		Message: "unauthorized",
		Err:     err,
	}
}

func Forbidden(message string) *AppError {
	return &AppError{
		Code:    ErrForbidden,
		Message: message,
	}
}

// Workflow error constructors

func NewNoEligibleClinician() *AppError {
	return &AppError{
		Code:    ErrNoEligibleClinician,
		Message: "no clinically eligible clinician available for assignment",
	}
}

func NewIneligibleClinicianForPayer(payer string) *AppError {
	return &AppError{
		Code:    ErrIneligibleClinicianForPayer,
		Message: fmt.Sprintf("selected clinician is not eligible for payer type %s", payer),
	}
}

func NewInvalidTransition(event, state string) *AppError {
	return &AppError{
		Code:    ErrInvalidTransition,
		Message: fmt.Sprintf("cannot apply %s from state %s", event, state),
	}
}

func NewDuplicateActiveEntry(patientID string) *AppError {
	return &AppError{
		Code:    ErrDuplicateActiveEntry,
		Message: fmt.Sprintf("patient %s already has an active queue entry", patientID),
	}
}

func NewNotAssignedClinician() *AppError {
	return &AppError{
		Code:    ErrNotAssignedClinician,
		Message: "only the assigned doctor may start this consultation",
	}
}

func NewStaleState(event string) *AppError {
	return &AppError{
		Code:    ErrStaleState,
		Message: fmt.Sprintf("entry changed concurrently while applying %s, re-read and retry", event),
	}
}
