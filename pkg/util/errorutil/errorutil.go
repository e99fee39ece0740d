package errorutil

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes returned to callers.
const (
	CodeValidation          = "VALIDATION_FAILED"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeUnauthorizedActor   = "UNAUTHORIZED_ACTOR"
	CodeNotFound            = "NOT_FOUND"
	CodeVersionConflict     = "VERSION_CONFLICT"
	CodeForbiddenTransition = "FORBIDDEN_TRANSITION"
	CodeInternal            = "INTERNAL_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidation, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

// NewUnauthorized reports a missing or unverifiable session.
func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

// NewUnauthorizedActor reports an actor that may not perform the request.
func NewUnauthorizedActor(message string, details map[string]any) error {
	return NewDomainError(CodeUnauthorizedActor, message, http.StatusForbidden, details)
}

func NewForbiddenTransition(message string, details map[string]any) error {
	return NewDomainError(CodeForbiddenTransition, message, http.StatusUnprocessableEntity, details)
}

func NewVersionConflict(message string, details map[string]any) error {
	return NewDomainError(CodeVersionConflict, message, http.StatusConflict, details)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// HasCode reports whether err is a DomainError carrying code.
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr) && domainErr.Code == code
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}
