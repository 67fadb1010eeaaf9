package errorutil

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
)

// Error codes surfaced in response envelopes.
const (
	CodeValidationFailed  = "VALIDATION_FAILED"
	CodeNotFound          = "NOT_FOUND"
	CodeReferenceNotFound = "REFERENCE_NOT_FOUND"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeEntityLocked      = "ENTITY_LOCKED"
	CodeDeletionForbidden = "DELETION_FORBIDDEN"
	CodeInvalidFilter     = "INVALID_FILTER"
	CodeConflict          = "CONFLICT"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeForbidden         = "FORBIDDEN"
	CodeInternal          = "INTERNAL_ERROR"
)

// Sentinels for errors.Is matching; comparison is by Code only.
var (
	ErrValidation        = &DomainError{Code: CodeValidationFailed}
	ErrNotFound          = &DomainError{Code: CodeNotFound}
	ErrReferenceNotFound = &DomainError{Code: CodeReferenceNotFound}
	ErrInvalidTransition = &DomainError{Code: CodeInvalidTransition}
	ErrEntityLocked      = &DomainError{Code: CodeEntityLocked}
	ErrDeletionForbidden = &DomainError{Code: CodeDeletionForbidden}
	ErrInvalidFilter     = &DomainError{Code: CodeInvalidFilter}
	ErrConflict          = &DomainError{Code: CodeConflict}
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

// Is reports whether target is a DomainError carrying the same code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Retryable reports whether the caller may retry the request unchanged.
func (e *DomainError) Retryable() bool {
	return e.Code == CodeConflict
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidationFailed, message, http.StatusBadRequest, details)
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

// NewReferenceNotFound reports a referenced record missing at creation time.
func NewReferenceNotFound(kind, id string) error {
	return NewDomainError(CodeReferenceNotFound,
		fmt.Sprintf("referenced %s %s not found", kind, id),
		http.StatusNotFound,
		map[string]any{"kind": kind, "id": id})
}

// NewInvalidTransition names both the current and the requested state.
func NewInvalidTransition(entity, current, requested string) error {
	return NewDomainError(CodeInvalidTransition,
		fmt.Sprintf("%s cannot move from %s to %s", entity, current, requested),
		http.StatusBadRequest,
		map[string]any{"current": current, "requested": requested})
}

func NewEntityLocked(entity, status string) error {
	return NewDomainError(CodeEntityLocked,
		fmt.Sprintf("%s is locked in status %s", entity, status),
		http.StatusBadRequest,
		map[string]any{"status": status})
}

func NewDeletionForbidden(entity, status string) error {
	return NewDomainError(CodeDeletionForbidden,
		fmt.Sprintf("%s cannot be deleted in status %s", entity, status),
		http.StatusBadRequest,
		map[string]any{"status": status})
}

func NewInvalidFilter(field, reason string) error {
	return NewDomainError(CodeInvalidFilter,
		fmt.Sprintf("invalid filter %q: %s", field, reason),
		http.StatusBadRequest,
		map[string]any{"field": field})
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, details)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
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
	if errors.Is(err, pgx.ErrNoRows) {
		return NewNotFound("resource", nil).(*DomainError)
	}
	return NewInternalError(err).(*DomainError)
}

// MapError converts err into a DomainError, preserving existing ones.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	return ToDomainError(err)
}
