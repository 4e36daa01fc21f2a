package util

import (
	"errors"
	"fmt"
)

// DomainError standardizes application errors. Code drives how the boundary
// reports the failure: user-facing codes become ephemeral replies, the rest
// are logged and absorbed.
type DomainError struct {
	Code    string
	Message string
	Details map[string]any
	Err     error
}

const (
	CodeNotFound         = "NOT_FOUND"
	CodeValidation       = "VALIDATION_FAILED"
	CodePermissionDenied = "PERMISSION_DENIED"
	CodeStoreUnavailable = "STORE_UNAVAILABLE"
	CodePlatformFailure  = "PLATFORM_FAILURE"
)

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// UserFacing reports whether the error should be shown to the invoking user.
func (e *DomainError) UserFacing() bool {
	switch e.Code {
	case CodeNotFound, CodeValidation, CodePermissionDenied:
		return true
	}
	return false
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, Details: details}
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Details: details,
	}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidation, message, details)
}

func NewPermissionDenied(message string) error {
	return NewDomainError(CodePermissionDenied, message, nil)
}

func NewStoreUnavailable(err error) error {
	return &DomainError{
		Code:    CodeStoreUnavailable,
		Message: "backing store unavailable",
		Err:     err,
	}
}

func NewPlatformFailure(action string, err error) error {
	return &DomainError{
		Code:    CodePlatformFailure,
		Message: fmt.Sprintf("platform %s failed", action),
		Err:     err,
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
	return &DomainError{
		Code:    CodePlatformFailure,
		Message: "operation failed",
		Err:     err,
	}
}

// IsCode reports whether err is a DomainError with the given code.
func IsCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}
