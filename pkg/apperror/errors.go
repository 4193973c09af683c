package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError represents an application error with an HTTP status code and a
// stable machine-readable error code
type AppError struct {
	Code      int          `json:"code"`
	ErrorCode string       `json:"error,omitempty"`
	Message   string       `json:"message"`
	Errors    []FieldError `json:"errors,omitempty"`
}

// FieldError represents a validation error for a specific field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	return e.Message
}

// Common errors
var (
	ErrNotFound           = &AppError{Code: http.StatusNotFound, ErrorCode: "NOT_FOUND", Message: "Resource not found"}
	ErrUnauthorized       = &AppError{Code: http.StatusUnauthorized, ErrorCode: "UNAUTHORIZED", Message: "Unauthorized"}
	ErrForbidden          = &AppError{Code: http.StatusForbidden, ErrorCode: "FORBIDDEN", Message: "Forbidden"}
	ErrBadRequest         = &AppError{Code: http.StatusBadRequest, ErrorCode: "BAD_REQUEST", Message: "Bad request"}
	ErrInternalServer     = &AppError{Code: http.StatusInternalServerError, ErrorCode: "INTERNAL_ERROR", Message: "Internal server error"}
	ErrConflict           = &AppError{Code: http.StatusConflict, ErrorCode: "CONFLICT", Message: "Resource already exists"}
	ErrInvalidCredentials = &AppError{Code: http.StatusUnauthorized, ErrorCode: "INVALID_CREDENTIALS", Message: "Invalid email or password"}
	ErrTokenExpired       = &AppError{Code: http.StatusUnauthorized, ErrorCode: "TOKEN_EXPIRED", Message: "Token has expired"}
	ErrInvalidToken       = &AppError{Code: http.StatusUnauthorized, ErrorCode: "INVALID_TOKEN", Message: "Invalid token"}
)

// NewAppError creates a new application error
func NewAppError(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(fieldErrors []FieldError) *AppError {
	return &AppError{
		Code:      http.StatusUnprocessableEntity,
		ErrorCode: "VALIDATION_ERROR",
		Message:   "Validation failed",
		Errors:    fieldErrors,
	}
}

// NewNotFoundError creates a not found error with a custom message
func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Code:      http.StatusNotFound,
		ErrorCode: "NOT_FOUND",
		Message:   resource + " not found",
	}
}

// NewConflictError creates a conflict error with a custom message
func NewConflictError(message string) *AppError {
	return &AppError{
		Code:      http.StatusConflict,
		ErrorCode: "CONFLICT",
		Message:   message,
	}
}

// NewBadRequestError creates a bad request error with a custom message
func NewBadRequestError(message string) *AppError {
	return &AppError{
		Code:      http.StatusBadRequest,
		ErrorCode: "BAD_REQUEST",
		Message:   message,
	}
}

// NewQuotaExceededError creates the error returned when a free-plan user has
// used up the monthly invoice allowance
func NewQuotaExceededError(current, limit int) *AppError {
	return &AppError{
		Code:      http.StatusForbidden,
		ErrorCode: "INVOICE_LIMIT_REACHED",
		Message:   fmt.Sprintf("Monthly invoice limit reached (%d/%d). Upgrade to premium for unlimited invoices.", current, limit),
	}
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// IsCode reports whether err is an AppError carrying the given error code
func IsCode(err error, errorCode string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.ErrorCode == errorCode
	}
	return false
}

// IsConflict reports whether err is a 409 conflict
func IsConflict(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == http.StatusConflict
}

// GetAppError converts an error to AppError if possible
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return &AppError{
		Code:      http.StatusInternalServerError,
		ErrorCode: "INTERNAL_ERROR",
		Message:   err.Error(),
	}
}
