package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

type ErrorType string

const (
	ErrorTypeAuthorization ErrorType = "AUTHORIZATION_ERROR"
	ErrorTypeTransient     ErrorType = "TRANSIENT_ERROR"
	ErrorTypeData          ErrorType = "DATA_ERROR"
	ErrorTypeConfiguration ErrorType = "CONFIGURATION_ERROR"
	ErrorTypeValidation    ErrorType = "VALIDATION_ERROR"
	ErrorTypeInternal      ErrorType = "INTERNAL_ERROR"
)

type ErrorCode string

const (
	ErrCodeInvalidToken        ErrorCode = "INVALID_TOKEN"
	ErrCodeTokenExpired        ErrorCode = "TOKEN_EXPIRED"
	ErrCodePlatformUnreachable ErrorCode = "PLATFORM_UNREACHABLE"
	ErrCodeConnectorFailure    ErrorCode = "CONNECTOR_FAILURE"
	ErrCodeRateLimited         ErrorCode = "RATE_LIMITED"
	ErrCodeMalformedBatch      ErrorCode = "MALFORMED_BATCH"
	ErrCodeMissingMapping      ErrorCode = "MISSING_MAPPING"
	ErrCodeUnknownSourceField  ErrorCode = "UNKNOWN_SOURCE_FIELD"
	ErrCodeUnknownSyncMethod   ErrorCode = "UNKNOWN_SYNC_METHOD"
	ErrCodeUnknownResource     ErrorCode = "UNKNOWN_RESOURCE"
	ErrCodeInvalidConfig       ErrorCode = "INVALID_CONFIG"
)

// AppError is the single error shape crossing package boundaries. The importer
// uses Type to decide between the FAILED and FATAL import log states.
type AppError struct {
	Type       ErrorType `json:"type"`
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	StatusCode int       `json:"-"`
	Cause      error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

func NewAuthorizationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeAuthorization,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

func NewTransientError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeTransient,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadGateway,
	}
}

func NewDataError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeData,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnprocessableEntity,
	}
}

func NewConfigurationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeConfiguration,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
	}
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

var (
	ErrInvalidToken = NewAuthorizationError("invalid platform token", ErrCodeInvalidToken)
	ErrTokenExpired = NewAuthorizationError("platform token has expired", ErrCodeTokenExpired)
)

func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsFatal reports whether an error is unrecoverable for an import run:
// credential problems will not fix themselves on retry.
func IsFatal(err error) bool {
	if appErr, ok := IsAppError(err); ok {
		return appErr.Type == ErrorTypeAuthorization
	}
	return false
}

// ErrorTypeOf classifies any error into the import taxonomy; unknown errors
// count as transient so the next scheduled run retries them.
func ErrorTypeOf(err error) ErrorType {
	if appErr, ok := IsAppError(err); ok {
		return appErr.Type
	}
	return ErrorTypeTransient
}

type Response struct {
	Error *AppError `json:"error"`
}

func (e *AppError) ToHTTPResponse() (int, interface{}) {
	return e.StatusCode, Response{Error: e}
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ErrorType `json:"type"`
		Code    ErrorCode `json:"code"`
		Message string    `json:"message"`
	}{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
	})
}
