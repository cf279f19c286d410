package errors

import (
	"net/http"

	"puffsocial/internal/errors"
)

// AppError defines the interface for application-specific errors
type AppError interface {
	error
	HTTPCode() int     // HTTP status code
	ErrorCode() string // Business error code
	Message() string   // User-friendly error message
	Details() string   // Detailed error information (optional)
}

// BaseError is a basic error structure that implements the AppError interface
type BaseError struct {
	httpCode  int
	errorCode string
	message   string
	details   string
}

// NewBaseError creates a new base error
func NewBaseError(httpCode int, errorCode, message, details string) *BaseError {
	return &BaseError{
		httpCode:  httpCode,
		errorCode: errorCode,
		message:   message,
		details:   details,
	}
}

// Error implements the error interface
func (e *BaseError) Error() string {
	return e.message
}

// WrapMessage wraps the error with additional context message
func (e *BaseError) WrapMessage(message string) error {
	return errors.Wrap(e, message)
}

// HTTPCode returns the HTTP status code
func (e *BaseError) HTTPCode() int {
	return e.httpCode
}

// ErrorCode returns the business error code
func (e *BaseError) ErrorCode() string {
	return e.errorCode
}

// Message returns the user-friendly error message
func (e *BaseError) Message() string {
	return e.message
}

// Details returns detailed error information
func (e *BaseError) Details() string {
	return e.details
}

// WithDetails adds detailed error information
func (e *BaseError) WithDetails(details string) *BaseError {
	return &BaseError{
		httpCode:  e.httpCode,
		errorCode: e.errorCode,
		message:   e.message,
		details:   details,
	}
}

// Predefined error types. Error codes are part of the wire contract with
// existing clients and firmware; do not rename them.
var (
	// Telemetry pipeline errors
	ErrInvalidSignature = NewBaseError(
		http.StatusBadRequest,
		"invalid_signature",
		"payload signature could not be verified",
		"",
	)

	ErrInvalidTrackingData = NewBaseError(
		http.StatusBadRequest,
		"invalid_tracking_data",
		"tracking payload is malformed",
		"",
	)

	ErrInvalidDiagData = NewBaseError(
		http.StatusBadRequest,
		"invalid_diag_data",
		"diagnostics payload is malformed",
		"",
	)

	ErrInvalidFeedbackRequest = NewBaseError(
		http.StatusBadRequest,
		"invalid_feedback_request",
		"feedback payload is malformed",
		"",
	)

	// Lookup errors
	ErrDeviceNotFound = NewBaseError(
		http.StatusNotFound,
		"device_not_found",
		"no device matches the given hardware identifier",
		"",
	)

	ErrFirmwareNotFound = NewBaseError(
		http.StatusNotFound,
		"firmware_not_found",
		"no firmware release found for the given serial",
		"",
	)

	ErrNotFound = NewBaseError(
		http.StatusNotFound,
		"not_found",
		"resource not found",
		"",
	)

	// Local account errors
	ErrEmailAlreadyRegistered = NewBaseError(
		http.StatusBadRequest,
		"email_already_registered",
		"an account already exists for this email",
		"",
	)

	ErrUsernameTaken = NewBaseError(
		http.StatusBadRequest,
		"username_taken",
		"this username is already in use",
		"",
	)

	ErrEmailNotRegistered = NewBaseError(
		http.StatusBadRequest,
		"email_not_registered",
		"no account exists for this email",
		"",
	)

	ErrInvalidPassword = NewBaseError(
		http.StatusBadRequest,
		"invalid_password",
		"password does not match",
		"",
	)

	// OAuth errors
	ErrInvalidState = NewBaseError(
		http.StatusBadRequest,
		"invalid_state",
		"oauth state is unknown or expired",
		"",
	)

	ErrInvalidPlatform = NewBaseError(
		http.StatusBadRequest,
		"invalid_platform",
		"unsupported oauth platform",
		"",
	)

	// Session / authorization errors
	ErrMissingAuthorization = NewBaseError(
		http.StatusForbidden,
		"missing_authorization",
		"no authorization token supplied",
		"",
	)

	ErrInvalidAuthentication = NewBaseError(
		http.StatusForbidden,
		"invalid_authentication",
		"authorization token did not resolve to a session",
		"",
	)

	ErrUserSuspended = NewBaseError(
		http.StatusForbidden,
		"user_suspended",
		"this account is suspended",
		"",
	)

	ErrInvalidPermissions = NewBaseError(
		http.StatusUnauthorized,
		"invalid_permissions",
		"this account lacks the required permissions",
		"",
	)

	// Upstream provider errors
	ErrUpstreamProvider = NewBaseError(
		http.StatusBadGateway,
		"upstream_provider_error",
		"upstream provider request failed",
		"",
	)

	ErrProviderExchangeFailed = NewBaseError(
		http.StatusBadRequest,
		"upstream_provider_error",
		"provider rejected the supplied credentials or code",
		"",
	)

	// Storage errors
	ErrConflict = NewBaseError(
		http.StatusConflict,
		"conflict",
		"resource conflict",
		"",
	)

	ErrTransactionFailed = NewBaseError(
		http.StatusInternalServerError,
		"internal_error",
		"database transaction failed",
		"",
	)

	// General errors
	ErrInternalError = NewBaseError(
		http.StatusInternalServerError,
		"internal_error",
		"internal server error",
		"",
	)
)

// Issue describes a single field-level validation failure.
type Issue struct {
	Path    string `json:"path"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationError carries the full list of field violations so clients can
// correct every field in one round trip.
type ValidationError struct {
	issues []Issue
}

// NewValidationError creates a validation error from field issues
func NewValidationError(issues []Issue) *ValidationError {
	return &ValidationError{issues: issues}
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if len(e.issues) == 0 {
		return "validation failed"
	}

	return "validation failed: " + e.issues[0].Path
}

// HTTPCode returns the HTTP status code
func (e *ValidationError) HTTPCode() int {
	return http.StatusBadRequest
}

// ErrorCode returns the business error code
func (e *ValidationError) ErrorCode() string {
	return "validation_error"
}

// Message returns the user-friendly error message
func (e *ValidationError) Message() string {
	return "validation failed"
}

// Details returns detailed error information
func (e *ValidationError) Details() string {
	return ""
}

// Issues returns every field violation found.
func (e *ValidationError) Issues() []Issue {
	return e.issues
}

// DatabaseExecuteError represents a database execution error, implementing the AppError interface
type DatabaseExecuteError struct {
	err     error
	details string
}

// NewDatabaseExecuteError creates a database-related error
func NewDatabaseExecuteError(err error, details string) AppError {
	return &DatabaseExecuteError{
		err:     err,
		details: details,
	}
}

// Error implements the error interface
func (e *DatabaseExecuteError) Error() string {
	return errors.Wrap(e.err, "database execution failed").Error()
}

// HTTPCode returns the HTTP status code
func (e *DatabaseExecuteError) HTTPCode() int {
	return http.StatusInternalServerError
}

// ErrorCode returns the business error code
func (e *DatabaseExecuteError) ErrorCode() string {
	return "internal_error"
}

// Message returns the user-friendly error message
func (e *DatabaseExecuteError) Message() string {
	return "database execution failed"
}

// Details returns detailed error information
func (e *DatabaseExecuteError) Details() string {
	return e.details
}
