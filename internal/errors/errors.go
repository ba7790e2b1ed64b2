// Package errors provides custom error types for the In Touch API.
// All service-layer errors should use AppError to ensure consistent,
// secure error responses that never leak internal details to clients.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// Authentication errors. Credential failures are deliberately generic so the
// API never confirms whether an email is registered.
var (
	ErrUnauthorized       = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid email or password", StatusCode: http.StatusUnauthorized}
	ErrInvalidToken       = &AppError{Code: "INVALID_TOKEN", Message: "Invalid or expired token", StatusCode: http.StatusUnauthorized}
	ErrMissingToken       = &AppError{Code: "MISSING_TOKEN", Message: "Missing access token", StatusCode: http.StatusUnauthorized}
	ErrMissingRefresh     = &AppError{Code: "MISSING_REFRESH_TOKEN", Message: "Missing refresh token", StatusCode: http.StatusUnauthorized}
	ErrInvalidCSRF        = &AppError{Code: "INVALID_CSRF_TOKEN", Message: "Invalid or missing CSRF token", StatusCode: http.StatusForbidden}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// User and verification errors.
var (
	ErrUserNotFound       = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
	ErrEmailTaken         = &AppError{Code: "EMAIL_TAKEN", Message: "Email already in use", StatusCode: http.StatusBadRequest}
	ErrUsernameTaken      = &AppError{Code: "USERNAME_TAKEN", Message: "Username already in use", StatusCode: http.StatusBadRequest}
	ErrNoVerifyToken      = &AppError{Code: "NO_VERIFICATION_TOKEN", Message: "No verification token found. Please request a new one.", StatusCode: http.StatusBadRequest}
	ErrVerifyTokenExpired = &AppError{Code: "VERIFICATION_TOKEN_EXPIRED", Message: "Token has expired. Please request a new one.", StatusCode: http.StatusBadRequest}
	ErrVerifyTokenInvalid = &AppError{Code: "VERIFICATION_TOKEN_INVALID", Message: "Invalid verification token", StatusCode: http.StatusBadRequest}
	ErrResetTokenExpired  = &AppError{Code: "RESET_TOKEN_EXPIRED", Message: "Reset link has expired", StatusCode: http.StatusBadRequest}
	ErrResetTokenInvalid  = &AppError{Code: "RESET_TOKEN_INVALID", Message: "Invalid reset token", StatusCode: http.StatusBadRequest}
)

// Connection errors.
var (
	ErrConnectionNotFound = &AppError{Code: "CONNECTION_NOT_FOUND", Message: "Connection not found", StatusCode: http.StatusNotFound}
)
