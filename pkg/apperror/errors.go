// Package apperror defines the closed set of failures the services return.
// Handlers switch on Code, never on message text.
package apperror

import (
	"errors"
	"net/http"
)

type Code string

const (
	CodeValidation               Code = "VALIDATION_ERROR"
	CodeBadRequest               Code = "BAD_REQUEST"
	CodeDuplicateEmail           Code = "DUPLICATE_EMAIL"
	CodeInvalidCredentials       Code = "INVALID_CREDENTIALS"
	CodeAccountDeactivated       Code = "ACCOUNT_DEACTIVATED"
	CodeTokenInvalid             Code = "TOKEN_INVALID"
	CodeTokenExpired             Code = "TOKEN_EXPIRED"
	CodeAccessTokenRequired      Code = "ACCESS_TOKEN_REQUIRED"
	CodeInsufficientPermissions  Code = "INSUFFICIENT_PERMISSIONS"
	CodeUserNotFound             Code = "USER_NOT_FOUND"
	CodeResourceNotFound         Code = "RESOURCE_NOT_FOUND"
	CodeCurrentPasswordIncorrect Code = "CURRENT_PASSWORD_INCORRECT"
	CodeInvalidOrExpiredToken    Code = "INVALID_OR_EXPIRED_TOKEN"
	CodeInvalidVerificationToken Code = "INVALID_VERIFICATION_TOKEN"
	CodeUserNotFoundOrInactive   Code = "USER_NOT_FOUND_OR_INACTIVE"
)

// FieldError is one entry of a validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type Error struct {
	Code    Code
	Message string
	Fields  []FieldError
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches any *Error carrying the same code, so sentinels work with errors.Is
// even when the message was customised.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Validation(fields []FieldError) *Error {
	return &Error{Code: CodeValidation, Message: "Validation errors", Fields: fields}
}

func BadRequest(message string) *Error {
	return New(CodeBadRequest, message)
}

func NotFound(message string) *Error {
	return New(CodeResourceNotFound, message)
}

var (
	ErrDuplicateEmail           = New(CodeDuplicateEmail, "User already exists with this email")
	ErrInvalidCredentials       = New(CodeInvalidCredentials, "Invalid credentials")
	ErrAccountDeactivated       = New(CodeAccountDeactivated, "Account is deactivated")
	ErrTokenInvalid             = New(CodeTokenInvalid, "Invalid token")
	ErrTokenExpired             = New(CodeTokenExpired, "Token expired")
	ErrAccessTokenRequired      = New(CodeAccessTokenRequired, "Access token is required")
	ErrInsufficientPermissions  = New(CodeInsufficientPermissions, "Insufficient permissions")
	ErrUserNotFound             = New(CodeUserNotFound, "User not found")
	ErrResourceNotFound         = New(CodeResourceNotFound, "Resource not found")
	ErrCurrentPasswordIncorrect = New(CodeCurrentPasswordIncorrect, "Current password is incorrect")
	ErrInvalidOrExpiredToken    = New(CodeInvalidOrExpiredToken, "Invalid or expired reset token")
	ErrInvalidVerificationToken = New(CodeInvalidVerificationToken, "Invalid verification token")
	ErrUserNotFoundOrInactive   = New(CodeUserNotFoundOrInactive, "User not found or inactive")
)

// As returns the *Error wrapped in err, if any.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HTTPStatus maps a code to the status the API answers with.
func HTTPStatus(code Code) int {
	switch code {
	case CodeValidation, CodeBadRequest, CodeCurrentPasswordIncorrect,
		CodeInvalidOrExpiredToken, CodeInvalidVerificationToken:
		return http.StatusBadRequest
	case CodeDuplicateEmail:
		return http.StatusConflict
	case CodeInvalidCredentials, CodeAccountDeactivated, CodeTokenInvalid,
		CodeTokenExpired, CodeAccessTokenRequired, CodeUserNotFoundOrInactive:
		return http.StatusUnauthorized
	case CodeInsufficientPermissions:
		return http.StatusForbidden
	case CodeUserNotFound, CodeResourceNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
