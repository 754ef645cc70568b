// Package errors carries the typed failures of the API. Every error that
// reaches the HTTP boundary is an *AppError whose Code is the
// machine-readable kind written to the response body.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"
)

// ErrorCode is the machine-readable error kind
type ErrorCode string

const (
	CodeValidation      ErrorCode = "ValidationError"
	CodeUnauthorized    ErrorCode = "Unauthorized"
	CodeForbidden       ErrorCode = "Forbidden"
	CodeNotFound        ErrorCode = "NotFound"
	CodeConflict        ErrorCode = "Conflict"
	CodeTooManyRequests ErrorCode = "TooManyRequests"
	CodeInternal        ErrorCode = "InternalServerError"
)

var statusByCode = map[ErrorCode]int{
	CodeValidation:      http.StatusBadRequest,
	CodeUnauthorized:    http.StatusUnauthorized,
	CodeForbidden:       http.StatusForbidden,
	CodeNotFound:        http.StatusNotFound,
	CodeConflict:        http.StatusConflict,
	CodeTooManyRequests: http.StatusTooManyRequests,
}

// Status maps the kind to an HTTP status; unknown kinds are 500
func (c ErrorCode) Status() int {
	if s, ok := statusByCode[c]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// AppError is a failure with a kind, a client-safe message and optional
// per-field details. Metadata and Cause are logged, never serialised.
type AppError struct {
	Code       ErrorCode              `json:"error"`
	Message    string                 `json:"message"`
	Details    []string               `json:"details,omitempty"`
	Metadata   map[string]interface{} `json:"-"`
	Cause      error                  `json:"-"`
	StackTrace string                 `json:"-"`
}

func (e *AppError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	b.WriteString(": ")
	b.WriteString(e.Message)
	if len(e.Details) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(e.Details, "; "))
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

func (e *AppError) Unwrap() error { return e.Cause }

// StatusCode returns the HTTP status matching the error kind
func (e *AppError) StatusCode() int { return e.Code.Status() }

// WithMetadata records a key for the server log
func (e *AppError) WithMetadata(key string, value interface{}) *AppError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{}, 2)
	}
	e.Metadata[key] = value
	return e
}

// WithCause attaches the underlying error
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// NewAppError creates an error of kind code. The stack is captured only
// for internal errors, the only kind that gets logged with one.
func NewAppError(code ErrorCode, message string, details ...string) *AppError {
	e := &AppError{Code: code, Message: message, Details: details}
	if code == CodeInternal {
		e.StackTrace = callers()
	}
	return e
}

// NewValidationError creates a validation error carrying per-field messages
func NewValidationError(details ...string) *AppError {
	return NewAppError(CodeValidation, "Validation failed", details...)
}

// NewBadRequestError is a validation error for a malformed request
func NewBadRequestError(message string) *AppError {
	return NewAppError(CodeValidation, message)
}

func NewUnauthorizedError(message string) *AppError {
	return NewAppError(CodeUnauthorized, orDefault(message, "Authentication required"))
}

// NewInvalidCredentialsError is returned for any failed login, whichever
// half of the credentials was wrong
func NewInvalidCredentialsError() *AppError {
	return NewAppError(CodeUnauthorized, "Invalid credentials")
}

func NewForbiddenError(message string) *AppError {
	return NewAppError(CodeForbidden, orDefault(message, "Access forbidden"))
}

// NewInsufficientPermissionsError is a forbidden error for an ownership check
func NewInsufficientPermissionsError(action string) *AppError {
	return NewAppError(CodeForbidden, "You do not have permission to "+action).
		WithMetadata("action", action)
}

// NewNotFoundError names the missing resource in the message; an empty
// resource gives a generic message
func NewNotFoundError(resource string) *AppError {
	if resource == "" {
		return NewAppError(CodeNotFound, "Resource not found")
	}
	return NewAppError(CodeNotFound, capitalize(resource)+" not found").
		WithMetadata("resource", resource)
}

func NewConflictError(message string) *AppError {
	return NewAppError(CodeConflict, message)
}

func NewUsernameAlreadyExistsError(username string) *AppError {
	return NewConflictError("Username already exists").WithMetadata("username", username)
}

func NewEmailAlreadyExistsError(email string) *AppError {
	return NewConflictError("Email already exists").WithMetadata("email", email)
}

func NewTooManyRequestsError() *AppError {
	return NewAppError(CodeTooManyRequests, "Too many requests")
}

func NewInternalError(message string) *AppError {
	return NewAppError(CodeInternal, orDefault(message, "An unexpected error occurred"))
}

// NewDatabaseError hides a failed store operation behind an internal error
func NewDatabaseError(operation string, cause error) *AppError {
	return NewInternalError("Database operation failed").
		WithMetadata("operation", operation).
		WithCause(cause)
}

// Wrap returns err unchanged when it already is an AppError, otherwise an
// internal error with message
func Wrap(err error, message string) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return NewInternalError(message).WithCause(err)
}

// Is reports whether err is an AppError of kind code
func Is(err error, code ErrorCode) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr) && appErr.Code == code
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func callers() string {
	var pcs [32]uintptr
	n := runtime.Callers(3, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	var b strings.Builder
	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "pkg/errors") {
			fmt.Fprintf(&b, "%s:%d %s\n", frame.File, frame.Line, frame.Function)
		}
		if !more {
			break
		}
	}
	return b.String()
}

// ValidationError is one failed field rule
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

// ValidationErrors keeps field failures in the order they were found
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "validation failed"
	}
	return strings.Join(v.Messages(), "; ")
}

// Messages returns the per-field messages in order
func (v ValidationErrors) Messages() []string {
	messages := make([]string, 0, len(v))
	for _, err := range v {
		messages = append(messages, err.Message)
	}
	return messages
}

// NewValidationErrors creates a validation AppError from field errors
func NewValidationErrors(errs []ValidationError) *AppError {
	v := ValidationErrors(errs)
	return NewValidationError(v.Messages()...).WithMetadata("validation_errors", v)
}

// ErrorResponse is the JSON body written for every failed request
type ErrorResponse struct {
	Error     ErrorCode `json:"error"`
	Message   string    `json:"message"`
	Details   []string  `json:"details,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
}

// ToErrorResponse renders err for the client. Internal errors never
// expose details.
func ToErrorResponse(err *AppError, requestID string) ErrorResponse {
	resp := ErrorResponse{
		Error:     err.Code,
		Message:   err.Message,
		Details:   err.Details,
		RequestID: requestID,
	}
	if err.Code == CodeInternal {
		resp.Details = nil
	}
	return resp
}
