// Package errors provides standardized error handling for the signup API.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeActivityNotFound    ErrorCode = "ACTIVITY_NOT_FOUND"
	ErrCodeParticipantNotFound ErrorCode = "PARTICIPANT_NOT_FOUND"
	ErrCodeAlreadySignedUp     ErrorCode = "ALREADY_SIGNED_UP"
	ErrCodeActivityFull        ErrorCode = "ACTIVITY_FULL"

	ErrCodeEmailRequired    ErrorCode = "EMAIL_REQUIRED"
	ErrCodeNotFound         ErrorCode = "NOT_FOUND"
	ErrCodeMethodNotAllowed ErrorCode = "METHOD_NOT_ALLOWED"
	ErrCodeRateLimited      ErrorCode = "RATE_LIMITED"

	ErrCodeAuditWriteFailed       ErrorCode = "AUDIT_WRITE_FAILED"
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeCatalogInvalid         ErrorCode = "CATALOG_INVALID"
	ErrCodeInternal               ErrorCode = "INTERNAL_ERROR"
)

// Detail strings returned to API callers. The two not-found messages are
// part of the public contract.
const (
	DetailActivityNotFound    = "Activity not found"
	DetailParticipantNotFound = "Participant not found for this activity"
	DetailAlreadySignedUp     = "Student is already signed up"
	DetailActivityFull        = "Activity is full"
	DetailEmailRequired       = "email query parameter is required"
	DetailNotFound            = "Not Found"
	DetailMethodNotAllowed    = "Method Not Allowed"
	DetailRateLimited         = "Too many requests"
	DetailInternal            = "Internal Server Error"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause, if any.
func (e *StandardError) Unwrap() error {
	return e.cause
}

// Is matches another *StandardError with the same code.
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithMetadata returns e with key set in Metadata.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

func newError(code ErrorCode, message, details string, retryable bool, cause error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// ==========================
// 2. Error Constructors
// ==========================

// NewActivityNotFoundError is returned when the named activity is not registered.
func NewActivityNotFoundError(activity string, cause error) *StandardError {
	return newError(ErrCodeActivityNotFound, DetailActivityNotFound,
		fmt.Sprintf("activity: %s", activity), false, cause)
}

// NewParticipantNotFoundError is returned when unregistering an email that is not signed up.
func NewParticipantNotFoundError(activity, email string, cause error) *StandardError {
	return newError(ErrCodeParticipantNotFound, DetailParticipantNotFound,
		fmt.Sprintf("activity: %s, email: %s", activity, email), false, cause)
}

func NewAlreadySignedUpError(activity, email string, cause error) *StandardError {
	return newError(ErrCodeAlreadySignedUp, DetailAlreadySignedUp,
		fmt.Sprintf("activity: %s, email: %s", activity, email), false, cause)
}

func NewActivityFullError(activity string, capacity int, cause error) *StandardError {
	return newError(ErrCodeActivityFull, DetailActivityFull,
		fmt.Sprintf("activity: %s, maxParticipants: %d", activity, capacity), false, cause)
}

func NewEmailRequiredError() *StandardError {
	return newError(ErrCodeEmailRequired, DetailEmailRequired, "", false, nil)
}

func NewNotFoundError(path string) *StandardError {
	return newError(ErrCodeNotFound, DetailNotFound, fmt.Sprintf("path: %s", path), false, nil)
}

func NewMethodNotAllowedError(method, path string) *StandardError {
	return newError(ErrCodeMethodNotAllowed, DetailMethodNotAllowed,
		fmt.Sprintf("method: %s, path: %s", method, path), false, nil)
}

// NewRateLimitedError is retryable once the window resets.
func NewRateLimitedError(client string, retryAfter time.Duration) *StandardError {
	return newError(ErrCodeRateLimited, DetailRateLimited,
		fmt.Sprintf("client: %s", client), true, nil).
		WithMetadata("retryAfterSeconds", int(retryAfter.Seconds()))
}

func NewAuditWriteFailedError(err error) *StandardError {
	return newError(ErrCodeAuditWriteFailed, "Audit event write failed", err.Error(), true, err)
}

func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return newError(ErrCodeNotificationSendFailed, "Notification delivery failed",
		fmt.Sprintf("channel: %s, error: %s", channel, err.Error()), true, err)
}

func NewCatalogInvalidError(details string) *StandardError {
	return newError(ErrCodeCatalogInvalid, "Activity catalog is invalid", details, false, nil)
}

func NewInternalError(err error) *StandardError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return newError(ErrCodeInternal, DetailInternal, details, false, err)
}

// ==========================
// 3. HTTP Mapping
// ==========================

// HTTPStatus maps an error code to the response status.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeActivityNotFound, ErrCodeParticipantNotFound, ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeAlreadySignedUp, ErrCodeActivityFull:
		return http.StatusBadRequest
	case ErrCodeEmailRequired:
		return http.StatusUnprocessableEntity
	case ErrCodeMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case ErrCodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Normalize ensures we always have a StandardError.
func Normalize(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return NewInternalError(err)
}

// ==========================
// 4. Utility Functions
// ==========================

// IsClientError reports whether the code maps to a 4xx status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatus(code)
	return status >= 400 && status < 500
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "ACTIVITY") || strings.Contains(codeStr, "PARTICIPANT") || strings.Contains(codeStr, "SIGNED_UP"):
		return "REGISTRY"
	case strings.Contains(codeStr, "AUDIT"):
		return "AUDIT"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "CATALOG"):
		return "CATALOG"
	case strings.Contains(codeStr, "REQUIRED") || strings.Contains(codeStr, "NOT_FOUND") ||
		strings.Contains(codeStr, "NOT_ALLOWED") || strings.Contains(codeStr, "RATE"):
		return "REQUEST"
	default:
		return "OTHER"
	}
}
