package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code   ErrorCode
		status int
	}{
		{ErrCodeActivityNotFound, http.StatusNotFound},
		{ErrCodeParticipantNotFound, http.StatusNotFound},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeAlreadySignedUp, http.StatusBadRequest},
		{ErrCodeActivityFull, http.StatusBadRequest},
		{ErrCodeEmailRequired, http.StatusUnprocessableEntity},
		{ErrCodeMethodNotAllowed, http.StatusMethodNotAllowed},
		{ErrCodeRateLimited, http.StatusTooManyRequests},
		{ErrCodeAuditWriteFailed, http.StatusInternalServerError},
		{ErrCodeInternal, http.StatusInternalServerError},
		{ErrorCode("SOMETHING_ELSE"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.status, HTTPStatus(tt.code))
		})
	}
}

func TestConstructors_Messages(t *testing.T) {
	assert.Equal(t, "Activity not found", NewActivityNotFoundError("Chess Club", nil).Message)
	assert.Equal(t, "Participant not found for this activity",
		NewParticipantNotFoundError("Chess Club", "a@x.edu", nil).Message)

	full := NewActivityFullError("tennis", 8, nil)
	assert.Equal(t, ErrCodeActivityFull, full.Code)
	assert.Contains(t, full.Details, "maxParticipants: 8")
	assert.False(t, full.Retryable)

	limited := NewRateLimitedError("10.0.0.1", 30*time.Second)
	assert.True(t, limited.Retryable)
	assert.Equal(t, 30, limited.Metadata["retryAfterSeconds"])
}

func TestNormalize(t *testing.T) {
	domainErr := stderrors.New("activity not found")
	wrapped := fmt.Errorf("signup: %w", NewActivityNotFoundError("x", domainErr))

	got := Normalize(wrapped)
	assert.Equal(t, ErrCodeActivityNotFound, got.Code)
	assert.True(t, stderrors.Is(got, domainErr))
	assert.True(t, stderrors.Is(wrapped, &StandardError{Code: ErrCodeActivityNotFound}))

	plain := Normalize(stderrors.New("boom"))
	assert.Equal(t, ErrCodeInternal, plain.Code)
	assert.Equal(t, "boom", plain.Details)
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "REGISTRY", GetErrorCategory(ErrCodeActivityNotFound))
	assert.Equal(t, "REGISTRY", GetErrorCategory(ErrCodeAlreadySignedUp))
	assert.Equal(t, "REQUEST", GetErrorCategory(ErrCodeEmailRequired))
	assert.Equal(t, "REQUEST", GetErrorCategory(ErrCodeRateLimited))
	assert.Equal(t, "AUDIT", GetErrorCategory(ErrCodeAuditWriteFailed))
	assert.Equal(t, "NOTIFICATION", GetErrorCategory(ErrCodeNotificationSendFailed))
	assert.Equal(t, "CATALOG", GetErrorCategory(ErrCodeCatalogInvalid))
	assert.Equal(t, "OTHER", GetErrorCategory(ErrCodeInternal))
}

type recordingLogger struct {
	warns  []string
	errors []string
}

func (l *recordingLogger) Warn(msg string, _ map[string]interface{})  { l.warns = append(l.warns, msg) }
func (l *recordingLogger) Error(msg string, _ map[string]interface{}) { l.errors = append(l.errors, msg) }

func TestErrorHandler_HandleHTTPError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
		wantWarn   bool
		retryAfter string
	}{
		{
			name:       "activity not found",
			err:        NewActivityNotFoundError("Nope", nil),
			wantStatus: http.StatusNotFound,
			wantBody:   `{"detail":"Activity not found"}`,
			wantWarn:   true,
		},
		{
			name:       "participant not found",
			err:        NewParticipantNotFoundError("Chess Club", "x@y.z", nil),
			wantStatus: http.StatusNotFound,
			wantBody:   `{"detail":"Participant not found for this activity"}`,
			wantWarn:   true,
		},
		{
			name:       "rate limited sets retry-after",
			err:        NewRateLimitedError("1.2.3.4", 42*time.Second),
			wantStatus: http.StatusTooManyRequests,
			wantBody:   `{"detail":"Too many requests"}`,
			wantWarn:   true,
			retryAfter: "42",
		},
		{
			name:       "unknown error",
			err:        stderrors.New("kaput"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"detail":"Internal Server Error"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := &recordingLogger{}
			h := NewErrorHandler(log)
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/activities/x/signup", nil)

			h.HandleHTTPError(rec, req, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.Equal(t, tt.retryAfter, rec.Header().Get("Retry-After"))
			if tt.wantWarn {
				require.Len(t, log.warns, 1)
				assert.Empty(t, log.errors)
			} else {
				require.Len(t, log.errors, 1)
				assert.Empty(t, log.warns)
			}
		})
	}
}
