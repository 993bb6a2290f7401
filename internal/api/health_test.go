package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"activity-signup/internal/common/logger"
	"activity-signup/internal/ratelimit"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCheck struct {
	name string
	err  error
}

func (f fakeCheck) Name() string               { return f.name }
func (f fakeCheck) Ping(context.Context) error { return f.err }

func TestHealthHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	HealthHandler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body.Status)
	assert.NotEmpty(t, body.Time)
}

func TestReadyHandler(t *testing.T) {
	tests := []struct {
		name       string
		checks     []ReadinessCheck
		wantStatus int
		wantFailed []string
	}{
		{
			name:       "no checks",
			wantStatus: http.StatusOK,
		},
		{
			name:       "all healthy",
			checks:     []ReadinessCheck{fakeCheck{name: "redis"}, fakeCheck{name: "postgres"}},
			wantStatus: http.StatusOK,
		},
		{
			name: "redis down",
			checks: []ReadinessCheck{
				fakeCheck{name: "redis", err: errors.New("connection refused")},
				fakeCheck{name: "postgres"},
			},
			wantStatus: http.StatusServiceUnavailable,
			wantFailed: []string{"redis"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			ReadyHandler(tt.checks)(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body readyResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantFailed, body.Failed)
		})
	}
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	h := NewRouter(Deps{
		Service:        failingService{},
		Logger:         logger.NewTestLogger(t),
		MetricsHandler: promhttp.Handler(),
	})

	_ = do(t, h, http.MethodGet, "/activities")
	rec := do(t, h, http.MethodGet, "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "signup_http_requests_total")
	assert.Contains(t, rec.Body.String(), `route="/activities"`)
}

func TestRouter_MetricsCountRequestsAnsweredBeforeRouting(t *testing.T) {
	h := NewRouter(Deps{
		Service:        failingService{},
		Logger:         logger.NewTestLogger(t),
		CORSOrigins:    []string{"http://localhost:5173"},
		Limiter:        &stubLimiter{decision: ratelimit.Decision{Allowed: false, Limit: 1, RetryAfter: time.Second}},
		MetricsHandler: promhttp.Handler(),
	})

	rec := do(t, h, http.MethodPost, "/activities/tennis/signup?email=a@mergington.edu")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	req := httptest.NewRequest(http.MethodOptions, "/activities/tennis/signup", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodDelete)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	body := do(t, h, http.MethodGet, "/metrics").Body.String()
	assert.Contains(t, body, `signup_http_requests_total{method="POST",route="rate_limited",status="429"}`)
	assert.Contains(t, body, `signup_http_requests_total{method="OPTIONS",route="preflight",status="204"}`)
}
