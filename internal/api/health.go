package api

import (
	"context"
	"net/http"
	"time"
)

const readinessTimeout = 2 * time.Second

// ReadinessCheck is a dependency that must answer before the server is ready.
type ReadinessCheck interface {
	Name() string
	Ping(ctx context.Context) error
}

type healthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

type readyResponse struct {
	Status string   `json:"status"`
	Failed []string `json:"failed,omitempty"`
}

// HealthHandler reports basic liveness for the service.
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status: "healthy",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// ReadyHandler pings every check and answers 503 listing the ones that failed.
func ReadyHandler(checks []ReadinessCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		var failed []string
		for _, c := range checks {
			if err := c.Ping(ctx); err != nil {
				failed = append(failed, c.Name())
			}
		}

		if len(failed) > 0 {
			writeJSON(w, http.StatusServiceUnavailable, readyResponse{Status: "not ready", Failed: failed})
			return
		}
		writeJSON(w, http.StatusOK, readyResponse{Status: "ready"})
	}
}
