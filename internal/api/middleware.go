package api

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	apperrors "activity-signup/internal/common/errors"
	"activity-signup/internal/common/logger"
	"activity-signup/internal/common/metrics"
	"activity-signup/internal/common/reqctx"
	"activity-signup/internal/ratelimit"

	"github.com/google/uuid"
)

const HeaderRequestID = "X-Request-ID"

// Limiter decides whether a client may perform another mutation.
type Limiter interface {
	Allow(ctx context.Context, client string) (ratelimit.Decision, error)
}

// RequestID propagates or assigns a request id and records the client
// address on the request context.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderRequestID)
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set(HeaderRequestID, id)

		ctx := reqctx.WithRequestID(r.Context(), id)
		ctx = reqctx.WithClient(ctx, ClientKey(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestLogger logs basic request details and latency.
func RequestLogger(next http.Handler, log logger.Logger) http.Handler {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		logger.ForRequest(r.Context(), log).Info("request", map[string]interface{}{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     rec.status,
			"durationMs": time.Since(start).Milliseconds(),
		})
	})
}

// Metrics records request counts and latency per matched route. The
// handlers between it and the ServeMux must pass the request through
// unchanged so the pattern set by the mux is visible afterwards. Requests
// answered before routing are labelled by who answered them.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.Pattern
		switch {
		case route != "":
		case rec.status == http.StatusTooManyRequests:
			route = "rate_limited"
		case r.Method == http.MethodOptions:
			route = "preflight"
		default:
			route = "unmatched"
		}
		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// RateLimit throttles POST and DELETE under /activities/ per client.
// Limiter failures let the request through.
func RateLimit(l Limiter, errs *apperrors.ErrorHandler, log logger.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !isMutation(r) {
			next.ServeHTTP(w, r)
			return
		}

		client := reqctx.Client(r.Context())
		if client == "" {
			client = ClientKey(r)
		}

		d, err := l.Allow(r.Context(), client)
		if err != nil {
			log.Warn("rate limit check failed", map[string]interface{}{
				"error":  err,
				"client": client,
			})
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(d.Limit, 10))
		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(d.Remaining, 10))
		if !d.Allowed {
			metrics.RateLimited.Inc()
			errs.HandleHTTPError(w, r, apperrors.NewRateLimitedError(client, d.RetryAfter))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func isMutation(r *http.Request) bool {
	if r.Method != http.MethodPost && r.Method != http.MethodDelete {
		return false
	}
	return strings.HasPrefix(r.URL.Path, "/activities/")
}

// ClientKey identifies the caller: the first X-Forwarded-For hop when
// present, otherwise the remote IP.
func ClientKey(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// CORS adds basic CORS headers for a configured allow-list.
func CORS(allowedOrigins []string, next http.Handler) http.Handler {
	allowAll := false
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			continue
		}
		if origin == "*" {
			allowAll = true
			continue
		}
		allowed[origin] = struct{}{}
	}
	if !allowAll && len(allowed) == 0 {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			next.ServeHTTP(w, r)
			return
		}

		_, ok := allowed[origin]
		if !allowAll && !ok {
			next.ServeHTTP(w, r)
			return
		}

		if allowAll {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		} else {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
		}

		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+HeaderRequestID)
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
