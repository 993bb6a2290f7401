package api

import (
	"net/http"
	"sort"
	"strings"

	apperrors "activity-signup/internal/common/errors"
	"activity-signup/internal/common/logger"
)

// Deps are the collaborators wired into the router.
type Deps struct {
	Service        ActivityService
	Logger         logger.Logger
	StaticDir      string
	CORSOrigins    []string
	Limiter        Limiter
	Checks         []ReadinessCheck
	MetricsHandler http.Handler
}

// NewRouter builds the full handler chain: request id, request logging,
// CORS, rate limiting and metrics around the route table.
func NewRouter(d Deps) http.Handler {
	log := d.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	h := NewHandlers(d.Service, log)
	errs := apperrors.NewErrorHandler(log)

	mux := http.NewServeMux()
	mux.Handle("/activities", methods(errs, map[string]http.HandlerFunc{
		http.MethodGet: h.ListActivities,
	}))
	mux.Handle("/activities/{name}/signup", methods(errs, map[string]http.HandlerFunc{
		http.MethodPost:   h.Signup,
		http.MethodDelete: h.Unregister,
	}))
	mux.Handle("/health", methods(errs, map[string]http.HandlerFunc{
		http.MethodGet: HealthHandler,
	}))
	mux.Handle("/ready", methods(errs, map[string]http.HandlerFunc{
		http.MethodGet: ReadyHandler(d.Checks),
	}))
	if d.MetricsHandler != nil {
		mux.Handle("/metrics", methods(errs, map[string]http.HandlerFunc{
			http.MethodGet: d.MetricsHandler.ServeHTTP,
		}))
	}
	if d.StaticDir != "" {
		mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(d.StaticDir))))
	}
	mux.Handle("/", rootHandler(errs))

	var handler http.Handler = mux
	if d.Limiter != nil {
		handler = RateLimit(d.Limiter, errs, log, handler)
	}
	handler = CORS(d.CORSOrigins, handler)
	handler = Metrics(handler)
	handler = RequestLogger(handler, log)
	handler = RequestID(handler)
	return handler
}

// rootHandler serves the redirect at "/" and a JSON 404 for any other
// unmatched path.
func rootHandler(errs *apperrors.ErrorHandler) http.Handler {
	root := methods(errs, map[string]http.HandlerFunc{
		http.MethodGet: RootRedirect,
	})
	notFound := NotFoundHandler(errs)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			root.ServeHTTP(w, r)
			return
		}
		notFound.ServeHTTP(w, r)
	})
}

// NotFoundHandler returns a JSON 404 response for unknown routes.
func NotFoundHandler(errs *apperrors.ErrorHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		errs.HandleHTTPError(w, r, apperrors.NewNotFoundError(r.URL.Path))
	})
}

// methods dispatches on the request method and answers anything else with
// a JSON 405 and an Allow header.
func methods(errs *apperrors.ErrorHandler, handlers map[string]http.HandlerFunc) http.Handler {
	allowed := make([]string, 0, len(handlers))
	for m := range handlers {
		allowed = append(allowed, m)
	}
	sort.Strings(allowed)
	allow := strings.Join(allowed, ", ")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fn, ok := handlers[r.Method]; ok {
			fn(w, r)
			return
		}
		w.Header().Set("Allow", allow)
		errs.HandleHTTPError(w, r, apperrors.NewMethodNotAllowedError(r.Method, r.URL.Path))
	})
}
