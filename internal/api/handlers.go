package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	apperrors "activity-signup/internal/common/errors"
	"activity-signup/internal/common/logger"
	"activity-signup/internal/models"
)

// ActivityService is what the handlers need from the registry service.
type ActivityService interface {
	ListActivities(ctx context.Context) map[string]models.Activity
	Signup(ctx context.Context, name, email string) (*models.SignupEvent, error)
	Unregister(ctx context.Context, name, email string) (*models.SignupEvent, error)
}

// MessageResponse is the body of a successful signup or unregister.
type MessageResponse struct {
	Message string `json:"message"`
}

type Handlers struct {
	svc    ActivityService
	errs   *apperrors.ErrorHandler
	logger logger.Logger
}

func NewHandlers(svc ActivityService, log logger.Logger) *Handlers {
	return &Handlers{
		svc:    svc,
		errs:   apperrors.NewErrorHandler(log),
		logger: log,
	}
}

// ListActivities serves GET /activities.
func (h *Handlers) ListActivities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.ListActivities(r.Context()))
}

// Signup serves POST /activities/{name}/signup?email=.
func (h *Handlers) Signup(w http.ResponseWriter, r *http.Request) {
	name, email, ok := h.signupParams(w, r)
	if !ok {
		return
	}

	if _, err := h.svc.Signup(r.Context(), name, email); err != nil {
		h.errs.HandleHTTPError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{
		Message: fmt.Sprintf("Signed up %s for %s", email, name),
	})
}

// Unregister serves DELETE /activities/{name}/signup?email=.
func (h *Handlers) Unregister(w http.ResponseWriter, r *http.Request) {
	name, email, ok := h.signupParams(w, r)
	if !ok {
		return
	}

	if _, err := h.svc.Unregister(r.Context(), name, email); err != nil {
		h.errs.HandleHTTPError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{
		Message: fmt.Sprintf("Removed %s from %s", email, name),
	})
}

// signupParams reads the activity name and the required email query
// parameter. An empty email is accepted; only a missing one is rejected.
func (h *Handlers) signupParams(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	query := r.URL.Query()
	if !query.Has("email") {
		h.errs.HandleHTTPError(w, r, apperrors.NewEmailRequiredError())
		return "", "", false
	}
	return r.PathValue("name"), query.Get("email"), true
}

// RootRedirect sends GET / to the static front page.
func RootRedirect(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/static/index.html", http.StatusTemporaryRedirect)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	payload, err := json.Marshal(v)
	if err != nil {
		apperrors.WriteJSONError(w, http.StatusInternalServerError, apperrors.DetailInternal)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}
