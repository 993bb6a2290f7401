package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"activity-signup/internal/activities"
	"activity-signup/internal/common/logger"
	"activity-signup/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedActivities() map[string]models.Activity {
	return map[string]models.Activity{
		"Chess Club": {
			Description:     "Learn strategies and compete in chess tournaments",
			Schedule:        "Fridays, 3:30 PM - 5:00 PM",
			MaxParticipants: 12,
			Participants:    []string{"michael@mergington.edu", "daniel@mergington.edu"},
		},
		"tennis": {
			Description:     "Tennis lessons and matches",
			MaxParticipants: 8,
			Participants:    []string{},
		},
	}
}

func newTestRouter(t *testing.T, staticDir string) http.Handler {
	t.Helper()
	log := logger.NewTestLogger(t)
	svc := activities.NewService(activities.New(seedActivities()), log)
	return NewRouter(Deps{Service: svc, Logger: log, StaticDir: staticDir})
}

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestListActivities(t *testing.T) {
	h := newTestRouter(t, "")

	rec := do(t, h, http.MethodGet, "/activities")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got map[string]models.Activity
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Len(t, got, 2)
	assert.Equal(t, 12, got["Chess Club"].MaxParticipants)
	assert.Contains(t, got["Chess Club"].Participants, "michael@mergington.edu")

	var raw map[string]map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	assert.Contains(t, raw["Chess Club"], "max_participants")
	assert.NotContains(t, raw["tennis"], "schedule")
	assert.Equal(t, []interface{}{}, raw["tennis"]["participants"])
}

func TestSignupAndUnregister(t *testing.T) {
	h := newTestRouter(t, "")

	rec := do(t, h, http.MethodPost, "/activities/Chess%20Club/signup?email=new@mergington.edu")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Signed up new@mergington.edu for Chess Club", decodeBody(t, rec)["message"])

	rec = do(t, h, http.MethodGet, "/activities")
	assert.Contains(t, rec.Body.String(), "new@mergington.edu")

	rec = do(t, h, http.MethodDelete, "/activities/Chess%20Club/signup?email=new@mergington.edu")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Removed new@mergington.edu from Chess Club", decodeBody(t, rec)["message"])

	rec = do(t, h, http.MethodGet, "/activities")
	assert.NotContains(t, rec.Body.String(), "new@mergington.edu")
}

func TestSignupErrors(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		target     string
		wantStatus int
		wantDetail string
	}{
		{
			name:       "signup unknown activity",
			method:     http.MethodPost,
			target:     "/activities/Underwater%20Basket%20Weaving/signup?email=a@mergington.edu",
			wantStatus: http.StatusNotFound,
			wantDetail: "Activity not found",
		},
		{
			name:       "unregister unknown activity",
			method:     http.MethodDelete,
			target:     "/activities/NotARealActivity/signup?email=a@mergington.edu",
			wantStatus: http.StatusNotFound,
			wantDetail: "Activity not found",
		},
		{
			name:       "unregister absent participant",
			method:     http.MethodDelete,
			target:     "/activities/tennis/signup?email=ghost@mergington.edu",
			wantStatus: http.StatusNotFound,
			wantDetail: "Participant not found for this activity",
		},
		{
			name:       "missing email",
			method:     http.MethodPost,
			target:     "/activities/tennis/signup",
			wantStatus: http.StatusUnprocessableEntity,
			wantDetail: "email query parameter is required",
		},
		{
			name:       "wrong method",
			method:     http.MethodGet,
			target:     "/activities/tennis/signup?email=a@mergington.edu",
			wantStatus: http.StatusMethodNotAllowed,
			wantDetail: "Method Not Allowed",
		},
		{
			name:       "unknown path",
			method:     http.MethodGet,
			target:     "/nope",
			wantStatus: http.StatusNotFound,
			wantDetail: "Not Found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestRouter(t, "")
			rec := do(t, h, tt.method, tt.target)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantDetail, decodeBody(t, rec)["detail"])
		})
	}
}

func TestSignup_EmptyEmailAccepted(t *testing.T) {
	h := newTestRouter(t, "")

	rec := do(t, h, http.MethodPost, "/activities/tennis/signup?email=")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Signed up  for tennis", decodeBody(t, rec)["message"])
}

func TestMethodNotAllowed_SetsAllow(t *testing.T) {
	h := newTestRouter(t, "")

	rec := do(t, h, http.MethodPut, "/activities/tennis/signup?email=a@mergington.edu")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "DELETE, POST", rec.Header().Get("Allow"))
}

func TestRootRedirect(t *testing.T) {
	h := newTestRouter(t, "")

	rec := do(t, h, http.MethodGet, "/")
	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, "/static/index.html", rec.Header().Get("Location"))
}

func TestStaticFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>Mergington High School</h1>"), 0o644))

	h := newTestRouter(t, dir)

	rec := do(t, h, http.MethodGet, "/static/index.html")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Mergington High School")
}

type failingService struct{}

func (failingService) ListActivities(context.Context) map[string]models.Activity {
	return map[string]models.Activity{}
}

func (failingService) Signup(context.Context, string, string) (*models.SignupEvent, error) {
	return nil, errors.New("boom")
}

func (failingService) Unregister(context.Context, string, string) (*models.SignupEvent, error) {
	return nil, errors.New("boom")
}

func TestSignup_UnexpectedErrorIs500(t *testing.T) {
	h := NewRouter(Deps{Service: failingService{}, Logger: logger.NewTestLogger(t)})

	rec := do(t, h, http.MethodPost, "/activities/tennis/signup?email=a@mergington.edu")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal Server Error", decodeBody(t, rec)["detail"])
}
