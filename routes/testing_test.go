package routes

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/rosterlab/shift-survey/app"
	"github.com/rosterlab/shift-survey/config"
	"github.com/rosterlab/shift-survey/database"
	"github.com/rosterlab/shift-survey/model"
	"github.com/stretchr/testify/require"
)

// newTestApp opens a fresh in-memory database, runs the real migrations and
// wires the full router, so tests exercise the same stack as production.
func newTestApp(t *testing.T) (app.App, http.Handler) {
	t.Helper()

	cfg := config.Config{
		DBUrl:      "file:" + uuid.NewString() + "?mode=memory&cache=shared",
		CORSOrigin: "*",
	}
	db, err := database.Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	a := app.App{DB: db, Config: cfg}
	return a, Wire(a)
}

func doRequest(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(w.Body).Decode(v), "response body: %s", w.Body.String())
}

func testHoliday(name, date string, staffNeeded int) model.Holiday {
	return model.Holiday{
		ID:          uuid.NewString(),
		Name:        name,
		Date:        date,
		StaffNeeded: staffNeeded,
	}
}

// createTestSurvey creates a survey through the API and returns its id, admin
// token and the holidays it was created with.
func createTestSurvey(t *testing.T, handler http.Handler, holidays ...model.Holiday) (surveyId, adminToken string, created []model.Holiday) {
	t.Helper()

	if len(holidays) == 0 {
		holidays = []model.Holiday{testHoliday("Christmas", "2025-12-25", 2)}
	}

	w := doRequest(t, handler, http.MethodPost, "/api/survey/create", model.CreateSurveyRequest{
		Title:    "Holiday Cover 2025",
		OrgName:  "Mercy Hospital",
		Holidays: holidays,
	})
	require.Equal(t, http.StatusCreated, w.Code, "body: %s", w.Body.String())

	var resp struct {
		SurveyID   string `json:"survey_id"`
		AdminToken string `json:"admin_token"`
	}
	decodeBody(t, w, &resp)
	require.NotEmpty(t, resp.SurveyID)
	require.NotEmpty(t, resp.AdminToken)

	return resp.SurveyID, resp.AdminToken, holidays
}

// submitTestPreferences records one participant submission through the API.
func submitTestPreferences(t *testing.T, handler http.Handler, surveyId, name, email string, prefs []model.Preference) *httptest.ResponseRecorder {
	t.Helper()

	return doRequest(t, handler, http.MethodPost, "/api/survey/"+surveyId+"/submit", model.SubmitPreferencesRequest{
		Name:        name,
		Email:       email,
		Preferences: prefs,
	})
}
