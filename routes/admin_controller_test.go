package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/rosterlab/shift-survey/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type configResponse struct {
	Message string             `json:"message"`
	Config  model.SurveyConfig `json:"config"`
}

func patchConfig(t *testing.T, handler http.Handler, surveyId string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return doRequest(t, handler, http.MethodPatch, "/api/survey/"+surveyId+"/config", body)
}

func TestUpdateConfigStaffNeeded(t *testing.T) {
	_, handler := newTestApp(t)
	surveyId, token, holidays := createTestSurvey(t, handler,
		testHoliday("Christmas", "2025-12-25", 2),
		testHoliday("New Year", "2026-01-01", 3),
	)

	t.Run("patches only matching ids, ignores unmatched", func(t *testing.T) {
		w := patchConfig(t, handler, surveyId, model.UpdateConfigRequest{
			Token: token,
			Holidays: []model.HolidayStaffPatch{
				{ID: holidays[0].ID, StaffNeeded: 5},
				{ID: uuid.NewString(), StaffNeeded: 9}, // unknown id: silently ignored
			},
		})
		require.Equal(t, http.StatusOK, w.Code, "body: %s", w.Body.String())

		var resp configResponse
		decodeBody(t, w, &resp)
		require.Len(t, resp.Config.Holidays, 2)
		assert.Equal(t, 5, resp.Config.Holidays[0].StaffNeeded)
		assert.Equal(t, 3, resp.Config.Holidays[1].StaffNeeded, "unmatched holiday must be unchanged")
	})

	t.Run("staff_needed out of range is 400", func(t *testing.T) {
		w := patchConfig(t, handler, surveyId, model.UpdateConfigRequest{
			Token:    token,
			Holidays: []model.HolidayStaffPatch{{ID: holidays[0].ID, StaffNeeded: 101}},
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("allowed after submissions exist", func(t *testing.T) {
		w := submitTestPreferences(t, handler, surveyId, "Dana Smith", "dana@example.com",
			[]model.Preference{{HolidayID: holidays[0].ID, Rank: 1}})
		require.Equal(t, http.StatusCreated, w.Code)

		w = patchConfig(t, handler, surveyId, model.UpdateConfigRequest{
			Token:    token,
			Holidays: []model.HolidayStaffPatch{{ID: holidays[1].ID, StaffNeeded: 7}},
		})
		require.Equal(t, http.StatusOK, w.Code, "body: %s", w.Body.String())

		var resp configResponse
		decodeBody(t, w, &resp)
		assert.Equal(t, 7, resp.Config.Holidays[1].StaffNeeded)
	})
}

func TestAddHolidays(t *testing.T) {
	t.Run("appends preserving order while survey has no participants", func(t *testing.T) {
		_, handler := newTestApp(t)
		a := testHoliday("Christmas", "2025-12-25", 2)
		surveyId, token, _ := createTestSurvey(t, handler, a)

		b := testHoliday("New Year", "2026-01-01", 3)
		w := patchConfig(t, handler, surveyId, model.AddHolidaysRequest{
			Token:       token,
			NewHolidays: []model.Holiday{b},
		})
		require.Equal(t, http.StatusOK, w.Code, "body: %s", w.Body.String())

		var resp configResponse
		decodeBody(t, w, &resp)
		assert.Equal(t, []model.Holiday{a, b}, resp.Config.Holidays)
	})

	t.Run("rejected once a participant has submitted", func(t *testing.T) {
		_, handler := newTestApp(t)
		a := testHoliday("Christmas", "2025-12-25", 2)
		surveyId, token, _ := createTestSurvey(t, handler, a)

		w := submitTestPreferences(t, handler, surveyId, "Dana Smith", "dana@example.com",
			[]model.Preference{{HolidayID: a.ID, Rank: 1}})
		require.Equal(t, http.StatusCreated, w.Code)

		w = patchConfig(t, handler, surveyId, model.AddHolidaysRequest{
			Token:       token,
			NewHolidays: []model.Holiday{testHoliday("New Year", "2026-01-01", 3)},
		})
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "1 response")
	})

	t.Run("id colliding with existing holiday is rejected without mutating config", func(t *testing.T) {
		_, handler := newTestApp(t)
		a := testHoliday("Christmas", "2025-12-25", 2)
		surveyId, token, _ := createTestSurvey(t, handler, a)

		clash := testHoliday("Boxing Day", "2025-12-26", 1)
		clash.ID = a.ID
		w := patchConfig(t, handler, surveyId, model.AddHolidaysRequest{
			Token:       token,
			NewHolidays: []model.Holiday{clash},
		})
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "duplicate holiday id")

		// stored config must be untouched
		w = doRequest(t, handler, http.MethodGet, "/api/survey/"+surveyId+"/results?token="+token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var results struct {
			Survey model.Survey `json:"survey"`
		}
		decodeBody(t, w, &results)
		assert.Equal(t, []model.Holiday{a}, results.Survey.Config.Holidays)
	})

	t.Run("ids colliding within the batch are rejected", func(t *testing.T) {
		_, handler := newTestApp(t)
		surveyId, token, _ := createTestSurvey(t, handler)

		b := testHoliday("New Year", "2026-01-01", 3)
		c := testHoliday("Easter", "2026-04-05", 1)
		c.ID = b.ID
		w := patchConfig(t, handler, surveyId, model.AddHolidaysRequest{
			Token:       token,
			NewHolidays: []model.Holiday{b, c},
		})
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "duplicate holiday id")
	})

	t.Run("incomplete new holiday is 400", func(t *testing.T) {
		_, handler := newTestApp(t)
		surveyId, token, _ := createTestSurvey(t, handler)

		w := patchConfig(t, handler, surveyId, map[string]any{
			"token":       token,
			"newHolidays": []map[string]any{{"id": uuid.NewString(), "name": "New Year"}},
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestUpdateConfigAuth(t *testing.T) {
	_, handler := newTestApp(t)
	surveyId, token, holidays := createTestSurvey(t, handler)

	patch := func(surveyId, token string) *httptest.ResponseRecorder {
		return patchConfig(t, handler, surveyId, model.UpdateConfigRequest{
			Token:    token,
			Holidays: []model.HolidayStaffPatch{{ID: holidays[0].ID, StaffNeeded: 4}},
		})
	}

	t.Run("wrong token is 403", func(t *testing.T) {
		assert.Equal(t, http.StatusForbidden, patch(surveyId, uuid.NewString()).Code)
	})

	t.Run("unknown survey is 404", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, patch(uuid.NewString(), token).Code)
	})

	t.Run("malformed survey id is 400", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, patch("42", token).Code)
	})
}

func TestGetSurveyResults(t *testing.T) {
	_, handler := newTestApp(t)
	surveyId, token, holidays := createTestSurvey(t, handler,
		testHoliday("Christmas", "2025-12-25", 2),
		testHoliday("New Year", "2026-01-01", 3),
	)

	w := submitTestPreferences(t, handler, surveyId, "Dana Smith", "dana@example.com",
		[]model.Preference{
			{HolidayID: holidays[0].ID, Rank: 1},
			{HolidayID: holidays[1].ID, Rank: 2},
		})
	require.Equal(t, http.StatusCreated, w.Code)
	w = submitTestPreferences(t, handler, surveyId, "Sam Jones", "sam@example.com",
		[]model.Preference{{HolidayID: holidays[0].ID, Rank: model.RankNotAvailable}})
	require.Equal(t, http.StatusCreated, w.Code)

	results := func(surveyId, query string) *httptest.ResponseRecorder {
		return doRequest(t, handler, http.MethodGet, "/api/survey/"+surveyId+"/results"+query, nil)
	}

	t.Run("missing token is 401", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, results(surveyId, "").Code)
	})

	t.Run("malformed token is 400", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, results(surveyId, "?token=nope").Code)
	})

	t.Run("wrong token and unknown survey are the same 403", func(t *testing.T) {
		wrongToken := results(surveyId, "?token="+uuid.NewString())
		unknownSurvey := results(uuid.NewString(), "?token="+token)
		assert.Equal(t, http.StatusForbidden, wrongToken.Code)
		assert.Equal(t, http.StatusForbidden, unknownSurvey.Code)
		assert.Equal(t, wrongToken.Body.String(), unknownSurvey.Body.String(),
			"responses must not disclose whether the survey exists")
	})

	t.Run("aggregated view", func(t *testing.T) {
		w := results(surveyId, "?token="+token)
		require.Equal(t, http.StatusOK, w.Code, "body: %s", w.Body.String())

		var resp struct {
			Survey       model.Survey                    `json:"survey"`
			Participants []model.Participant             `json:"participants"`
			Responses    []model.ResponseWithParticipant `json:"responses"`
			Stats        model.SurveyStats               `json:"stats"`
		}
		decodeBody(t, w, &resp)

		assert.Equal(t, surveyId, resp.Survey.ID)
		assert.Empty(t, resp.Survey.AdminToken, "admin token must not be echoed")
		assert.Equal(t, holidays, resp.Survey.Config.Holidays)

		require.Len(t, resp.Participants, 2)
		assert.Equal(t, "sam@example.com", resp.Participants[0].Email, "latest submission first")
		assert.Equal(t, "dana@example.com", resp.Participants[1].Email)

		require.Len(t, resp.Responses, 2)
		assert.Equal(t, "Sam Jones", resp.Responses[0].ParticipantName)
		assert.Equal(t, "Dana Smith", resp.Responses[1].ParticipantName)

		assert.Equal(t, 2, resp.Stats.TotalParticipants)
		assert.Equal(t, 2, resp.Stats.TotalResponses)
		assert.Equal(t, 100, resp.Stats.CompletionRate)
		assert.Equal(t, 1.5, resp.Stats.AvgPreferencesPerPerson)
		require.Len(t, resp.Stats.SubmissionsByDate, 1)
		assert.Equal(t, 2, resp.Stats.SubmissionsByDate[0].Count)
	})
}
