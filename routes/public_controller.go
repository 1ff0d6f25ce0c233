package routes

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/rosterlab/shift-survey/app"
	"github.com/rosterlab/shift-survey/httpx"
	"github.com/rosterlab/shift-survey/log"
	"github.com/rosterlab/shift-survey/model"
	"github.com/rosterlab/shift-survey/validate"
)

func CreateSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := model.CreateSurveyRequest{}
		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			httpx.LogStatusMsg(w, r, http.StatusBadRequest, log.DebugLevel, "request.parse_body", "invalid JSON body")
			return
		}

		if verr := validate.Struct(req); verr != nil {
			httpx.LogValidationError(w, r, "create_survey.validate", verr)
			return
		}

		// holiday ids must be unique within a survey
		seen := make(map[string]bool, len(req.Holidays))
		for _, h := range req.Holidays {
			if seen[h.ID] {
				httpx.LogStatusMsg(w, r, http.StatusBadRequest, log.DebugLevel,
					"create_survey.duplicate_id", "duplicate holiday id: %s", h.ID)
				return
			}
			seen[h.ID] = true
		}

		config := model.SurveyConfig{Holidays: req.Holidays}
		configJson, err := json.Marshal(config)
		if err != nil {
			httpx.LogInternalError(w, r, "create_survey.marshal_config", err)
			return
		}

		surveyId := uuid.NewString()
		adminToken := uuid.NewString()
		now := time.Now().UTC()

		_, err = app.ExecContext(r.Context(), `
			INSERT INTO surveys (id, title, org_name, config, admin_token, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			surveyId,
			req.Title,
			req.OrgName,
			string(configJson),
			adminToken,
			now,
			now,
		)
		if err != nil {
			httpx.LogInternalError(w, r, "db.insert_survey", err)
			return
		}

		log.Infof("survey created: %s (%s)", surveyId, req.OrgName)

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"survey_id":   surveyId,
			"admin_token": adminToken,
			"config":      config,
		})
	}
}

func SubmitPreferences(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId := chi.URLParam(r, "surveyId")
		if !validate.UUID(surveyId) {
			httpx.LogStatusMsg(w, r, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.survey_id", "malformed survey id")
			return
		}

		req := model.SubmitPreferencesRequest{}
		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			httpx.LogStatusMsg(w, r, http.StatusBadRequest, log.DebugLevel, "request.parse_body", "invalid JSON body")
			return
		}

		if verr := validate.Struct(req); verr != nil {
			httpx.LogValidationError(w, r, "submit_preferences.validate", verr)
			return
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, r, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		var exists bool
		err = tx.QueryRowContext(r.Context(),
			"SELECT 1 FROM surveys WHERE id = ?", surveyId,
		).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			httpx.LogNotFound(w, r, "submit_preferences.get_survey", surveyId)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, r, "db.get_survey", err)
			return
		}

		// one submission per identity: a repeat submitter gets their original
		// submission back instead of a second row
		email := strings.ToLower(strings.TrimSpace(req.Email))
		prev := model.Participant{SurveyID: surveyId}
		var prevData sql.NullString
		err = tx.QueryRowContext(r.Context(), `
			SELECT p.id, p.name, p.email, p.submitted_at, resp.preference_data
			FROM survey_participants p
			LEFT OUTER JOIN survey_responses resp ON (p.id = resp.participant_id)
			WHERE p.survey_id = ? AND p.email = ?`,
			surveyId,
			email,
		).Scan(&prev.ID, &prev.Name, &prev.Email, &prev.SubmittedAt, &prevData)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			httpx.LogInternalError(w, r, "db.get_participant", err)
			return
		}
		if err == nil {
			payload := model.PreferenceData{}
			if prevData.Valid {
				if err := json.Unmarshal([]byte(prevData.String), &payload); err != nil {
					httpx.LogInternalError(w, r, "db.get_participant.parse_response", err)
					return
				}
			}

			log.Debugf("submit_preferences.duplicate: %s already submitted to %s", email, surveyId)
			render.Status(r, http.StatusConflict)
			render.JSON(w, r, map[string]any{
				"error": "preferences already submitted for this survey",
				"previous_submission": model.PreviousSubmission{
					Participant: prev,
					Response:    payload,
				},
			})
			return
		}

		data := model.PreferenceData{
			Preferences: req.Preferences,
			Notes:       req.Notes,
		}
		dataJson, err := json.Marshal(data)
		if err != nil {
			httpx.LogInternalError(w, r, "submit_preferences.marshal_response", err)
			return
		}

		participantId := uuid.NewString()
		responseId := uuid.NewString()
		now := time.Now().UTC()

		_, err = tx.ExecContext(r.Context(), `
			INSERT INTO survey_participants (id, survey_id, name, email, submitted_at)
			VALUES (?, ?, ?, ?, ?)`,
			participantId,
			surveyId,
			req.Name,
			email,
			now,
		)
		if err != nil {
			httpx.LogInternalError(w, r, "db.insert_participant", err)
			return
		}

		_, err = tx.ExecContext(r.Context(), `
			INSERT INTO survey_responses (id, participant_id, preference_type, preference_data, created_at)
			VALUES (?, ?, ?, ?, ?)`,
			responseId,
			participantId,
			model.PreferenceTypeHolidayRanking,
			string(dataJson),
			now,
		)
		if err != nil {
			httpx.LogInternalError(w, r, "db.insert_response", err)
			return
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, r, "db.insert_response.commit", err)
			return
		}

		log.Infof("preferences submitted: survey=%s participant=%s", surveyId, participantId)

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"participant_id": participantId,
			"response_id":    responseId,
			"message":        "preferences submitted successfully",
		})
	}
}
