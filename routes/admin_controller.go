package routes

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/rosterlab/shift-survey/app"
	"github.com/rosterlab/shift-survey/httpx"
	"github.com/rosterlab/shift-survey/log"
	"github.com/rosterlab/shift-survey/model"
	"github.com/rosterlab/shift-survey/validate"
)

// UpdateSurveyConfig mutates a survey's holiday configuration. The request is
// in "add" mode when the body carries a newHolidays field, otherwise in
// "update" mode, which only patches staff_needed counts.
func UpdateSurveyConfig(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId := chi.URLParam(r, "surveyId")
		if !validate.UUID(surveyId) {
			httpx.LogStatusMsg(w, r, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.survey_id", "malformed survey id")
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			httpx.LogInternalError(w, r, "request.read_body", err)
			return
		}

		var probe struct {
			Token       string          `json:"token"`
			NewHolidays json.RawMessage `json:"newHolidays"`
		}
		if err := json.Unmarshal(body, &probe); err != nil {
			httpx.LogStatusMsg(w, r, http.StatusBadRequest, log.DebugLevel, "request.parse_body", "invalid JSON body")
			return
		}
		addMode := probe.NewHolidays != nil

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, r, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		var configJson, adminToken string
		err = tx.QueryRowContext(r.Context(),
			"SELECT config, admin_token FROM surveys WHERE id = ?", surveyId,
		).Scan(&configJson, &adminToken)
		if errors.Is(err, sql.ErrNoRows) {
			httpx.LogNotFound(w, r, "update_config.get_survey", surveyId)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, r, "db.get_survey", err)
			return
		}

		if probe.Token != adminToken {
			httpx.LogStatusMsg(w, r, http.StatusForbidden, log.WarnLevel, "update_config.token", "invalid admin token")
			return
		}

		config := model.SurveyConfig{}
		if err := json.Unmarshal([]byte(configJson), &config); err != nil {
			httpx.LogInternalError(w, r, "db.get_survey.parse_config", err)
			return
		}

		var message string
		if addMode {
			message, err = addHolidays(r, tx, surveyId, body, &config)
		} else {
			message, err = updateStaffNeeded(body, &config)
		}
		if err != nil {
			switch e := err.(type) {
			case *validate.Error:
				httpx.LogValidationError(w, r, "update_config.validate", e)
			case *configError:
				httpx.LogStatusMsg(w, r, http.StatusBadRequest, log.DebugLevel, "update_config.reject", "%s", e.msg)
			default:
				httpx.LogInternalError(w, r, "update_config", err)
			}
			return
		}

		updatedJson, err := json.Marshal(config)
		if err != nil {
			httpx.LogInternalError(w, r, "update_config.marshal_config", err)
			return
		}

		_, err = tx.ExecContext(r.Context(), `
			UPDATE surveys
			SET config = ?, updated_at = ?
			WHERE id = ?`,
			string(updatedJson),
			time.Now().UTC(),
			surveyId,
		)
		if err != nil {
			httpx.LogInternalError(w, r, "db.update_config", err)
			return
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, r, "db.update_config.commit", err)
			return
		}

		log.Infof("survey config updated: %s (%s)", surveyId, message)

		render.JSON(w, r, map[string]any{
			"message": message,
			"config":  config,
		})
	}
}

// configError is a business-rule rejection rendered as a 400.
type configError struct {
	msg string
}

func (e *configError) Error() string { return e.msg }

func updateStaffNeeded(body []byte, config *model.SurveyConfig) (string, error) {
	req := model.UpdateConfigRequest{}
	if err := json.Unmarshal(body, &req); err != nil {
		return "", &configError{"invalid JSON body"}
	}
	if verr := validate.Struct(req); verr != nil {
		return "", verr
	}

	// ids not present in the survey are ignored
	for _, patch := range req.Holidays {
		for i := range config.Holidays {
			if config.Holidays[i].ID == patch.ID {
				config.Holidays[i].StaffNeeded = patch.StaffNeeded
				break
			}
		}
	}

	return "staff requirements updated", nil
}

func addHolidays(r *http.Request, tx *sql.Tx, surveyId string, body []byte, config *model.SurveyConfig) (string, error) {
	req := model.AddHolidaysRequest{}
	if err := json.Unmarshal(body, &req); err != nil {
		return "", &configError{"invalid JSON body"}
	}
	if verr := validate.Struct(req); verr != nil {
		return "", verr
	}

	// adding holidays after responses exist would invalidate collected rankings
	var responseCount int
	err := tx.QueryRowContext(r.Context(),
		"SELECT COUNT(*) FROM survey_participants WHERE survey_id = ?", surveyId,
	).Scan(&responseCount)
	if err != nil {
		return "", err
	}
	if responseCount > 0 {
		return "", &configError{fmt.Sprintf(
			"cannot add holidays: survey already has %d response(s)", responseCount)}
	}

	ids := make(map[string]bool, len(config.Holidays)+len(req.NewHolidays))
	for _, h := range config.Holidays {
		ids[h.ID] = true
	}
	for _, h := range req.NewHolidays {
		if ids[h.ID] {
			return "", &configError{"duplicate holiday id: " + h.ID}
		}
		ids[h.ID] = true
	}

	config.Holidays = append(config.Holidays, req.NewHolidays...)

	return fmt.Sprintf("added %d holiday(s)", len(req.NewHolidays)), nil
}

// GetSurveyResults returns the aggregated admin view of a survey. The same
// 403 covers both an unknown survey and a wrong token, so a caller cannot
// probe which surveys exist.
func GetSurveyResults(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" {
			httpx.LogStatusMsg(w, r, http.StatusUnauthorized, log.DebugLevel, "get_results.token", "missing token")
			return
		}

		surveyId := chi.URLParam(r, "surveyId")
		if !validate.UUID(surveyId) {
			httpx.LogStatusMsg(w, r, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.survey_id", "malformed survey id")
			return
		}
		if !validate.UUID(token) {
			httpx.LogStatusMsg(w, r, http.StatusBadRequest, log.DebugLevel, "get_results.token", "malformed token")
			return
		}

		survey := model.Survey{}
		var configJson, adminToken string
		err := app.QueryRowContext(r.Context(), `
			SELECT id, title, org_name, config, admin_token, created_at, updated_at
			FROM surveys
			WHERE id = ?`,
			surveyId,
		).Scan(&survey.ID, &survey.Title, &survey.OrgName, &configJson, &adminToken, &survey.CreatedAt, &survey.UpdatedAt)
		if errors.Is(err, sql.ErrNoRows) || (err == nil && adminToken != token) {
			httpx.LogStatusMsg(w, r, http.StatusForbidden, log.WarnLevel, "get_results.token", "invalid survey or token")
			return
		}
		if err != nil {
			httpx.LogInternalError(w, r, "db.get_survey", err)
			return
		}

		if err := json.Unmarshal([]byte(configJson), &survey.Config); err != nil {
			httpx.LogInternalError(w, r, "db.get_survey.parse_config", err)
			return
		}

		participants, err := fetchParticipants(r, app, surveyId)
		if err != nil {
			httpx.LogInternalError(w, r, "db.get_participants", err)
			return
		}

		responses, err := fetchResponses(r, app, surveyId)
		if err != nil {
			httpx.LogInternalError(w, r, "db.get_responses", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"survey":       survey,
			"participants": participants,
			"responses":    responses,
			"stats":        computeStats(participants, responses),
		})
	}
}

func fetchParticipants(r *http.Request, app app.App, surveyId string) ([]model.Participant, error) {
	rows, err := app.QueryContext(r.Context(), `
		SELECT id, survey_id, name, email, submitted_at
		FROM survey_participants
		WHERE survey_id = ?
		ORDER BY submitted_at DESC`,
		surveyId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	participants := []model.Participant{}
	for rows.Next() {
		p := model.Participant{}
		err = rows.Scan(&p.ID, &p.SurveyID, &p.Name, &p.Email, &p.SubmittedAt)
		if err != nil {
			return nil, err
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

func fetchResponses(r *http.Request, app app.App, surveyId string) ([]model.ResponseWithParticipant, error) {
	rows, err := app.QueryContext(r.Context(), `
		SELECT
			resp.id, resp.participant_id, resp.preference_type, resp.preference_data, resp.created_at,
			p.name, p.email
		FROM survey_responses resp
		INNER JOIN survey_participants p ON (resp.participant_id = p.id)
		WHERE p.survey_id = ?
		ORDER BY p.submitted_at DESC, resp.created_at ASC`,
		surveyId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	responses := []model.ResponseWithParticipant{}
	for rows.Next() {
		resp := model.ResponseWithParticipant{}
		var data string
		err = rows.Scan(
			&resp.ID, &resp.ParticipantID, &resp.PreferenceType, &data, &resp.CreatedAt,
			&resp.ParticipantName, &resp.ParticipantEmail,
		)
		if err != nil {
			return nil, err
		}

		if err := json.Unmarshal([]byte(data), &resp.PreferenceData); err != nil {
			return nil, err
		}

		responses = append(responses, resp)
	}
	return responses, rows.Err()
}
