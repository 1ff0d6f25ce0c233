package model

import "time"

// Rank values a participant may assign to a holiday.
// Positive values 1..50 express preference order, 1 being most preferred.
const (
	RankNotApplicable = -2
	RankNotAvailable  = -1
)

// PreferenceTypeHolidayRanking is the only response type currently collected.
const PreferenceTypeHolidayRanking = "holiday_ranking"

type Survey struct {
	ID         string       `json:"id"`
	Title      string       `json:"title"`
	OrgName    string       `json:"org_name"`
	Config     SurveyConfig `json:"config"`
	AdminToken string       `json:"admin_token,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

// SurveyConfig is stored as a JSON blob in the surveys.config column.
// Field names are part of the stored format and must not change.
type SurveyConfig struct {
	Holidays []Holiday `json:"holidays"`
}

type Holiday struct {
	ID          string `json:"id" validate:"required,uuid"`
	Name        string `json:"name" validate:"required,min=1,max=100"`
	Date        string `json:"date" validate:"required,dateformat"`
	StaffNeeded int    `json:"staff_needed" validate:"required,gte=1,lte=100"`
}

type Participant struct {
	ID          string    `json:"id"`
	SurveyID    string    `json:"survey_id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	SubmittedAt time.Time `json:"submitted_at"`
}

type Response struct {
	ID             string         `json:"id"`
	ParticipantID  string         `json:"participant_id"`
	PreferenceType string         `json:"preference_type"`
	PreferenceData PreferenceData `json:"preference_data"`
	CreatedAt      time.Time      `json:"created_at"`
}

// PreferenceData is the survey_responses.preference_data JSON payload.
type PreferenceData struct {
	Preferences []Preference `json:"preferences"`
	Notes       string       `json:"notes,omitempty"`
}

type Preference struct {
	HolidayID string `json:"holiday_id" validate:"required,uuid"`
	Rank      int    `json:"rank" validate:"gte=-2,lte=50"`
}

// ResponseWithParticipant enriches a response with the identity of its
// submitter for the admin results view.
type ResponseWithParticipant struct {
	Response
	ParticipantName  string `json:"participant_name"`
	ParticipantEmail string `json:"participant_email"`
}

type SurveyStats struct {
	TotalParticipants       int          `json:"total_participants"`
	TotalResponses          int          `json:"total_responses"`
	CompletionRate          int          `json:"completion_rate"`
	AvgPreferencesPerPerson float64      `json:"avg_preferences_per_participant"`
	SubmissionsByDate       []DateBucket `json:"submissions_by_date"`
}

type DateBucket struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}
