package model

// Request payloads for the survey API. Validation rules live in the struct
// tags and are enforced by the validate package.

type CreateSurveyRequest struct {
	Title    string    `json:"title" validate:"required,min=3,max=255"`
	OrgName  string    `json:"org_name" validate:"required,min=2,max=255"`
	Holidays []Holiday `json:"holidays" validate:"required,min=1,dive"`
}

type SubmitPreferencesRequest struct {
	Name        string       `json:"name" validate:"required,min=2,max=255"`
	Email       string       `json:"email" validate:"required,email,max=255"`
	Preferences []Preference `json:"preferences" validate:"required,min=1,dive"`
	Notes       string       `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

// UpdateConfigRequest is the PATCH body when only staff_needed counts change.
// Ids not present in the survey are ignored.
type UpdateConfigRequest struct {
	Token    string              `json:"token" validate:"required,uuid"`
	Holidays []HolidayStaffPatch `json:"holidays" validate:"dive"`
}

type HolidayStaffPatch struct {
	ID          string `json:"id" validate:"required,uuid"`
	StaffNeeded int    `json:"staff_needed" validate:"required,gte=1,lte=100"`
}

// AddHolidaysRequest is the PATCH body when the newHolidays field is present.
type AddHolidaysRequest struct {
	Token       string    `json:"token" validate:"required,uuid"`
	NewHolidays []Holiday `json:"newHolidays" validate:"required,min=1,dive"`
}

// PreviousSubmission is returned with a 409 when a participant has already
// submitted, so the client can show what was recorded the first time.
type PreviousSubmission struct {
	Participant Participant    `json:"participant"`
	Response    PreferenceData `json:"response"`
}
