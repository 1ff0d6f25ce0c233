package httpx

import (
	"fmt"
	"net/http"

	"github.com/go-chi/render"
	"github.com/rosterlab/shift-survey/log"
	"github.com/rosterlab/shift-survey/validate"
)

// Every error leaves the API as a JSON envelope {"error": ...}, optionally
// with a "details" list of per-field messages.

// Will log an error, and send a 500 envelope carrying a generic message plus
// the underlying error text
func LogInternalError(w http.ResponseWriter, r *http.Request, code string, err error) {
	log.Errorf("%s: %s", code, err)
	render.Status(r, http.StatusInternalServerError)
	render.JSON(w, r, map[string]any{
		"error":  "unexpected error",
		"detail": err.Error(),
	})
}

// Will log a debug message, and send a 404 envelope
func LogNotFound(w http.ResponseWriter, r *http.Request, code string, id any) {
	log.Debugf("%s: not found (%v)", code, id)
	render.Status(r, http.StatusNotFound)
	render.JSON(w, r, map[string]any{"error": "survey not found"})
}

// Will log an error code at the given level, and send an envelope with the
// given status and message
func LogStatusMsg(w http.ResponseWriter, r *http.Request, status int, level log.Level, code string, msg string, args ...any) {
	errMsg := fmt.Sprintf(msg, args...)
	log.Log(level, code+":", errMsg)
	render.Status(r, status)
	render.JSON(w, r, map[string]any{"error": errMsg})
}

// Will log the offending fields at DEBUG level, and send a 400 envelope
// enumerating every violation
func LogValidationError(w http.ResponseWriter, r *http.Request, code string, verr *validate.Error) {
	log.Debugf("%s: %s", code, verr)
	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, map[string]any{
		"error":   "validation failed",
		"details": verr.Fields,
	})
}
