package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rosterlab/shift-survey/app"
)

func Wire(app app.App) http.Handler {
	root := chi.NewRouter()
	root.Use(middleware.Logger, middleware.Recoverer)
	root.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{app.CORSOrigin},
		AllowedMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	root.Mount("/api", apiRouter(app))

	return root
}

func apiRouter(app app.App) http.Handler {
	api := chi.NewRouter()

	api.Route("/survey", func(r chi.Router) {
		r.Post("/create", CreateSurvey(app))
		r.Post("/{surveyId}/submit", SubmitPreferences(app))
		r.Patch("/{surveyId}/config", UpdateSurveyConfig(app))
		r.Get("/{surveyId}/results", GetSurveyResults(app))
	})

	return api
}
