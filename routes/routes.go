package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mbolis/quick-form/app"
	"github.com/mbolis/quick-form/log"
	"github.com/mbolis/quick-form/routes/middlewares"
)

// request lines go through the application logger
var requestLogger = middleware.RequestLogger(&middleware.DefaultLogFormatter{
	Logger:  log.Logger,
	NoColor: true,
})

func Wire(app app.App) http.Handler {
	root := chi.NewRouter()
	root.Use(middleware.RequestID, requestLogger, middleware.Recoverer)

	root.Mount("/api", apiRouter(app))

	root.
		With(middlewares.CookieAuth(app.BearerServer), middlewares.Admin(app.TokenSecret)).
		Mount("/admin", servePrivateFiles("/admin"))
	root.Mount("/", servePublicFiles())

	return root
}

func apiRouter(app app.App) http.Handler {
	api := chi.NewRouter()

	api.Get("/f/{code}", PublicOpenForm(app))
	api.Post("/forms/{id}/screen", PublicScreenAnswer(app))
	api.Post("/forms/{id}/responses", PublicSubmitForm(app))

	api.Route("/admin", func(r chi.Router) {
		r.Use(middlewares.Admin(app.TokenSecret))

		// CRUD form
		r.Post("/forms", CreateForm(app))
		r.Get("/forms", ListForms(app))
		r.Get("/forms/{id}", GetFormById(app))
		r.Put("/forms/{id}", UpdateForm(app))
		r.Delete("/forms/{id}", DeleteForm(app))

		r.Post("/forms/{id}/duplicate", DuplicateForm(app))
		r.Post("/forms/{id}/publish", PublishForm(app))
		r.Post("/forms/{id}/close", CloseForm(app))

		r.Get("/short-codes/{code}/availability", CheckShortCode(app))
		r.Put("/forms/{id}/short-code", SaveShortCode(app))

		r.Get("/forms/{id}/responses", GetFormResponses(app))
		r.Get("/forms/{id}/responses.csv", ExportFormResponses(app))
		r.Get("/forms/{id}/analytics", GetFormAnalytics(app))
	})

	api.Post("/login", Login(app))
	api.Post("/refresh", Refresh(app))

	return api
}

func servePublicFiles() http.Handler {
	return http.FileServer(http.Dir("public"))
}

func servePrivateFiles(path string) http.Handler {
	return http.StripPrefix(path, http.FileServer(http.Dir("private")))
}
