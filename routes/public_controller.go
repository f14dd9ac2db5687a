package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/mbolis/quick-form/app"
	"github.com/mbolis/quick-form/forms"
	"github.com/mbolis/quick-form/httpx"
	"github.com/mbolis/quick-form/log"
	"github.com/mbolis/quick-form/model"
)

// publicForm is what a respondent gets to see of a form.
type publicForm struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Fields      []model.Field `json:"fields"`
}

func PublicOpenForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")

		res, err := app.Forms.Open(r.Context(), code)
		if err != nil {
			logServiceError(w, r, "open_form", code, err)
			return
		}

		render.JSON(w, r, publicForm{
			ID:          res.Form.ID,
			Title:       res.Form.Title,
			Description: res.Form.Description,
			Fields:      model.SortFields(res.Form.Fields),
		})
	}
}

func PublicScreenAnswer(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formId := chi.URLParam(r, "id")

		answer := forms.Answer{}
		err := render.DecodeJSON(r.Body, &answer)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		res, err := app.Forms.Screen(r.Context(), formId, answer)
		if err != nil {
			logServiceError(w, r, "screen_answer", formId, err)
			return
		}

		if res == nil {
			render.JSON(w, r, map[string]any{"disqualified": false})
			return
		}
		render.JSON(w, r, map[string]any{
			"disqualified":    true,
			"disqualified_by": res.Disqualification.DisqualifiedBy,
			"id":              res.ResponseID,
		})
	}
}

type submission struct {
	Answers []forms.Answer `json:"answers"`
	// ScreenedID is the response id returned by a disqualifying screen call.
	ScreenedID string `json:"screenedId"`
}

func PublicSubmitForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formId := chi.URLParam(r, "id")

		body := submission{}
		err := render.DecodeJSON(r.Body, &body)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		res, err := app.Forms.SubmitScreened(r.Context(), formId, body.ScreenedID, body.Answers)
		if err != nil {
			logServiceError(w, r, "submit_form", formId, err)
			return
		}

		switch {
		case res.Errors != nil:
			httpx.LogStatusJSON(w, r, http.StatusUnprocessableEntity, log.DebugLevel, "submit_form.validation", map[string]any{
				"errors": res.Errors,
			})
		case res.Disqualification != nil:
			httpx.LogStatusJSON(w, r, http.StatusConflict, log.DebugLevel, "submit_form.disqualified", map[string]any{
				"id":              res.ResponseID,
				"disqualified_by": res.Disqualification.DisqualifiedBy,
			})
		default:
			render.Status(r, http.StatusCreated)
			render.JSON(w, r, map[string]any{"id": res.ResponseID})
		}
	}
}
