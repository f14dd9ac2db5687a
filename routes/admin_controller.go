package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/mbolis/quick-form/app"
	"github.com/mbolis/quick-form/httpx"
	"github.com/mbolis/quick-form/log"
	"github.com/mbolis/quick-form/model"
)

func CreateForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form := model.Form{}
		err := render.DecodeJSON(r.Body, &form)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if form.Title == "" {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "create_form", "missing title")
			return
		}

		// forms are published through their own endpoint
		form.Status = model.Draft
		form.ShortCode = ""

		err = app.Store.CreateForm(r.Context(), &form)
		if err != nil {
			logServiceError(w, r, "create_form", nil, err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id": form.ID,
		})
	}
}

func ListForms(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := model.Status(r.URL.Query().Get("status"))

		forms, err := app.Store.ListForms(r.Context(), status)
		if err != nil {
			httpx.LogInternalError(w, "list_forms", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"forms": forms,
		})
	}
}

func GetFormById(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formId := chi.URLParam(r, "id")

		form, err := app.Store.GetForm(r.Context(), formId)
		if err != nil {
			logServiceError(w, r, "get_form", formId, err)
			return
		}

		render.JSON(w, r, form)
	}
}

func UpdateForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formId := chi.URLParam(r, "id")

		form := model.Form{}
		err := render.DecodeJSON(r.Body, &form)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		form.ID = formId

		// optimistic lock on form.Version
		err = app.Store.UpdateForm(r.Context(), &form)
		if err != nil {
			logServiceError(w, r, "update_form", formId, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func DeleteForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formId := chi.URLParam(r, "id")

		err := app.Store.DeleteForm(r.Context(), formId)
		if err != nil {
			logServiceError(w, r, "delete_form", formId, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func DuplicateForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formId := chi.URLParam(r, "id")

		dup, err := app.Store.DuplicateForm(r.Context(), formId)
		if err != nil {
			logServiceError(w, r, "duplicate_form", formId, err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id": dup.ID,
		})
	}
}

func PublishForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formId := chi.URLParam(r, "id")

		form, err := app.Forms.Publish(r.Context(), formId)
		if err != nil {
			logServiceError(w, r, "publish_form", formId, err)
			return
		}

		render.JSON(w, r, map[string]any{
			"id":         form.ID,
			"short_code": form.ShortCode,
			"share_url":  app.ShareLink(form.ShortCode),
		})
	}
}

func CloseForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formId := chi.URLParam(r, "id")

		err := app.Forms.Close(r.Context(), formId)
		if err != nil {
			logServiceError(w, r, "close_form", formId, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// CheckShortCode reports whether a custom code is free; ?form= excludes the
// code the form already owns.
func CheckShortCode(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")

		ok, err := app.Forms.CheckAvailability(r.Context(), code, r.URL.Query().Get("form"))
		if err != nil {
			logServiceError(w, r, "check_short_code", code, err)
			return
		}

		render.JSON(w, r, map[string]any{
			"available": ok,
		})
	}
}

func SaveShortCode(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formId := chi.URLParam(r, "id")

		body := struct {
			ShortCode string `json:"short_code"`
		}{}
		err := render.DecodeJSON(r.Body, &body)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		err = app.Forms.SaveShortCode(r.Context(), formId, body.ShortCode)
		if err != nil {
			logServiceError(w, r, "save_short_code", formId, err)
			return
		}

		render.JSON(w, r, map[string]any{
			"short_code": body.ShortCode,
			"share_url":  app.ShareLink(body.ShortCode),
		})
	}
}

func GetFormResponses(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formId := chi.URLParam(r, "id")

		if _, err := app.Store.GetForm(r.Context(), formId); err != nil {
			logServiceError(w, r, "get_responses", formId, err)
			return
		}

		responses, err := app.Store.ListResponses(r.Context(), formId)
		if err != nil {
			httpx.LogInternalError(w, "get_responses", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"responses": responses,
		})
	}
}

func ExportFormResponses(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formId := chi.URLParam(r, "id")

		// held back until the export is complete
		buf := httpx.NewResponseBuffer()
		err := app.Forms.ExportCSV(r.Context(), formId, buf)
		if err != nil {
			logServiceError(w, r, "export_responses", formId, err)
			return
		}

		w.Header().Set("content-type", "text/csv; charset=utf-8")
		w.Header().Set("content-disposition", `attachment; filename="responses-`+formId+`.csv"`)
		buf.Flush(w)
	}
}

func GetFormAnalytics(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formId := chi.URLParam(r, "id")

		analytics, err := app.Forms.Analytics(r.Context(), formId)
		if err != nil {
			logServiceError(w, r, "get_analytics", formId, err)
			return
		}

		render.JSON(w, r, analytics)
	}
}
