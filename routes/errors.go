package routes

import (
	"errors"
	"net/http"

	"github.com/mbolis/quick-form/forms"
	"github.com/mbolis/quick-form/httpx"
	"github.com/mbolis/quick-form/log"
	"github.com/mbolis/quick-form/model"
	"github.com/mbolis/quick-form/session"
	"github.com/mbolis/quick-form/shortcode"
	"github.com/mbolis/quick-form/store"
)

// logServiceError maps domain errors to responses; anything unknown is a 500.
func logServiceError(w http.ResponseWriter, r *http.Request, code string, id any, err error) {
	switch {
	case errors.Is(err, forms.ErrNotFound), errors.Is(err, store.ErrNotFound):
		httpx.LogNotFound(w, code, id)
	case errors.Is(err, store.ErrConflict):
		httpx.LogStatus(w, http.StatusConflict, log.DebugLevel, code+".conflict")
	case errors.Is(err, forms.ErrInvalidForm):
		httpx.LogStatusJSON(w, r, http.StatusUnprocessableEntity, log.DebugLevel, code+".invalid", map[string]any{
			"error": err.Error(),
		})
	case errors.Is(err, session.ErrUnknownField), errors.Is(err, model.ErrValueShape), errors.Is(err, shortcode.ErrInvalidCode):
		httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, code, "%s", err)
	case errors.Is(err, shortcode.ErrCodeTaken):
		httpx.LogStatusMsg(w, http.StatusConflict, log.DebugLevel, code, "%s", err)
	case errors.Is(err, shortcode.ErrAllocationExhausted):
		httpx.LogStatusMsg(w, http.StatusConflict, log.WarnLevel, code, "%s", err)
	default:
		httpx.LogInternalError(w, code, err)
	}
}
