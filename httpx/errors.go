package httpx

import (
	"fmt"
	"net/http"

	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"

	"github.com/mbolis/quick-form/log"
)

func entry(code string, status int) *logrus.Entry {
	return log.WithFields(log.Fields{"code": code, "status": status})
}

// Will log an error, and send an HTTP response with status 500 and default text
func LogInternalError(w http.ResponseWriter, code string, err error) {
	entry(code, http.StatusInternalServerError).Error(err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// Will log a debug message, and send an HTTP response with status 404 and default text
func LogNotFound(w http.ResponseWriter, code string, id any) {
	entry(code, http.StatusNotFound).Debugf("not found (%v)", id)
	http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
}

// Will log an error code at the given level, and send
// an HTTP response with status and default text
func LogStatus(w http.ResponseWriter, status int, level log.Level, code string) {
	entry(code, status).Log(logrus.Level(level), http.StatusText(status))
	http.Error(w, http.StatusText(status), status)
}

// Will log an error code and message at the given level,
// and send an HTTP response with the given status and formatted message
func LogStatusMsg(w http.ResponseWriter, status int, level log.Level, code string, msg string, args ...any) {
	errMsg := fmt.Sprintf(msg, args...)
	entry(code, status).Log(logrus.Level(level), errMsg)
	http.Error(w, errMsg, status)
}

// Will log an error code at the given level, and send
// an HTTP response with the given status and body as JSON
func LogStatusJSON(w http.ResponseWriter, r *http.Request, status int, level log.Level, code string, body any) {
	entry(code, status).Log(logrus.Level(level), http.StatusText(status))
	render.Status(r, status)
	render.JSON(w, r, body)
}
