package app

import (
	"database/sql"

	"github.com/go-chi/oauth"

	"github.com/mbolis/quick-form/config"
	"github.com/mbolis/quick-form/forms"
	"github.com/mbolis/quick-form/store"
)

type App struct {
	*sql.DB
	*oauth.BearerServer
	config.Config
	Store *store.Store
	Forms *forms.Service
}
