package app

import (
	"database/sql"

	"github.com/rosterlab/shift-survey/config"
)

type App struct {
	*sql.DB
	config.Config
}
