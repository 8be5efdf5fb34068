package api

import (
	"github.com/B-Rich/openQA/internal/core"
	"github.com/B-Rich/openQA/pkg/command"
	"github.com/B-Rich/openQA/pkg/database"
	"github.com/B-Rich/openQA/pkg/structs"
)

func NewAPI(db database.Database, cmd command.Commander, opts *structs.Options) (API, error) {
	return core.NewService(db, cmd, opts)
}

// New builds the service on postgres storage and the asynq command channel.
func New(dbOpts *database.Options, cmdOpts *command.Options, opts *structs.Options) (API, error) {
	db, err := database.NewPostgres(dbOpts)
	if err != nil {
		return nil, err
	}
	cmd, err := command.NewAsynqCommander(cmdOpts)
	if err != nil {
		return nil, err
	}
	return core.NewService(db, cmd, opts)
}
