package main

import (
	"github.com/B-Rich/openQA/internal/utils"
	"github.com/B-Rich/openQA/pkg/api"
	"github.com/B-Rich/openQA/pkg/api/http/server"
	"github.com/B-Rich/openQA/pkg/command"
	"github.com/B-Rich/openQA/pkg/database"
	"github.com/B-Rich/openQA/pkg/structs"
)

const (
	docApi = `Run the API server`
)

type optsAPI struct {
	optsGeneral
	optsDatabase
	optsCommand

	Addr string `long:"addr" env:"ADDR" description:"Address to bind to" default:"localhost:8200"`

	StaticDir string `long:"static-dir" env:"STATIC_DIR" default:"" description:"Serve static files from this directory"`

	ResultsDir string `long:"results-dir" env:"RESULTS_DIR" default:"" description:"Write job logs, screenshots & module details here (empty disables)"`
}

func (c *optsAPI) Execute(args []string) error {
	// Serves the scheduler core over HTTP. Workers push status reports here
	// and the web layer reads & triggers job operations; worker commands go
	// out via redis.
	tlsCfg, err := utils.TLSConfig(c.RedisTLSCaCert, c.RedisTLSCert, c.RedisTLSKey)
	if err != nil {
		panic(err)
	}

	svc, err := api.New(
		&database.Options{URL: c.databaseURL()},
		&command.Options{URL: c.redisURL(), TLSConfig: tlsCfg},
		&structs.Options{ResultsDir: c.ResultsDir},
	)
	if err != nil {
		panic(err)
	}

	s := server.NewServer(c.Addr, c.StaticDir, c.Debug)
	return s.ServeForever(svc)
}
