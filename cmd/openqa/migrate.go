package main

import (
	"database/sql"
	"errors"
	"log"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
)

const (
	docMigrate = `Apply database migrations`
)

type optsMigrate struct {
	optsGeneral
	optsDatabase

	Source string `long:"source" env:"MIGRATIONS" default:"file://migrations" description:"Migrations source URL"`
}

func (c *optsMigrate) Execute(args []string) error {
	db, err := sql.Open("postgres", c.databaseURL())
	if err != nil {
		return err
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return err
	}

	m, err := migrate.NewWithDatabaseInstance(c.Source, "postgres", driver)
	if err != nil {
		return err
	}

	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		log.Println("database already up to date")
		return nil
	}
	if err == nil {
		log.Println("migrations applied")
	}
	return err
}
