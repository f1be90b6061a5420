// Command blogctl manages the reference data of a blog: categories, locations and accounts.
package main

import (
	"blogicum/internal/config"
	"blogicum/internal/data"
	"fmt"
	"os"

	"github.com/jmoiron/sqlx"
)

func main() {
	cmd, a := newRootCmd(openConfiguredDB)
	err := cmd.Execute()
	if cerr := a.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openConfiguredDB connects with the server's configuration and brings the schema up to date.
func openConfiguredDB() (*sqlx.DB, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	db, err := data.NewDB(cfg.DB.Driver, cfg.DB.DSN)
	if err != nil {
		return nil, err
	}
	if err := data.ApplyMigrations(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
