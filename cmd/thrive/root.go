package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/csmol/thrivescraper/cfg"
	thrivedb "github.com/csmol/thrivescraper/internal/thrive_db"
	"github.com/csmol/thrivescraper/pkg/db"
	"github.com/csmol/thrivescraper/pkg/log"
)

var databaseFlag string

var rootCmd = &cobra.Command{
	Use:           "thrive",
	Short:         "Mine GitHub repositories by topic into the THRIVE store",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&databaseFlag, "database", "",
		"path or file: URI of the THRIVE database (overrides the config file)")
}

// setup loads the configuration and opens the store, bootstrapping the
// schema on a fresh database.
func setup() (*cfg.Config, log.Logger, *thrivedb.ThriveDB, error) {
	loader, _ := cfg.NewViperLoader()
	config, err := loader.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("loading configuration: %w", err)
	}

	if databaseFlag != "" {
		config.Sqlite.Database = databaseFlag
	}

	logger, err := log.NewCslLogger()
	if err != nil {
		return nil, nil, nil, err
	}

	sqlite, err := db.NewSqlite(config)
	if err != nil {
		return nil, nil, nil, err
	}

	thriveDb, err := thrivedb.New(config, logger, sqlite)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("opening store %q: %w", config.Sqlite.Database, err)
	}

	return config, logger, thriveDb, nil
}
