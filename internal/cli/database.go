package cli

import (
	"flag"
	"fmt"

	"gorm.io/gorm/logger"

	"github.com/mrlokans/locallibrary/internal/config"
	"github.com/mrlokans/locallibrary/internal/database"
)

// databaseFlags are shared by every command that opens the catalog.
type databaseFlags struct {
	Driver string
	Path   string
	DSN    string
}

func (f *databaseFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.Driver, "driver", config.DatabaseDriverSQLite, "Database driver: sqlite or postgres")
	fs.StringVar(&f.Path, "db", config.DefaultDatabasePath, "Path to the SQLite database file")
	fs.StringVar(&f.DSN, "dsn", "", "Postgres connection string (with -driver postgres)")
}

func (f *databaseFlags) validate() error {
	switch f.Driver {
	case config.DatabaseDriverSQLite:
		if f.Path == "" {
			return fmt.Errorf("required flag -db not provided")
		}
	case config.DatabaseDriverPostgres:
		if f.DSN == "" {
			return fmt.Errorf("required flag -dsn not provided for postgres")
		}
	default:
		return fmt.Errorf("unknown database driver %q", f.Driver)
	}
	return nil
}

func (f *databaseFlags) open() (*database.Database, error) {
	db, err := database.Open(config.Database{Driver: f.Driver, Path: f.Path, DSN: f.DSN}, logger.Warn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}
