package config

// Default paths for databases
const (
	// DefaultDatabasePath is the default path for the main application database
	DefaultDatabasePath = "./locallibrary.db"

	// DefaultPageSize is the number of rows shown on list pages
	DefaultPageSize = 10
)

// Supported values for DATABASE_DRIVER
const (
	DatabaseDriverSQLite   = "sqlite"
	DatabaseDriverPostgres = "postgres"
)
