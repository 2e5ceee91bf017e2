package database

import (
	"errors"
	"fmt"
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/locallibrary/internal/config"
	"github.com/mrlokans/locallibrary/internal/entities"
)

// ErrNotFound is returned by repositories when a primary key does not resolve.
var ErrNotFound = errors.New("record not found")

var defaultGenres = []entities.Genre{
	{Name: "Fantasy"},
	{Name: "Science Fiction"},
	{Name: "Western"},
	{Name: "Romance"},
	{Name: "Thriller"},
	{Name: "Mystery"},
}

var defaultLanguages = []entities.Language{
	{Name: "English"},
	{Name: "French"},
	{Name: "German"},
	{Name: "Spanish"},
}

type Database struct {
	DB     *gorm.DB
	Driver string
}

// NewDatabase opens (or creates) a SQLite database at dbPath.
func NewDatabase(dbPath string) (*Database, error) {
	return Open(config.Database{Driver: config.DatabaseDriverSQLite, Path: dbPath}, logger.Info)
}

// Open connects to the configured driver, migrates the schema and seeds
// the lookup tables.
func Open(cfg config.Database, logLevel logger.LogLevel) (*Database, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Auto-migrate all entities
	err = db.AutoMigrate(
		&entities.User{},
		&entities.Genre{},
		&entities.Language{},
		&entities.Author{},
		&entities.Book{},
		&entities.BookInstance{},
		&entities.AuditEvent{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	database := &Database{DB: db, Driver: driverName(cfg)}

	if err := database.seedLookups(); err != nil {
		return nil, fmt.Errorf("failed to seed lookup tables: %w", err)
	}

	log.Printf("Database initialized successfully (%s)", database.Driver)

	return database, nil
}

func driverName(cfg config.Database) string {
	if cfg.Driver == "" {
		return config.DatabaseDriverSQLite
	}
	return cfg.Driver
}

func dialectorFor(cfg config.Database) (gorm.Dialector, error) {
	switch driverName(cfg) {
	case config.DatabaseDriverSQLite:
		if cfg.Path == "" {
			return nil, fmt.Errorf("database path is required for sqlite")
		}
		return sqlite.Open(cfg.Path), nil
	case config.DatabaseDriverPostgres:
		if cfg.DSN == "" {
			return nil, fmt.Errorf("database DSN is required for postgres")
		}
		return postgres.Open(cfg.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks database connectivity.
func (d *Database) Ping() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func (d *Database) seedLookups() error {
	for _, genre := range defaultGenres {
		var existing entities.Genre
		result := d.DB.Where("name = ?", genre.Name).First(&existing)
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			if err := d.DB.Create(&genre).Error; err != nil {
				return fmt.Errorf("failed to create genre %s: %w", genre.Name, err)
			}
		}
	}
	for _, language := range defaultLanguages {
		var existing entities.Language
		result := d.DB.Where("name = ?", language.Name).First(&existing)
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			if err := d.DB.Create(&language).Error; err != nil {
				return fmt.Errorf("failed to create language %s: %w", language.Name, err)
			}
		}
	}
	return nil
}

// TranslateError maps gorm's not-found error onto ErrNotFound.
func TranslateError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
