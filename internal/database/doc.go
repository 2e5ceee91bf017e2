// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup, driver selection, migrations, lookup seeding
//	├── authors/         # Author CRUD
//	├── books/           # Book CRUD, title search, genres and languages
//	├── loans/           # BookInstance queries: loans, renewals, returns
//	├── reports/         # Raw SQL reporting built with squirrel
//	├── audit/           # Audit event log
//	└── users/           # User lookup
//
// # Drivers
//
// SQLite is the default. Set DATABASE_DRIVER=postgres and DATABASE_DSN to
// run against PostgreSQL instead:
//
//	db, err := database.Open(cfg.Database, logger.Info)
//
// # Using Sub-packages
//
// Each sub-package provides a Repository type with domain-specific operations:
//
//	booksRepo := books.NewRepository(db.DB)
//	loansRepo := loans.NewRepository(db.DB)
//
//	book, err := booksRepo.GetBookByID(123)
//	copies, total, err := loansRepo.ListOnLoanByBorrower(userID, 10, 0)
//
// Lookups that miss return database.ErrNotFound.
//
// # Adding a New Domain
//
//  1. Create a new sub-package: internal/database/<domain>/
//  2. Define a Repository struct with a *gorm.DB field
//  3. Add NewRepository(db *gorm.DB) constructor
//  4. Add compile-time interface checks in internal/interfaces
package database
