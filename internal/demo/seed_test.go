package demo

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/locallibrary/internal/auth"
	"github.com/mrlokans/locallibrary/internal/config"
	"github.com/mrlokans/locallibrary/internal/database"
	"github.com/mrlokans/locallibrary/internal/database/books"
	"github.com/mrlokans/locallibrary/internal/database/loans"
	"github.com/mrlokans/locallibrary/internal/database/users"
	"github.com/mrlokans/locallibrary/internal/entities"
)

var seedDay = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

func openSeedDB(t *testing.T) *database.Database {
	t.Helper()
	db, err := database.Open(config.Database{
		Driver: config.DatabaseDriverSQLite,
		Path:   filepath.Join(t.TempDir(), "demo.db"),
	}, logger.Silent)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSeeder_SeedCatalogWithBorrower(t *testing.T) {
	db := openSeedDB(t)
	userRepo := users.NewRepository(db.DB)
	svc := auth.NewService(userRepo, config.Auth{BcryptCost: 4})
	reader, err := EnsureAccounts(svc, userRepo)
	require.NoError(t, err)

	result, err := NewSeeder(db).SeedCatalog(seedDay, reader.ID)
	require.NoError(t, err)

	assert.False(t, result.Skipped)
	assert.Equal(t, 7, result.Authors)
	assert.Equal(t, 11, result.Books)
	assert.Equal(t, 22, result.Instances)
	assert.Equal(t, 4, result.Loans)

	loanRepo := loans.NewRepository(db.DB)
	onLoan, total, err := loanRepo.ListOnLoanByBorrower(reader.ID, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	assert.Equal(t, "2026-03-07", onLoan[0].DueBack.Format(time.DateOnly))

	overdue, err := loanRepo.FindOverdue(seedDay)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, "Frankenstein", overdue[0].Book.Title)

	bookRepo := books.NewRepository(db.DB)
	found, err := bookRepo.SearchBooks("Frankenstein", 1)
	require.NoError(t, err)
	require.Len(t, found, 1)

	frankenstein, err := bookRepo.GetBookByID(found[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Shelley, Mary", frankenstein.Author.String())
	assert.Equal(t, "Science Fiction, Thriller", frankenstein.GenreNames())
	assert.Equal(t, "English", frankenstein.Language.Name)
	assert.Len(t, frankenstein.Instances, 2)
}

func TestSeeder_SeedCatalogWithoutBorrower(t *testing.T) {
	db := openSeedDB(t)

	result, err := NewSeeder(db).SeedCatalog(seedDay, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Loans)

	loanRepo := loans.NewRepository(db.DB)
	counts := map[entities.LoanStatus]int64{}
	for _, status := range entities.LoanStatuses {
		counts[status], err = loanRepo.CountInstancesByStatus(status)
		require.NoError(t, err)
	}
	assert.Equal(t, int64(0), counts[entities.LoanStatusOnLoan])
	assert.Equal(t, int64(4), counts[entities.LoanStatusReserved])
	assert.Equal(t, int64(3), counts[entities.LoanStatusMaintenance])
	assert.Equal(t, int64(15), counts[entities.LoanStatusAvailable])
}

func TestSeeder_SkipsNonEmptyCatalog(t *testing.T) {
	db := openSeedDB(t)
	seeder := NewSeeder(db)

	_, err := seeder.SeedCatalog(seedDay, 0)
	require.NoError(t, err)

	result, err := seeder.SeedCatalog(seedDay, 0)
	require.NoError(t, err)
	assert.True(t, result.Skipped)

	count, err := books.NewRepository(db.DB).CountBooks()
	require.NoError(t, err)
	assert.Equal(t, int64(11), count)
}

func TestEnsureAccounts_IsIdempotent(t *testing.T) {
	db := openSeedDB(t)
	userRepo := users.NewRepository(db.DB)
	svc := auth.NewService(userRepo, config.Auth{BcryptCost: 4})

	first, err := EnsureAccounts(svc, userRepo)
	require.NoError(t, err)
	second, err := EnsureAccounts(svc, userRepo)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, entities.UserRoleMember, second.Role)

	count, err := userRepo.CountUsers()
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	librarian, err := svc.Authenticate(LibrarianUsername, AccountPassword)
	require.NoError(t, err)
	assert.Equal(t, entities.UserRoleLibrarian, librarian.Role)
}

func TestBuildDatabase_ReplacesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "demo.db")

	_, err := BuildDatabase(path, 4, seedDay)
	require.NoError(t, err)

	result, err := BuildDatabase(path, 4, seedDay)
	require.NoError(t, err)
	assert.False(t, result.Skipped, "a rebuilt database starts empty")
	assert.Equal(t, 4, result.Loans)

	db, err := database.Open(config.Database{Driver: config.DatabaseDriverSQLite, Path: path}, logger.Silent)
	require.NoError(t, err)
	defer db.Close()

	count, err := users.NewRepository(db.DB).CountUsers()
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}
