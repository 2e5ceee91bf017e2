package reports

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/locallibrary/internal/config"
	"github.com/mrlokans/locallibrary/internal/database"
	"github.com/mrlokans/locallibrary/internal/entities"
)

func setupTestDB(t *testing.T) (*Repository, *database.Database) {
	t.Helper()
	db, err := database.Open(config.Database{
		Driver: config.DatabaseDriverSQLite,
		Path:   filepath.Join(t.TempDir(), "reports.db"),
	}, logger.Silent)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	sqlDB, err := db.DB.DB()
	require.NoError(t, err)
	return NewRepository(sqlDB, db.Driver), db
}

func dayOffset(n int) *time.Time {
	d := entities.Today().AddDate(0, 0, n)
	return &d
}

func TestRepository_LoanStatusSummary(t *testing.T) {
	repo, db := setupTestDB(t)

	book := entities.Book{Title: "Kindred"}
	require.NoError(t, db.DB.Create(&book).Error)
	for _, status := range []entities.LoanStatus{"a", "a", "o", "m"} {
		require.NoError(t, db.DB.Create(&entities.BookInstance{BookID: book.ID, Status: status}).Error)
	}

	summary, err := repo.LoanStatusSummary(context.Background())
	require.NoError(t, err)
	require.Len(t, summary, 4)

	byStatus := make(map[entities.LoanStatus]int64)
	for _, row := range summary {
		byStatus[row.Status] = row.Count
	}
	assert.Equal(t, int64(2), byStatus[entities.LoanStatusAvailable])
	assert.Equal(t, int64(1), byStatus[entities.LoanStatusOnLoan])
	assert.Equal(t, int64(1), byStatus[entities.LoanStatusMaintenance])
	assert.Zero(t, byStatus[entities.LoanStatusReserved])
	assert.Equal(t, "Maintenance", summary[0].Label)
}

func TestRepository_GenreSummary(t *testing.T) {
	repo, db := setupTestDB(t)

	var fantasy entities.Genre
	require.NoError(t, db.DB.Where("name = ?", "Fantasy").First(&fantasy).Error)
	book := entities.Book{Title: "Earthsea", Genres: []entities.Genre{fantasy}}
	require.NoError(t, db.DB.Create(&book).Error)

	summary, err := repo.GenreSummary(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, summary)
	assert.Equal(t, "Fantasy", summary[0].Genre)
	assert.Equal(t, int64(1), summary[0].Books)
}

func TestRepository_OverdueLoans(t *testing.T) {
	repo, db := setupTestDB(t)

	reader := entities.User{Username: "reader", Email: "reader@example.com"}
	require.NoError(t, db.DB.Create(&reader).Error)
	book := entities.Book{Title: "Parable of the Sower"}
	require.NoError(t, db.DB.Create(&book).Error)

	for _, instance := range []entities.BookInstance{
		{BookID: book.ID, Status: entities.LoanStatusOnLoan, BorrowerID: &reader.ID, DueBack: dayOffset(-5)},
		{BookID: book.ID, Status: entities.LoanStatusOnLoan, BorrowerID: &reader.ID, DueBack: dayOffset(-1)},
		{BookID: book.ID, Status: entities.LoanStatusOnLoan, BorrowerID: &reader.ID, DueBack: dayOffset(2)},
		{BookID: book.ID, Status: entities.LoanStatusAvailable, DueBack: dayOffset(-9)},
	} {
		instance := instance
		require.NoError(t, db.DB.Create(&instance).Error)
	}

	loans, err := repo.OverdueLoans(context.Background(), entities.Today())
	require.NoError(t, err)
	require.Len(t, loans, 2)
	assert.Equal(t, 5, loans[0].DaysOverdue)
	assert.Equal(t, 1, loans[1].DaysOverdue)
	assert.Equal(t, "reader", loans[0].Borrower)
	assert.Equal(t, "Parable of the Sower", loans[0].Title)
}

func TestNewRepository_PlaceholderFormat(t *testing.T) {
	postgres := NewRepository(nil, config.DatabaseDriverPostgres)
	query, _, err := postgres.builder.Select("id").From("books").Where("id = ?", 1).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT id FROM books WHERE id = $1", query)

	sqlite := NewRepository(nil, config.DatabaseDriverSQLite)
	query, _, err = sqlite.builder.Select("id").From("books").Where("id = ?", 1).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT id FROM books WHERE id = ?", query)
}
