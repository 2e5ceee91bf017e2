// Package reports runs the catalog's aggregate queries on the raw
// connection pool. Queries are built with squirrel so the same code serves
// both SQLite and Postgres placeholders.
package reports

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/mrlokans/locallibrary/internal/config"
	"github.com/mrlokans/locallibrary/internal/entities"
)

// StatusCount is the number of copies with one loan status.
type StatusCount struct {
	Status entities.LoanStatus `json:"status"`
	Label  string              `json:"label"`
	Count  int64               `json:"count"`
}

// GenreCount is the number of books tagged with one genre.
type GenreCount struct {
	Genre string `json:"genre"`
	Books int64  `json:"books"`
}

// OverdueLoan is one row of the overdue report.
type OverdueLoan struct {
	InstanceID  string    `json:"instance_id"`
	BookID      uint      `json:"book_id"`
	Title       string    `json:"title"`
	Borrower    string    `json:"borrower"`
	DueBack     time.Time `json:"due_back"`
	DaysOverdue int       `json:"days_overdue"`
}

type Repository struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

// NewRepository creates a reports repository for the given driver name
// ("sqlite" or "postgres").
func NewRepository(db *sql.DB, driver string) *Repository {
	var format sq.PlaceholderFormat = sq.Question
	if driver == config.DatabaseDriverPostgres {
		format = sq.Dollar
	}
	return &Repository{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(format).RunWith(db),
	}
}

// LoanStatusSummary returns a count for every loan status, including
// statuses with no copies.
func (r *Repository) LoanStatusSummary(ctx context.Context) ([]StatusCount, error) {
	rows, err := r.builder.
		Select("status", "COUNT(*)").
		From("book_instances").
		GroupBy("status").
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("loan status summary: %w", err)
	}
	defer rows.Close()

	counts := make(map[entities.LoanStatus]int64)
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[entities.LoanStatus(status)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	summary := make([]StatusCount, 0, len(entities.LoanStatuses))
	for _, status := range entities.LoanStatuses {
		summary = append(summary, StatusCount{
			Status: status,
			Label:  status.Label(),
			Count:  counts[status],
		})
	}
	return summary, nil
}

// GenreSummary returns the number of books per genre, busiest first.
func (r *Repository) GenreSummary(ctx context.Context) ([]GenreCount, error) {
	rows, err := r.builder.
		Select("genres.name", "COUNT(book_genres.book_id) AS books").
		From("genres").
		LeftJoin("book_genres ON book_genres.genre_id = genres.id").
		GroupBy("genres.name").
		OrderBy("books DESC", "genres.name ASC").
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("genre summary: %w", err)
	}
	defer rows.Close()

	var summary []GenreCount
	for rows.Next() {
		var row GenreCount
		if err := rows.Scan(&row.Genre, &row.Books); err != nil {
			return nil, err
		}
		summary = append(summary, row)
	}
	return summary, rows.Err()
}

// OverdueLoans lists copies on loan whose due date is before day, most
// overdue first.
func (r *Repository) OverdueLoans(ctx context.Context, day time.Time) ([]OverdueLoan, error) {
	today := entities.DateOnly(day)

	rows, err := r.builder.
		Select(
			"book_instances.id",
			"books.id",
			"books.title",
			"COALESCE(users.username, '')",
			"book_instances.due_back",
		).
		From("book_instances").
		Join("books ON books.id = book_instances.book_id").
		LeftJoin("users ON users.id = book_instances.borrower_id").
		Where(sq.Eq{"book_instances.status": string(entities.LoanStatusOnLoan)}).
		Where(sq.NotEq{"book_instances.due_back": nil}).
		Where(sq.Lt{"book_instances.due_back": today}).
		OrderBy("book_instances.due_back ASC").
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("overdue loans: %w", err)
	}
	defer rows.Close()

	var loans []OverdueLoan
	for rows.Next() {
		var loan OverdueLoan
		var dueBack sql.NullTime
		if err := rows.Scan(&loan.InstanceID, &loan.BookID, &loan.Title, &loan.Borrower, &dueBack); err != nil {
			return nil, err
		}
		loan.DueBack = entities.DateOnly(dueBack.Time)
		loan.DaysOverdue = int(today.Sub(loan.DueBack).Hours() / 24)
		loans = append(loans, loan)
	}
	return loans, rows.Err()
}
