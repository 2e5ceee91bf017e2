package http

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mikestefanello/backlite"

	auditrepo "github.com/mrlokans/locallibrary/internal/database/audit"
	"github.com/mrlokans/locallibrary/internal/database/reports"
	"github.com/mrlokans/locallibrary/internal/entities"
)

// AuthorStore is the author persistence used by the handlers.
type AuthorStore interface {
	CountAuthors() (int64, error)
	ListAuthors(limit, offset int) ([]entities.Author, int64, error)
	GetAllAuthors() ([]entities.Author, error)
	GetAuthorByID(id uint) (*entities.Author, error)
	CreateAuthor(author *entities.Author) error
	UpdateAuthor(author *entities.Author) error
	DeleteAuthor(id uint) error
}

// BookStore is the book, genre and language persistence used by the handlers.
type BookStore interface {
	CountBooks() (int64, error)
	CountBooksWithTitleContaining(word string) (int64, error)
	SearchBooks(query string, limit int) ([]entities.Book, error)
	ISBNTaken(isbn string, excludeID uint) (bool, error)
	ListBooks(limit, offset int) ([]entities.Book, int64, error)
	GetBookByID(id uint) (*entities.Book, error)
	CreateBook(book *entities.Book, genreIDs []uint) error
	UpdateBook(book *entities.Book, genreIDs []uint) error
	DeleteBook(id uint) error
	GetAllGenres() ([]entities.Genre, error)
	GetAllLanguages() ([]entities.Language, error)
	CountGenres() (int64, error)
}

// LoanStore is the book copy persistence used by the handlers.
type LoanStore interface {
	CountInstances() (int64, error)
	CountInstancesByStatus(status entities.LoanStatus) (int64, error)
	GetInstanceByID(id uuid.UUID) (*entities.BookInstance, error)
	ListOnLoanByBorrower(borrowerID uint, limit, offset int) ([]entities.BookInstance, int64, error)
	ListOnLoan(limit, offset int) ([]entities.BookInstance, int64, error)
	RenewInstance(id uuid.UUID, dueBack time.Time) error
	MarkReturned(id uuid.UUID) error
}

// ReportStore runs the aggregate queries behind the JSON API.
type ReportStore interface {
	LoanStatusSummary(ctx context.Context) ([]reports.StatusCount, error)
	GenreSummary(ctx context.Context) ([]reports.GenreCount, error)
	OverdueLoans(ctx context.Context, day time.Time) ([]reports.OverdueLoan, error)
}

// AuditLogger records catalog changes and serves the audit log page.
type AuditLogger interface {
	LogCreate(userID uint, entityType, entityID, name string)
	LogUpdate(userID uint, entityType, entityID, name string)
	LogDelete(userID uint, entityType, entityID, name string, err error)
	LogRenew(userID uint, instanceID uuid.UUID, title string, dueBack time.Time)
	LogReturn(userID uint, instanceID uuid.UUID, title string)
	LogAuth(userID uint, action string, ipAddr, userAgent string, success bool)
	ListEvents(filter auditrepo.Filter, limit, offset int) ([]entities.AuditEvent, int64, error)
}

// TaskQueue enqueues background jobs and reports on them.
type TaskQueue interface {
	EnqueueOverdueScan(day time.Time) (string, error)
	EnqueueAuditCleanup(retentionDays int) (string, error)
	Status(ctx context.Context, taskID string) (backlite.TaskStatus, error)
}
