// Package loans provides database operations for book instances: the
// borrowable copies of a book and their loan state.
//
// # Usage
//
//	repo := loans.NewRepository(db)
//	copies, total, err := repo.ListOnLoanByBorrower(userID, 10, 0)
//	err = repo.RenewInstance(id, entities.Today().AddDate(0, 0, 21))
package loans

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mrlokans/locallibrary/internal/database"
	"github.com/mrlokans/locallibrary/internal/entities"
)

var (
	// ErrNotOnLoan is returned when a loan operation targets a copy that is not lent out.
	ErrNotOnLoan = errors.New("book instance is not on loan")
	// ErrNotAvailable is returned when lending a copy that is not available.
	ErrNotAvailable = errors.New("book instance is not available")
)

// Repository handles all book instance database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new loans repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CountInstances returns the number of copies in the catalog.
func (r *Repository) CountInstances() (int64, error) {
	var count int64
	err := r.db.Model(&entities.BookInstance{}).Count(&count).Error
	return count, err
}

// CountInstancesByStatus returns the number of copies with the given status.
func (r *Repository) CountInstancesByStatus(status entities.LoanStatus) (int64, error) {
	var count int64
	err := r.db.Model(&entities.BookInstance{}).Where("status = ?", status).Count(&count).Error
	return count, err
}

// CreateInstance inserts a new copy. The ID is generated when unset.
func (r *Repository) CreateInstance(instance *entities.BookInstance) error {
	if err := r.db.Omit("Book", "Borrower").Create(instance).Error; err != nil {
		return fmt.Errorf("failed to create book instance: %w", err)
	}
	return nil
}

// GetInstanceByID retrieves a copy with its book, author and borrower.
func (r *Repository) GetInstanceByID(id uuid.UUID) (*entities.BookInstance, error) {
	var instance entities.BookInstance
	err := r.db.Preload("Book").Preload("Book.Author").Preload("Borrower").
		Where("id = ?", id.String()).
		First(&instance).Error
	if err != nil {
		return nil, database.TranslateError(err)
	}
	return &instance, nil
}

// ListOnLoanByBorrower returns a page of the user's borrowed copies ordered
// by due date, together with the total.
func (r *Repository) ListOnLoanByBorrower(borrowerID uint, limit, offset int) ([]entities.BookInstance, int64, error) {
	return r.listOnLoan(r.db.Where("borrower_id = ?", borrowerID), limit, offset)
}

// ListOnLoan returns a page of every borrowed copy ordered by due date,
// together with the total.
func (r *Repository) ListOnLoan(limit, offset int) ([]entities.BookInstance, int64, error) {
	return r.listOnLoan(r.db, limit, offset)
}

func (r *Repository) listOnLoan(scope *gorm.DB, limit, offset int) ([]entities.BookInstance, int64, error) {
	var instances []entities.BookInstance
	var total int64

	query := scope.Model(&entities.BookInstance{}).Where("status = ?", entities.LoanStatusOnLoan)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Preload("Book").Preload("Borrower").Order("due_back ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	err := query.Find(&instances).Error
	return instances, total, err
}

// FindOverdue returns every copy on loan whose due date is before day.
func (r *Repository) FindOverdue(day time.Time) ([]entities.BookInstance, error) {
	var instances []entities.BookInstance
	err := r.db.Preload("Book").Preload("Borrower").
		Where("status = ? AND due_back IS NOT NULL AND due_back < ?", entities.LoanStatusOnLoan, entities.DateOnly(day)).
		Order("due_back ASC").
		Find(&instances).Error
	return instances, err
}

// RenewInstance sets a new due date on a copy.
func (r *Repository) RenewInstance(id uuid.UUID, dueBack time.Time) error {
	due := entities.DateOnly(dueBack)
	return r.db.Transaction(func(tx *gorm.DB) error {
		var instance entities.BookInstance
		if err := tx.Where("id = ?", id.String()).First(&instance).Error; err != nil {
			return database.TranslateError(err)
		}
		if instance.Status != entities.LoanStatusOnLoan {
			return ErrNotOnLoan
		}
		result := tx.Model(&entities.BookInstance{}).
			Where("id = ? AND status = ?", id.String(), entities.LoanStatusOnLoan).
			Update("due_back", due)
		if result.Error != nil {
			return fmt.Errorf("failed to renew book instance: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNotOnLoan
		}
		return nil
	})
}

// LendInstance records an available copy as borrowed by the user until dueBack.
func (r *Repository) LendInstance(id uuid.UUID, borrowerID uint, dueBack time.Time) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var instance entities.BookInstance
		if err := tx.Where("id = ?", id.String()).First(&instance).Error; err != nil {
			return database.TranslateError(err)
		}
		if instance.Status != entities.LoanStatusAvailable {
			return ErrNotAvailable
		}
		return tx.Model(&instance).Updates(map[string]any{
			"status":      entities.LoanStatusOnLoan,
			"borrower_id": borrowerID,
			"due_back":    entities.DateOnly(dueBack),
		}).Error
	})
}

// MarkReturned makes a borrowed copy available again and clears the loan.
func (r *Repository) MarkReturned(id uuid.UUID) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var instance entities.BookInstance
		if err := tx.Where("id = ?", id.String()).First(&instance).Error; err != nil {
			return database.TranslateError(err)
		}
		if instance.Status != entities.LoanStatusOnLoan {
			return ErrNotOnLoan
		}
		return tx.Model(&instance).Updates(map[string]any{
			"status":      entities.LoanStatusAvailable,
			"borrower_id": nil,
			"due_back":    nil,
		}).Error
	})
}
