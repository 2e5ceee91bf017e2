// Package authors provides database operations for author management.
//
// # Usage
//
//	repo := authors.NewRepository(db)
//	author, err := repo.GetAuthorByID(7)
package authors

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/mrlokans/locallibrary/internal/database"
	"github.com/mrlokans/locallibrary/internal/entities"
)

// ErrAuthorHasBooks is returned when deleting an author who is still
// referenced by at least one book.
var ErrAuthorHasBooks = errors.New("author has books")

// Repository handles all author database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new authors repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CountAuthors returns the number of authors.
func (r *Repository) CountAuthors() (int64, error) {
	var count int64
	err := r.db.Model(&entities.Author{}).Count(&count).Error
	return count, err
}

// ListAuthors returns a page of authors ordered by last then first name,
// together with the total number of authors.
func (r *Repository) ListAuthors(limit, offset int) ([]entities.Author, int64, error) {
	var authors []entities.Author
	var total int64

	if err := r.db.Model(&entities.Author{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := r.db.Order("last_name ASC, first_name ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	err := query.Find(&authors).Error
	return authors, total, err
}

// GetAllAuthors returns every author, for select boxes.
func (r *Repository) GetAllAuthors() ([]entities.Author, error) {
	var authors []entities.Author
	err := r.db.Order("last_name ASC, first_name ASC").Find(&authors).Error
	return authors, err
}

// GetAuthorByID retrieves an author with their books.
func (r *Repository) GetAuthorByID(id uint) (*entities.Author, error) {
	var author entities.Author
	err := r.db.Preload("Books", func(db *gorm.DB) *gorm.DB {
		return db.Order("title ASC")
	}).First(&author, id).Error
	if err != nil {
		return nil, database.TranslateError(err)
	}
	return &author, nil
}

// CreateAuthor inserts a new author.
func (r *Repository) CreateAuthor(author *entities.Author) error {
	if err := r.db.Create(author).Error; err != nil {
		return fmt.Errorf("failed to create author: %w", err)
	}
	return nil
}

// UpdateAuthor saves every column of an existing author.
func (r *Repository) UpdateAuthor(author *entities.Author) error {
	result := r.db.Model(author).Select("first_name", "last_name", "date_of_birth", "date_of_death").Updates(author)
	if result.Error != nil {
		return fmt.Errorf("failed to update author: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return database.ErrNotFound
	}
	return nil
}

// DeleteAuthor removes an author. Authors referenced by books are protected.
func (r *Repository) DeleteAuthor(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var books int64
		if err := tx.Model(&entities.Book{}).Where("author_id = ?", id).Count(&books).Error; err != nil {
			return err
		}
		if books > 0 {
			return ErrAuthorHasBooks
		}

		result := tx.Delete(&entities.Author{}, id)
		if result.Error != nil {
			return fmt.Errorf("failed to delete author: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return database.ErrNotFound
		}
		return nil
	})
}
