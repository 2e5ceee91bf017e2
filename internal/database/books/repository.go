// Package books provides database operations for books and their lookup
// tables (genres and languages).
//
// # Usage
//
//	repo := books.NewRepository(db)
//	book, err := repo.GetBookByID(123)
//	n, err := repo.CountBooksWithTitleContaining("wild")
package books

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/mrlokans/locallibrary/internal/database"
	"github.com/mrlokans/locallibrary/internal/entities"
)

const titleLike = "LOWER(title) LIKE ? ESCAPE '\\'"

// Repository handles all book database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CountBooks returns the number of books in the catalog.
func (r *Repository) CountBooks() (int64, error) {
	var count int64
	err := r.db.Model(&entities.Book{}).Count(&count).Error
	return count, err
}

// CountBooksWithTitleContaining counts books whose title contains word,
// ignoring case.
func (r *Repository) CountBooksWithTitleContaining(word string) (int64, error) {
	var count int64
	err := r.db.Model(&entities.Book{}).
		Where(titleLike, likePattern(word)).
		Count(&count).Error
	return count, err
}

// SearchBooks returns books whose title contains query, ignoring case,
// with their author, genres and language.
func (r *Repository) SearchBooks(query string, limit int) ([]entities.Book, error) {
	var books []entities.Book
	q := r.db.Preload("Author").
		Preload("Genres", func(db *gorm.DB) *gorm.DB {
			return db.Order("name ASC")
		}).
		Preload("Language").
		Where(titleLike, likePattern(query)).
		Order("title ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&books).Error
	return books, err
}

// ISBNTaken reports whether a book other than excludeID already has isbn.
func (r *Repository) ISBNTaken(isbn string, excludeID uint) (bool, error) {
	var count int64
	q := r.db.Model(&entities.Book{}).Where("isbn = ?", isbn)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	err := q.Count(&count).Error
	return count > 0, err
}

// ListBooks returns a page of books with their authors, ordered by title,
// together with the total number of books.
func (r *Repository) ListBooks(limit, offset int) ([]entities.Book, int64, error) {
	var books []entities.Book
	var total int64

	if err := r.db.Model(&entities.Book{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := r.db.Preload("Author").Order("title ASC, id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	err := query.Find(&books).Error
	return books, total, err
}

// GetBookByID retrieves a book with its author, genres, language and copies.
func (r *Repository) GetBookByID(id uint) (*entities.Book, error) {
	var book entities.Book
	err := r.db.Preload("Author").
		Preload("Genres", func(db *gorm.DB) *gorm.DB {
			return db.Order("name ASC")
		}).
		Preload("Language").
		Preload("Instances", func(db *gorm.DB) *gorm.DB {
			return db.Order("due_back ASC, imprint ASC")
		}).
		First(&book, id).Error
	if err != nil {
		return nil, database.TranslateError(err)
	}
	return &book, nil
}

// CreateBook inserts a new book and links the given genres.
func (r *Repository) CreateBook(book *entities.Book, genreIDs []uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		genres, err := loadGenres(tx, genreIDs)
		if err != nil {
			return err
		}
		book.Genres = nil
		if err := tx.Omit("Author", "Language", "Instances", "Genres").Create(book).Error; err != nil {
			return fmt.Errorf("failed to create book: %w", err)
		}
		if err := replaceGenres(tx, book, genres); err != nil {
			return err
		}
		book.Genres = genres
		return nil
	})
}

// UpdateBook saves the editable columns of a book and replaces its genres.
func (r *Repository) UpdateBook(book *entities.Book, genreIDs []uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		genres, err := loadGenres(tx, genreIDs)
		if err != nil {
			return err
		}
		result := tx.Model(book).
			Select("title", "author_id", "summary", "isbn", "language_id").
			Updates(book)
		if result.Error != nil {
			return fmt.Errorf("failed to update book: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return database.ErrNotFound
		}
		if err := replaceGenres(tx, book, genres); err != nil {
			return err
		}
		book.Genres = genres
		return nil
	})
}

// DeleteBook removes a book together with its copies and genre links.
func (r *Repository) DeleteBook(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		book := entities.Book{ID: id}
		if err := tx.Where("book_id = ?", id).Delete(&entities.BookInstance{}).Error; err != nil {
			return fmt.Errorf("failed to delete book copies: %w", err)
		}
		if err := tx.Model(&book).Association("Genres").Clear(); err != nil {
			return fmt.Errorf("failed to unlink genres: %w", err)
		}
		result := tx.Delete(&book)
		if result.Error != nil {
			return fmt.Errorf("failed to delete book: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return database.ErrNotFound
		}
		return nil
	})
}

// GetAllGenres returns every genre ordered by name.
func (r *Repository) GetAllGenres() ([]entities.Genre, error) {
	var genres []entities.Genre
	err := r.db.Order("name ASC").Find(&genres).Error
	return genres, err
}

// GetAllLanguages returns every language ordered by name.
func (r *Repository) GetAllLanguages() ([]entities.Language, error) {
	var languages []entities.Language
	err := r.db.Order("name ASC").Find(&languages).Error
	return languages, err
}

// CountGenres returns the number of genres.
func (r *Repository) CountGenres() (int64, error) {
	var count int64
	err := r.db.Model(&entities.Genre{}).Count(&count).Error
	return count, err
}

func replaceGenres(tx *gorm.DB, book *entities.Book, genres []entities.Genre) error {
	association := tx.Model(book).Association("Genres")
	var err error
	if len(genres) == 0 {
		err = association.Clear()
	} else {
		err = association.Replace(genres)
	}
	if err != nil {
		return fmt.Errorf("failed to link genres: %w", err)
	}
	return nil
}

func loadGenres(tx *gorm.DB, ids []uint) ([]entities.Genre, error) {
	if len(ids) == 0 {
		return []entities.Genre{}, nil
	}
	var genres []entities.Genre
	if err := tx.Where("id IN ?", ids).Find(&genres).Error; err != nil {
		return nil, err
	}
	if len(genres) != len(uniqueIDs(ids)) {
		return nil, fmt.Errorf("unknown genre in %v: %w", ids, database.ErrNotFound)
	}
	return genres, nil
}

func uniqueIDs(ids []uint) map[uint]struct{} {
	set := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// likePattern lowercases word and escapes LIKE wildcards so the word
// matches literally.
func likePattern(word string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(strings.ToLower(word))
	return "%" + escaped + "%"
}
