package demo

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/samber/lo"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/locallibrary/internal/auth"
	"github.com/mrlokans/locallibrary/internal/config"
	"github.com/mrlokans/locallibrary/internal/database"
	"github.com/mrlokans/locallibrary/internal/database/authors"
	"github.com/mrlokans/locallibrary/internal/database/books"
	"github.com/mrlokans/locallibrary/internal/database/loans"
	"github.com/mrlokans/locallibrary/internal/database/users"
	"github.com/mrlokans/locallibrary/internal/entities"
)

// Demo account credentials printed on startup in demo mode.
const (
	LibrarianUsername = "librarian"
	ReaderUsername    = "reader"
	AccountPassword   = "library-demo"
)

type seedBook struct {
	title    string
	summary  string
	language string
	genres   []string
	imprint  string
}

type seedAuthor struct {
	first, last string
	born, died  string
	books       []seedBook
}

// Public domain works only.
var catalog = []seedAuthor{
	{"Mary", "Shelley", "1797-08-30", "1851-02-01", []seedBook{
		{"Frankenstein", "A young scientist creates a sapient creature in an unorthodox experiment.", "English", []string{"Science Fiction", "Thriller"}, "Lackington, 1818"},
		{"The Last Man", "A plague sweeps the late twenty-first century and leaves one survivor.", "English", []string{"Science Fiction"}, "Henry Colburn, 1826"},
	}},
	{"Herbert George", "Wells", "1866-09-21", "1946-08-13", []seedBook{
		{"The Time Machine", "A Victorian inventor travels to the year 802,701.", "English", []string{"Science Fiction"}, "Heinemann, 1895"},
		{"The War of the Worlds", "Martians invade southern England.", "English", []string{"Science Fiction", "Thriller"}, "Heinemann, 1898"},
	}},
	{"Jane", "Austen", "1775-12-16", "1817-07-18", []seedBook{
		{"Pride and Prejudice", "Elizabeth Bennet navigates manners, upbringing and marriage.", "English", []string{"Romance"}, "T. Egerton, 1813"},
		{"Emma", "A well-meaning matchmaker misreads the romances around her.", "English", []string{"Romance"}, "John Murray, 1815"},
	}},
	{"Arthur Conan", "Doyle", "1859-05-22", "1930-07-07", []seedBook{
		{"The Hound of the Baskervilles", "Sherlock Holmes investigates a family curse on Dartmoor.", "English", []string{"Mystery", "Thriller"}, "George Newnes, 1902"},
		{"A Study in Scarlet", "Holmes and Watson meet and solve their first case.", "English", []string{"Mystery"}, "Ward Lock, 1887"},
	}},
	{"Zane", "Grey", "1872-01-31", "1939-10-23", []seedBook{
		{"Riders of the Purple Sage", "A gunman rides into a Mormon settlement in southern Utah.", "English", []string{"Western", "Romance"}, "Harper, 1912"},
	}},
	{"Jules", "Verne", "1828-02-08", "1905-03-24", []seedBook{
		{"Vingt mille lieues sous les mers", "Professor Aronnax is held aboard Captain Nemo's submarine.", "French", []string{"Science Fiction"}, "Hetzel, 1870"},
	}},
	{"George", "MacDonald", "1824-12-10", "1905-09-18", []seedBook{
		{"Phantastes", "A young man wanders through Fairy Land.", "English", []string{"Fantasy"}, "Smith, Elder, 1858"},
	}},
}

// loanOffsets are due dates, in days from today, for the copies lent to the
// demo reader. The first one is already overdue.
var loanOffsets = []int{-3, 2, 9, 16, 21}

// Result summarises what SeedCatalog wrote.
type Result struct {
	Skipped   bool
	Authors   int
	Books     int
	Instances int
	Loans     int
}

// Seeder fills an empty catalog with sample data.
type Seeder struct {
	authors *authors.Repository
	books   *books.Repository
	loans   *loans.Repository
}

func NewSeeder(db *database.Database) *Seeder {
	return &Seeder{
		authors: authors.NewRepository(db.DB),
		books:   books.NewRepository(db.DB),
		loans:   loans.NewRepository(db.DB),
	}
}

// SeedCatalog adds sample authors, books and copies. A catalog that already
// holds books is left untouched. When borrowerID is non-zero some copies are
// lent to that user relative to today.
func (s *Seeder) SeedCatalog(today time.Time, borrowerID uint) (Result, error) {
	count, err := s.books.CountBooks()
	if err != nil {
		return Result{}, err
	}
	if count > 0 {
		return Result{Skipped: true}, nil
	}

	genres, err := s.books.GetAllGenres()
	if err != nil {
		return Result{}, err
	}
	genreIDs := lo.SliceToMap(genres, func(g entities.Genre) (string, uint) { return g.Name, g.ID })

	languages, err := s.books.GetAllLanguages()
	if err != nil {
		return Result{}, err
	}
	languageIDs := lo.SliceToMap(languages, func(l entities.Language) (string, uint) { return l.Name, l.ID })

	today = entities.DateOnly(today)
	var result Result
	bookIndex := 0

	for _, sa := range catalog {
		author := &entities.Author{
			FirstName:   sa.first,
			LastName:    sa.last,
			DateOfBirth: mustDay(sa.born),
			DateOfDeath: mustDay(sa.died),
		}
		if err := s.authors.CreateAuthor(author); err != nil {
			return result, fmt.Errorf("create author %s: %w", author, err)
		}
		result.Authors++

		for _, sb := range sa.books {
			book := &entities.Book{
				Title:    sb.title,
				Summary:  sb.summary,
				AuthorID: &author.ID,
			}
			if id, ok := languageIDs[sb.language]; ok {
				book.LanguageID = &id
			}
			ids := lo.FilterMap(sb.genres, func(name string, _ int) (uint, bool) {
				id, ok := genreIDs[name]
				return id, ok
			})
			if err := s.books.CreateBook(book, ids); err != nil {
				return result, fmt.Errorf("create book %q: %w", sb.title, err)
			}
			result.Books++

			lent, err := s.addCopies(book, sb.imprint, bookIndex, today, borrowerID)
			if err != nil {
				return result, err
			}
			result.Instances += 2
			result.Loans += lent
			bookIndex++
		}
	}

	return result, nil
}

// addCopies creates two copies of book. The first is always available; the
// second is lent, reserved or under maintenance depending on position.
func (s *Seeder) addCopies(book *entities.Book, imprint string, index int, today time.Time, borrowerID uint) (int, error) {
	first := &entities.BookInstance{BookID: book.ID, Imprint: imprint, Status: entities.LoanStatusAvailable}
	if err := s.loans.CreateInstance(first); err != nil {
		return 0, fmt.Errorf("create copy of %q: %w", book.Title, err)
	}

	second := &entities.BookInstance{BookID: book.ID, Imprint: imprint + " (reprint)", Status: entities.LoanStatusAvailable}
	if index%3 == 2 {
		second.Status = entities.LoanStatusMaintenance
	} else if index%3 == 1 && borrowerID == 0 {
		second.Status = entities.LoanStatusReserved
	}
	if err := s.loans.CreateInstance(second); err != nil {
		return 0, fmt.Errorf("create copy of %q: %w", book.Title, err)
	}

	if borrowerID == 0 || index >= len(loanOffsets) || second.Status != entities.LoanStatusAvailable {
		return 0, nil
	}
	due := today.AddDate(0, 0, loanOffsets[index])
	if err := s.loans.LendInstance(second.ID, borrowerID, due); err != nil {
		return 0, fmt.Errorf("lend copy of %q: %w", book.Title, err)
	}
	return 1, nil
}

// EnsureAccounts creates the demo librarian and reader if they are missing
// and returns the reader.
func EnsureAccounts(svc *auth.Service, repo auth.UserRepository) (*entities.User, error) {
	if _, err := ensureAccount(svc, repo, LibrarianUsername, entities.UserRoleLibrarian); err != nil {
		return nil, err
	}
	return ensureAccount(svc, repo, ReaderUsername, entities.UserRoleMember)
}

func ensureAccount(svc *auth.Service, repo auth.UserRepository, username string, role entities.UserRole) (*entities.User, error) {
	user, err := repo.GetUserByLogin(username)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}

	user, err = svc.CreateUser(username, username+"@demo.local", AccountPassword, role)
	if err != nil {
		return nil, fmt.Errorf("create demo account %s: %w", username, err)
	}
	log.Printf("Created demo %s account %q", role, username)
	return user, nil
}

// BuildDatabase writes a fresh SQLite demo database at path, replacing any
// existing file, with the demo accounts and a catalog lent to the reader.
func BuildDatabase(path string, bcryptCost int, today time.Time) (Result, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return Result{}, fmt.Errorf("create demo directory: %w", err)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return Result{}, fmt.Errorf("remove existing demo database: %w", err)
	}

	db, err := database.Open(config.Database{Driver: config.DatabaseDriverSQLite, Path: path}, logger.Warn)
	if err != nil {
		return Result{}, err
	}
	defer db.Close()

	userRepo := users.NewRepository(db.DB)
	reader, err := EnsureAccounts(auth.NewService(userRepo, config.Auth{BcryptCost: bcryptCost}), userRepo)
	if err != nil {
		return Result{}, err
	}
	return NewSeeder(db).SeedCatalog(today, reader.ID)
}

func mustDay(s string) *time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return &t
}
