package forms

import (
	"strings"
	"unicode/utf8"

	"github.com/samber/lo"

	"github.com/mrlokans/locallibrary/internal/entities"
)

const (
	isbnLength       = 13
	maxTitleLength   = 200
	maxSummaryLength = 1000
)

// BookForm creates and edits books.
type BookForm struct {
	Title      string
	AuthorID   string
	Summary    string
	ISBN       string
	GenreIDs   []string
	LanguageID string
	Errors     Errors

	authorID   *uint
	languageID *uint
	genreIDs   []uint
}

// NewBookForm returns an empty create form.
func NewBookForm() *BookForm {
	return &BookForm{Errors: Errors{}}
}

// BookFormFrom returns an edit form filled from book.
func BookFormFrom(book *entities.Book) *BookForm {
	return &BookForm{
		Title:      book.Title,
		AuthorID:   formatID(book.AuthorID),
		Summary:    book.Summary,
		ISBN:       book.ISBN,
		GenreIDs:   lo.Map(book.Genres, func(g entities.Genre, _ int) string { return formatID(&g.ID) }),
		LanguageID: formatID(book.LanguageID),
		Errors:     Errors{},
	}
}

// BindBookForm reads the submitted book fields. Genres may repeat.
func BindBookForm(values Values) *BookForm {
	return &BookForm{
		Title:      strings.TrimSpace(values.PostForm("title")),
		AuthorID:   strings.TrimSpace(values.PostForm("author")),
		Summary:    strings.TrimSpace(values.PostForm("summary")),
		ISBN:       strings.TrimSpace(values.PostForm("isbn")),
		GenreIDs:   lo.Compact(lo.Map(values.PostFormArray("genre"), func(v string, _ int) string { return strings.TrimSpace(v) })),
		LanguageID: strings.TrimSpace(values.PostForm("language")),
		Errors:     Errors{},
	}
}

// Validate checks every field and reports whether the form is valid.
func (f *BookForm) Validate() bool {
	switch {
	case f.Title == "":
		f.Errors.Add("title", "This field is required.")
	case utf8.RuneCountInString(f.Title) > maxTitleLength:
		f.Errors.Add("title", "Ensure this value has at most 200 characters.")
	}
	if utf8.RuneCountInString(f.Summary) > maxSummaryLength {
		f.Errors.Add("summary", "Ensure this value has at most 1000 characters.")
	}
	if f.ISBN != "" && utf8.RuneCountInString(f.ISBN) != isbnLength {
		f.Errors.Add("isbn", "ISBN must be exactly 13 characters.")
	}

	var ok bool
	if f.authorID, ok = parseOptionalID(f.AuthorID); !ok {
		f.Errors.Add("author", "Select a valid choice.")
	}
	if f.languageID, ok = parseOptionalID(f.LanguageID); !ok {
		f.Errors.Add("language", "Select a valid choice.")
	}

	f.genreIDs = f.genreIDs[:0]
	for _, raw := range f.GenreIDs {
		id, ok := parseOptionalID(raw)
		if !ok || id == nil {
			f.Errors.Add("genre", "Select a valid choice.")
			continue
		}
		f.genreIDs = append(f.genreIDs, *id)
	}
	f.genreIDs = lo.Uniq(f.genreIDs)

	return !f.Errors.Any()
}

// Apply copies validated values onto book.
func (f *BookForm) Apply(book *entities.Book) {
	book.Title = f.Title
	book.AuthorID = f.authorID
	book.Summary = f.Summary
	book.ISBN = f.ISBN
	book.LanguageID = f.languageID
	if f.authorID == nil {
		book.Author = nil
	}
	if f.languageID == nil {
		book.Language = nil
	}
}

// GenreIDValues returns the validated genre keys.
func (f *BookForm) GenreIDValues() []uint {
	return f.genreIDs
}

// HasGenre reports whether the genre with id is selected, for rendering.
func (f *BookForm) HasGenre(id uint) bool {
	return lo.Contains(f.GenreIDs, formatID(&id))
}

// IsAuthor reports whether the author with id is selected, for rendering.
func (f *BookForm) IsAuthor(id uint) bool {
	return f.AuthorID == formatID(&id)
}

// IsLanguage reports whether the language with id is selected, for rendering.
func (f *BookForm) IsLanguage(id uint) bool {
	return f.LanguageID == formatID(&id)
}
