package http

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"github.com/mrlokans/locallibrary/internal/audit"
	"github.com/mrlokans/locallibrary/internal/auth"
	"github.com/mrlokans/locallibrary/internal/entities"
	"github.com/mrlokans/locallibrary/internal/forms"
)

const (
	msgInvalidChoice = "Select a valid choice. That choice is not one of the available choices."
	msgISBNTaken     = "Book with this ISBN already exists."
)

// BooksController serves the book pages and the book editor.
type BooksController struct {
	books    BookStore
	authors  AuthorStore
	audit    AuditLogger
	stats    catalogStats
	pageSize int
}

func NewBooksController(books BookStore, authors AuthorStore, auditLog AuditLogger, stats catalogStats, pageSize int) *BooksController {
	return &BooksController{
		books:    books,
		authors:  authors,
		audit:    auditLog,
		stats:    stats,
		pageSize: pageSize,
	}
}

// bookChoices are the options of the book form's select boxes.
type bookChoices struct {
	Authors   []entities.Author
	Genres    []entities.Genre
	Languages []entities.Language
}

// List renders one page of books.
// GET /books
func (bc *BooksController) List(c *gin.Context) {
	books, page, ok := listPage(c, bc.pageSize, bc.books.ListBooks, "list books")
	if !ok {
		return
	}

	render(c, http.StatusOK, "book_list", gin.H{
		"Title":      "Book List",
		"Books":      books,
		"Pagination": page,
	})
}

// Detail renders a book with its copies.
// GET /book/:id
func (bc *BooksController) Detail(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := bc.books.GetBookByID(id)
	if err != nil {
		renderLookupError(c, err, "get book")
		return
	}

	render(c, http.StatusOK, "book_detail", gin.H{
		"Title": book.Title,
		"Book":  book,
	})
}

// CreatePage renders an empty book form.
// GET /book/create
func (bc *BooksController) CreatePage(c *gin.Context) {
	bc.renderForm(c, forms.NewBookForm(), nil)
}

// Create validates the submitted form and adds the book.
// POST /book/create
func (bc *BooksController) Create(c *gin.Context) {
	form := forms.BindBookForm(c)
	choices, ok := bc.validate(c, form, 0)
	if !ok {
		bc.renderFormWith(c, form, nil, choices)
		return
	}

	var book entities.Book
	form.Apply(&book)
	if err := bc.books.CreateBook(&book, form.GenreIDValues()); err != nil {
		renderInternalError(c, err, "create book")
		return
	}

	bc.stats.invalidate(c.Request.Context())
	if bc.audit != nil {
		bc.audit.LogCreate(auth.GetUserID(c), audit.EntityBook, strconv.FormatUint(uint64(book.ID), 10), book.Title)
	}

	c.Redirect(http.StatusFound, bookURL(book.ID))
}

// UpdatePage renders the form filled from an existing book.
// GET /book/:id/update
func (bc *BooksController) UpdatePage(c *gin.Context) {
	book, ok := bc.loadBook(c)
	if !ok {
		return
	}
	bc.renderForm(c, forms.BookFormFrom(book), book)
}

// Update validates the submitted form and saves the book.
// POST /book/:id/update
func (bc *BooksController) Update(c *gin.Context) {
	book, ok := bc.loadBook(c)
	if !ok {
		return
	}

	form := forms.BindBookForm(c)
	choices, ok := bc.validate(c, form, book.ID)
	if !ok {
		bc.renderFormWith(c, form, book, choices)
		return
	}

	form.Apply(book)
	if err := bc.books.UpdateBook(book, form.GenreIDValues()); err != nil {
		renderLookupError(c, err, "update book")
		return
	}

	bc.stats.invalidate(c.Request.Context())
	if bc.audit != nil {
		bc.audit.LogUpdate(auth.GetUserID(c), audit.EntityBook, strconv.FormatUint(uint64(book.ID), 10), book.Title)
	}

	c.Redirect(http.StatusFound, bookURL(book.ID))
}

// DeletePage asks for confirmation before deleting a book.
// GET /book/:id/delete
func (bc *BooksController) DeletePage(c *gin.Context) {
	book, ok := bc.loadBook(c)
	if !ok {
		return
	}
	render(c, http.StatusOK, "book_confirm_delete", gin.H{
		"Title": "Delete Book",
		"Book":  book,
	})
}

// Delete removes a book and every copy of it.
// POST /book/:id/delete
func (bc *BooksController) Delete(c *gin.Context) {
	book, ok := bc.loadBook(c)
	if !ok {
		return
	}

	err := bc.books.DeleteBook(book.ID)
	if bc.audit != nil {
		bc.audit.LogDelete(auth.GetUserID(c), audit.EntityBook, strconv.FormatUint(uint64(book.ID), 10), book.Title, err)
	}
	if err != nil {
		renderLookupError(c, err, "delete book")
		return
	}

	bc.stats.invalidate(c.Request.Context())
	c.Redirect(http.StatusFound, "/books")
}

func (bc *BooksController) loadBook(c *gin.Context) (*entities.Book, bool) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return nil, false
	}
	book, err := bc.books.GetBookByID(id)
	if err != nil {
		renderLookupError(c, err, "get book")
		return nil, false
	}
	return book, true
}

func (bc *BooksController) loadChoices() (bookChoices, error) {
	var choices bookChoices
	var err error
	if choices.Authors, err = bc.authors.GetAllAuthors(); err != nil {
		return choices, fmt.Errorf("load authors: %w", err)
	}
	if choices.Genres, err = bc.books.GetAllGenres(); err != nil {
		return choices, fmt.Errorf("load genres: %w", err)
	}
	if choices.Languages, err = bc.books.GetAllLanguages(); err != nil {
		return choices, fmt.Errorf("load languages: %w", err)
	}
	return choices, nil
}

// validate checks the form fields, that every selected option exists and
// that no other book than bookID has the ISBN. On a lookup failure it
// renders the error page and returns a nil choices value.
func (bc *BooksController) validate(c *gin.Context, form *forms.BookForm, bookID uint) (*bookChoices, bool) {
	choices, err := bc.loadChoices()
	if err != nil {
		renderInternalError(c, err, "book form choices")
		return nil, false
	}

	valid := form.Validate()
	if form.AuthorID != "" && !lo.ContainsBy(choices.Authors, func(a entities.Author) bool { return form.IsAuthor(a.ID) }) {
		form.Errors.Add("author", msgInvalidChoice)
		valid = false
	}
	if form.LanguageID != "" && !lo.ContainsBy(choices.Languages, func(l entities.Language) bool { return form.IsLanguage(l.ID) }) {
		form.Errors.Add("language", msgInvalidChoice)
		valid = false
	}
	known := lo.Map(choices.Genres, func(g entities.Genre, _ int) uint { return g.ID })
	if len(lo.Without(form.GenreIDValues(), known...)) > 0 {
		form.Errors.Add("genre", msgInvalidChoice)
		valid = false
	}
	if form.ISBN != "" && form.Errors.Get("isbn") == "" {
		taken, err := bc.books.ISBNTaken(form.ISBN, bookID)
		if err != nil {
			renderInternalError(c, err, "check isbn")
			return nil, false
		}
		if taken {
			form.Errors.Add("isbn", msgISBNTaken)
			valid = false
		}
	}

	return &choices, valid
}

func (bc *BooksController) renderForm(c *gin.Context, form *forms.BookForm, book *entities.Book) {
	choices, err := bc.loadChoices()
	if err != nil {
		renderInternalError(c, err, "book form choices")
		return
	}
	bc.renderFormWith(c, form, book, &choices)
}

// renderFormWith shows the form; a nil choices means an error page was
// already rendered.
func (bc *BooksController) renderFormWith(c *gin.Context, form *forms.BookForm, book *entities.Book, choices *bookChoices) {
	if choices == nil {
		return
	}
	title := "Create Book"
	if book != nil {
		title = "Update Book"
	}
	render(c, http.StatusOK, "book_form", gin.H{
		"Title":   title,
		"Form":    form,
		"Book":    book,
		"Choices": choices,
	})
}

func bookURL(id uint) string {
	return "/book/" + strconv.FormatUint(uint64(id), 10)
}
