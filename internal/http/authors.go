package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/locallibrary/internal/audit"
	"github.com/mrlokans/locallibrary/internal/auth"
	"github.com/mrlokans/locallibrary/internal/database/authors"
	"github.com/mrlokans/locallibrary/internal/entities"
	"github.com/mrlokans/locallibrary/internal/forms"
)

// AuthorsController serves the author pages and the author editor.
type AuthorsController struct {
	authors  AuthorStore
	audit    AuditLogger
	stats    catalogStats
	pageSize int
}

func NewAuthorsController(authorStore AuthorStore, auditLog AuditLogger, stats catalogStats, pageSize int) *AuthorsController {
	return &AuthorsController{
		authors:  authorStore,
		audit:    auditLog,
		stats:    stats,
		pageSize: pageSize,
	}
}

// List renders one page of authors.
// GET /authors
func (ac *AuthorsController) List(c *gin.Context) {
	list, page, ok := listPage(c, ac.pageSize, ac.authors.ListAuthors, "list authors")
	if !ok {
		return
	}

	render(c, http.StatusOK, "author_list", gin.H{
		"Title":      "Author List",
		"Authors":    list,
		"Pagination": page,
	})
}

// Detail renders an author with their books.
// GET /author/:id
func (ac *AuthorsController) Detail(c *gin.Context) {
	author, ok := ac.loadAuthor(c)
	if !ok {
		return
	}

	render(c, http.StatusOK, "author_detail", gin.H{
		"Title":  author.String(),
		"Author": author,
	})
}

// CreatePage renders the author form with its initial values.
// GET /author/create
func (ac *AuthorsController) CreatePage(c *gin.Context) {
	renderAuthorForm(c, forms.NewAuthorForm(), nil)
}

// Create validates the submitted form and adds the author.
// POST /author/create
func (ac *AuthorsController) Create(c *gin.Context) {
	form := forms.BindAuthorForm(c)
	if !form.Validate() {
		renderAuthorForm(c, form, nil)
		return
	}

	var author entities.Author
	form.Apply(&author)
	if err := ac.authors.CreateAuthor(&author); err != nil {
		renderInternalError(c, err, "create author")
		return
	}

	ac.stats.invalidate(c.Request.Context())
	if ac.audit != nil {
		ac.audit.LogCreate(auth.GetUserID(c), audit.EntityAuthor, strconv.FormatUint(uint64(author.ID), 10), author.String())
	}

	c.Redirect(http.StatusFound, authorURL(author.ID))
}

// UpdatePage renders the form filled from an existing author.
// GET /author/:id/update
func (ac *AuthorsController) UpdatePage(c *gin.Context) {
	author, ok := ac.loadAuthor(c)
	if !ok {
		return
	}
	renderAuthorForm(c, forms.AuthorFormFrom(author), author)
}

// Update validates the submitted form and saves the author.
// POST /author/:id/update
func (ac *AuthorsController) Update(c *gin.Context) {
	author, ok := ac.loadAuthor(c)
	if !ok {
		return
	}

	form := forms.BindAuthorForm(c)
	if !form.Validate() {
		renderAuthorForm(c, form, author)
		return
	}

	form.Apply(author)
	if err := ac.authors.UpdateAuthor(author); err != nil {
		renderLookupError(c, err, "update author")
		return
	}

	if ac.audit != nil {
		ac.audit.LogUpdate(auth.GetUserID(c), audit.EntityAuthor, strconv.FormatUint(uint64(author.ID), 10), author.String())
	}

	c.Redirect(http.StatusFound, authorURL(author.ID))
}

// DeletePage asks for confirmation before deleting an author.
// GET /author/:id/delete
func (ac *AuthorsController) DeletePage(c *gin.Context) {
	author, ok := ac.loadAuthor(c)
	if !ok {
		return
	}
	renderAuthorConfirmDelete(c, author, "")
}

// Delete removes an author. Authors who still have books are kept and the
// confirmation page explains why.
// POST /author/:id/delete
func (ac *AuthorsController) Delete(c *gin.Context) {
	author, ok := ac.loadAuthor(c)
	if !ok {
		return
	}

	err := ac.authors.DeleteAuthor(author.ID)
	if ac.audit != nil {
		ac.audit.LogDelete(auth.GetUserID(c), audit.EntityAuthor, strconv.FormatUint(uint64(author.ID), 10), author.String(), err)
	}
	if errors.Is(err, authors.ErrAuthorHasBooks) {
		renderAuthorConfirmDelete(c, author, "This author cannot be deleted while they have books in the catalog. Delete or reassign their books first.")
		return
	}
	if err != nil {
		renderLookupError(c, err, "delete author")
		return
	}

	ac.stats.invalidate(c.Request.Context())
	c.Redirect(http.StatusFound, "/authors")
}

func (ac *AuthorsController) loadAuthor(c *gin.Context) (*entities.Author, bool) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return nil, false
	}
	author, err := ac.authors.GetAuthorByID(id)
	if err != nil {
		renderLookupError(c, err, "get author")
		return nil, false
	}
	return author, true
}

func renderAuthorForm(c *gin.Context, form *forms.AuthorForm, author *entities.Author) {
	title := "Create Author"
	if author != nil {
		title = "Update Author"
	}
	render(c, http.StatusOK, "author_form", gin.H{
		"Title":  title,
		"Form":   form,
		"Author": author,
	})
}

func renderAuthorConfirmDelete(c *gin.Context, author *entities.Author, errMsg string) {
	render(c, http.StatusOK, "author_confirm_delete", gin.H{
		"Title":  "Delete Author",
		"Author": author,
		"Error":  errMsg,
	})
}

func authorURL(id uint) string {
	return "/author/" + strconv.FormatUint(uint64(id), 10)
}
