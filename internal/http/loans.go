package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/locallibrary/internal/auth"
	"github.com/mrlokans/locallibrary/internal/database/loans"
	"github.com/mrlokans/locallibrary/internal/entities"
	"github.com/mrlokans/locallibrary/internal/forms"
)

// LoansController serves the borrowed-books pages and the librarian's
// renew and return actions.
type LoansController struct {
	loans    LoanStore
	audit    AuditLogger
	stats    catalogStats
	pageSize int
	today    func() time.Time
}

func NewLoansController(loanStore LoanStore, auditLog AuditLogger, stats catalogStats, pageSize int, today func() time.Time) *LoansController {
	return &LoansController{
		loans:    loanStore,
		audit:    auditLog,
		stats:    stats,
		pageSize: pageSize,
		today:    today,
	}
}

// MyBooks lists the copies the current user has on loan.
// GET /mybooks
func (lc *LoansController) MyBooks(c *gin.Context) {
	userID := auth.GetUserID(c)
	list, page, ok := listPage(c, lc.pageSize, func(limit, offset int) ([]entities.BookInstance, int64, error) {
		return lc.loans.ListOnLoanByBorrower(userID, limit, offset)
	}, "list my loans")
	if !ok {
		return
	}

	render(c, http.StatusOK, "mybooks", gin.H{
		"Title":      "Borrowed books",
		"Instances":  list,
		"Pagination": page,
	})
}

// Borrowed lists every copy on loan, for librarians.
// GET /borrowed
func (lc *LoansController) Borrowed(c *gin.Context) {
	list, page, ok := listPage(c, lc.pageSize, lc.loans.ListOnLoan, "list loans")
	if !ok {
		return
	}

	render(c, http.StatusOK, "borrowed", gin.H{
		"Title":      "All borrowed books",
		"Instances":  list,
		"Pagination": page,
	})
}

// RenewPage renders the renewal form with the default date.
// GET /book/:id/renew
func (lc *LoansController) RenewPage(c *gin.Context) {
	instance, ok := lc.loadInstance(c)
	if !ok {
		return
	}

	render(c, http.StatusOK, "renew_book", gin.H{
		"Title":    "Renew: " + instance.Book.Title,
		"Instance": instance,
		"Form":     forms.NewRenewBookForm(lc.today()),
	})
}

// Renew validates the renewal date and saves it as the copy's due date.
// POST /book/:id/renew
func (lc *LoansController) Renew(c *gin.Context) {
	instance, ok := lc.loadInstance(c)
	if !ok {
		return
	}

	form := forms.BindRenewBookForm(c)
	dueBack, valid := form.Clean(lc.today())
	if !valid {
		render(c, http.StatusOK, "renew_book", gin.H{
			"Title":    "Renew: " + instance.Book.Title,
			"Instance": instance,
			"Form":     form,
		})
		return
	}

	err := lc.loans.RenewInstance(instance.ID, dueBack)
	if errors.Is(err, loans.ErrNotOnLoan) {
		renderNotOnLoan(c, instance)
		return
	}
	if err != nil {
		renderLookupError(c, err, "renew book instance")
		return
	}

	if lc.audit != nil {
		lc.audit.LogRenew(auth.GetUserID(c), instance.ID, instance.Book.Title, dueBack)
	}

	c.Redirect(http.StatusFound, "/borrowed")
}

// Return marks a borrowed copy as available again.
// POST /bookinstance/:id/return
func (lc *LoansController) Return(c *gin.Context) {
	instance, ok := lc.loadInstance(c)
	if !ok {
		return
	}

	err := lc.loans.MarkReturned(instance.ID)
	if errors.Is(err, loans.ErrNotOnLoan) {
		renderNotOnLoan(c, instance)
		return
	}
	if err != nil {
		renderLookupError(c, err, "return book instance")
		return
	}

	lc.stats.invalidate(c.Request.Context())
	if lc.audit != nil {
		lc.audit.LogReturn(auth.GetUserID(c), instance.ID, instance.Book.Title)
	}

	c.Redirect(http.StatusFound, "/borrowed")
}

func renderNotOnLoan(c *gin.Context, instance *entities.BookInstance) {
	render(c, http.StatusConflict, "error", gin.H{
		"Title": "Not on loan",
		"Error": instance.Book.Title + " is not on loan.",
	})
}

func (lc *LoansController) loadInstance(c *gin.Context) (*entities.BookInstance, bool) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return nil, false
	}
	instance, err := lc.loans.GetInstanceByID(id)
	if err != nil {
		renderLookupError(c, err, "get book instance")
		return nil, false
	}
	return instance, true
}
