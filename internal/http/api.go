package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"github.com/mrlokans/locallibrary/internal/database/reports"
	"github.com/mrlokans/locallibrary/internal/entities"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 100
)

// APIController serves the JSON API.
type APIController struct {
	stats   catalogStats
	books   BookStore
	reports ReportStore
	today   func() time.Time
}

func NewAPIController(stats catalogStats, books BookStore, reportStore ReportStore, today func() time.Time) *APIController {
	return &APIController{
		stats:   stats,
		books:   books,
		reports: reportStore,
		today:   today,
	}
}

// StatsResponse is returned by GET /api/stats.
type StatsResponse struct {
	Counts   CatalogCounts         `json:"counts"`
	Statuses []reports.StatusCount `json:"statuses"`
	Genres   []reports.GenreCount  `json:"genres"`
}

// BookSummary is one search hit.
type BookSummary struct {
	ID       uint     `json:"id"`
	Title    string   `json:"title"`
	Author   string   `json:"author,omitempty"`
	ISBN     string   `json:"isbn,omitempty"`
	Language string   `json:"language,omitempty"`
	Genres   []string `json:"genres"`
	URL      string   `json:"url"`
}

// Stats returns the catalog totals with per-status and per-genre breakdowns.
// GET /api/stats
func (ac *APIController) Stats(c *gin.Context) {
	ctx := c.Request.Context()

	counts, err := ac.stats.counts(ctx)
	if err != nil {
		respondInternalError(c, err, "api stats counts")
		return
	}
	statuses, err := ac.reports.LoanStatusSummary(ctx)
	if err != nil {
		respondInternalError(c, err, "api stats statuses")
		return
	}
	genres, err := ac.reports.GenreSummary(ctx)
	if err != nil {
		respondInternalError(c, err, "api stats genres")
		return
	}

	c.JSON(http.StatusOK, StatsResponse{
		Counts:   counts,
		Statuses: statuses,
		Genres:   genres,
	})
}

// SearchBooks finds books by title.
// GET /api/books?q=&limit=
func (ac *APIController) SearchBooks(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	limit := parseLimitQuery(c, defaultSearchLimit, maxSearchLimit)

	books, err := ac.books.SearchBooks(query, limit)
	if err != nil {
		respondInternalError(c, err, "api search books")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"query": query,
		"count": len(books),
		"books": lo.Map(books, func(b entities.Book, _ int) BookSummary { return summarizeBook(b) }),
	})
}

// OverdueLoans lists every loan past its due date.
// GET /api/loans/overdue
func (ac *APIController) OverdueLoans(c *gin.Context) {
	loans, err := ac.reports.OverdueLoans(c.Request.Context(), ac.today())
	if err != nil {
		respondInternalError(c, err, "api overdue loans")
		return
	}
	if loans == nil {
		loans = []reports.OverdueLoan{}
	}

	c.JSON(http.StatusOK, gin.H{
		"date":  ac.today().Format("2006-01-02"),
		"count": len(loans),
		"loans": loans,
	})
}

func summarizeBook(b entities.Book) BookSummary {
	summary := BookSummary{
		ID:     b.ID,
		Title:  b.Title,
		ISBN:   b.ISBN,
		Genres: lo.Map(b.Genres, func(g entities.Genre, _ int) string { return g.Name }),
		URL:    bookURL(b.ID),
	}
	if b.Author != nil {
		summary.Author = b.Author.String()
	}
	if b.Language != nil {
		summary.Language = b.Language.Name
	}
	return summary
}
