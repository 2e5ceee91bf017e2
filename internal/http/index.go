package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/locallibrary/internal/auth"
)

// defaultSearchWord is used when the home page is opened without ?search_word.
const defaultSearchWord = " "

// IndexController renders the library home page.
type IndexController struct {
	stats    catalogStats
	books    BookStore
	sessions *auth.SessionManager
}

func NewIndexController(stats catalogStats, books BookStore, sessions *auth.SessionManager) *IndexController {
	return &IndexController{stats: stats, books: books, sessions: sessions}
}

// Index shows the catalog totals, a title search count and how many times
// this session has visited.
// GET /
func (ic *IndexController) Index(c *gin.Context) {
	counts, err := ic.stats.counts(c.Request.Context())
	if err != nil {
		renderInternalError(c, err, "index counts")
		return
	}

	searchWord := c.DefaultQuery("search_word", defaultSearchWord)
	var searchCount int64
	if searchWord != "" {
		searchCount, err = ic.books.CountBooksWithTitleContaining(strings.ToLower(searchWord))
		if err != nil {
			renderInternalError(c, err, "index search")
			return
		}
	}

	numVisits := 0
	if ic.sessions != nil {
		numVisits = ic.sessions.RecordVisit(c.Request.Context())
	}

	render(c, http.StatusOK, "index", gin.H{
		"Title":       "Local Library Home",
		"Counts":      counts,
		"SearchWord":  searchWord,
		"SearchCount": searchCount,
		"NumVisits":   numVisits,
	})
}
