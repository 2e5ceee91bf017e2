package http

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// Pagination describes one page of a list view.
type Pagination struct {
	Page     int
	PageSize int
	NumPages int
	Total    int64
}

// Offset is the number of items before this page.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PageSize
}

func (p Pagination) HasPrevious() bool { return p.Page > 1 }
func (p Pagination) HasNext() bool     { return p.Page < p.NumPages }
func (p Pagination) PreviousPage() int { return p.Page - 1 }
func (p Pagination) NextPage() int     { return p.Page + 1 }

// IsPaginated reports whether there is more than one page.
func (p Pagination) IsPaginated() bool {
	return p.NumPages > 1
}

// parsePageQuery reads the 1-based ?page= parameter. A missing parameter
// means page 1; anything that is not a positive integer is rejected.
func parsePageQuery(c *gin.Context) (int, bool) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		return 0, false
	}
	return page, true
}

// newPagination builds the page description once the total is known. The
// first page always exists, even for an empty list.
func newPagination(page, pageSize int, total int64) (Pagination, bool) {
	numPages := 1
	if total > 0 {
		numPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	if page > numPages {
		return Pagination{}, false
	}
	return Pagination{
		Page:     page,
		PageSize: pageSize,
		NumPages: numPages,
		Total:    total,
	}, true
}

// listPage runs a paginated query for the current request. It renders the
// 404 page itself when the page is malformed or past the end.
func listPage[T any](c *gin.Context, pageSize int, query func(limit, offset int) ([]T, int64, error), context string) ([]T, Pagination, bool) {
	page, ok := parsePageQuery(c)
	if !ok {
		renderNotFound(c)
		return nil, Pagination{}, false
	}

	items, total, err := query(pageSize, (page-1)*pageSize)
	if err != nil {
		renderInternalError(c, err, context)
		return nil, Pagination{}, false
	}

	pagination, ok := newPagination(page, pageSize, total)
	if !ok {
		renderNotFound(c)
		return nil, Pagination{}, false
	}
	return items, pagination, true
}
