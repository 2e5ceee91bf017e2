package http

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mrlokans/locallibrary/internal/database"
)

// --- Response Types ---

// ErrorResponse is the standard error response format for all API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`    // machine-readable error code
	Details any    `json:"details,omitempty"` // additional context (validation errors, etc.)
}

// PaginatedResponse wraps paginated data with metadata.
type PaginatedResponse struct {
	Data       any   `json:"data"`
	Total      int64 `json:"total"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
	HasMore    bool  `json:"has_more"`
	TotalPages int   `json:"total_pages,omitempty"`
}

// --- JSON Error Helpers ---

// respondBadRequest sends a 400 Bad Request response.
func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message})
}

// respondNotFound sends a 404 Not Found response.
func respondNotFound(c *gin.Context, resource string) {
	c.JSON(http.StatusNotFound, ErrorResponse{Error: resource + " not found"})
}

// respondInternalError logs the error and sends a 500 Internal Server Error response.
// The actual error is logged but not exposed to the client.
func respondInternalError(c *gin.Context, err error, context string) {
	log.Printf("Internal error (%s): %v", context, err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}

// --- HTML Helpers ---

// render executes a page template with the auth and demo data every layout needs.
func render(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["Auth"] = GetAuthTemplateData(c)
	data["Demo"] = GetDemoTemplateData(c)
	c.HTML(status, name, data)
}

// renderNotFound renders the 404 page.
func renderNotFound(c *gin.Context) {
	render(c, http.StatusNotFound, "404", gin.H{"Title": "Not found"})
}

// renderInternalError logs err and renders a generic error page.
func renderInternalError(c *gin.Context, err error, context string) {
	log.Printf("Internal error (%s): %v", context, err)
	render(c, http.StatusInternalServerError, "error", gin.H{
		"Title": "Server error",
		"Error": "Something went wrong. Please try again later.",
	})
}

// renderLookupError renders 404 for missing records and 500 for anything else.
func renderLookupError(c *gin.Context, err error, context string) {
	if errors.Is(err, database.ErrNotFound) {
		renderNotFound(c)
		return
	}
	renderInternalError(c, err, context)
}

// --- Parameter Parsing ---

// parseIDParam extracts an unsigned integer key from the URL. Keys that do
// not parse render the 404 page, the same as keys that match nothing.
func parseIDParam(c *gin.Context, paramName string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(paramName), 10, 32)
	if err != nil || id == 0 {
		renderNotFound(c)
		return 0, false
	}
	return uint(id), true
}

// parseUUIDParam extracts a book copy key from the URL, rendering 404 when
// it is not a UUID.
func parseUUIDParam(c *gin.Context, paramName string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(paramName))
	if err != nil {
		renderNotFound(c)
		return uuid.Nil, false
	}
	return id, true
}

// parseLimitQuery reads an optional ?limit= clamped to [1, maxLimit].
func parseLimitQuery(c *gin.Context, fallback, maxLimit int) int {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit < 1 {
		return fallback
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}
