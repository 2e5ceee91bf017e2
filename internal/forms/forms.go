// Package forms binds, validates and applies the catalog's HTML forms.
//
// Forms read raw string values from a [Values] source (a *gin.Context
// satisfies it), keep those strings for redisplay, and collect one error
// message per field. A form is valid when its [Errors] map is empty.
package forms

import (
	"strconv"
	"strings"
	"time"
)

// DateLayout is the wire format of every date field (HTML <input type=date>).
const DateLayout = "2006-01-02"

// Values is the source of submitted form values.
type Values interface {
	PostForm(key string) string
	PostFormArray(key string) []string
}

// Errors maps a field name to its error message.
type Errors map[string]string

// Add records msg for field unless the field already has an error.
func (e Errors) Add(field, msg string) {
	if _, exists := e[field]; !exists {
		e[field] = msg
	}
}

// Get returns the error for field, or "".
func (e Errors) Get(field string) string {
	return e[field]
}

// Any reports whether any field has an error.
func (e Errors) Any() bool {
	return len(e) > 0
}

// FormatDate renders an optional date for a date input.
func FormatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(DateLayout)
}

func formatID(id *uint) string {
	if id == nil {
		return ""
	}
	return strconv.FormatUint(uint64(*id), 10)
}

// parseOptionalDate parses a date field. An empty value yields nil.
func parseOptionalDate(value string) (*time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, true
	}
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return nil, false
	}
	return &t, true
}

// parseOptionalID parses a select value holding a primary key. An empty
// value yields nil.
func parseOptionalID(value string) (*uint, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, true
	}
	id, err := strconv.ParseUint(value, 10, 32)
	if err != nil || id == 0 {
		return nil, false
	}
	v := uint(id)
	return &v, true
}
