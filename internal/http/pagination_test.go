package http

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPagination(t *testing.T) {
	tests := []struct {
		name      string
		page      int
		total     int64
		wantOK    bool
		wantPages int
	}{
		{"empty list still has a first page", 1, 0, true, 1},
		{"empty list has no second page", 2, 0, false, 0},
		{"exact fit", 2, 20, true, 2},
		{"partial last page", 3, 21, true, 3},
		{"past the end", 4, 21, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok := newPagination(tt.page, 10, tt.total)

			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantPages, p.NumPages)
		})
	}
}

func TestPagination_Navigation(t *testing.T) {
	p, ok := newPagination(2, 10, 25)

	assert.True(t, ok)
	assert.Equal(t, 10, p.Offset())
	assert.True(t, p.IsPaginated())
	assert.True(t, p.HasPrevious())
	assert.True(t, p.HasNext())
	assert.Equal(t, 1, p.PreviousPage())
	assert.Equal(t, 3, p.NextPage())

	single, _ := newPagination(1, 10, 5)
	assert.False(t, single.IsPaginated())
	assert.False(t, single.HasPrevious())
	assert.False(t, single.HasNext())
}
