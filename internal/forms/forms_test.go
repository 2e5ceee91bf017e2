package forms

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/locallibrary/internal/entities"
)

type formValues url.Values

func (v formValues) PostForm(key string) string        { return url.Values(v).Get(key) }
func (v formValues) PostFormArray(key string) []string { return url.Values(v)[key] }

var today = time.Date(2026, time.March, 10, 15, 30, 0, 0, time.UTC)

func TestDefaultRenewalDate(t *testing.T) {
	assert.Equal(t, "2026-03-31", DefaultRenewalDate(today).Format(DateLayout))

	form := NewRenewBookForm(today)
	assert.Equal(t, "2026-03-31", form.RenewalDate)
	assert.False(t, form.Errors.Any())
}

func TestRenewBookForm_Clean(t *testing.T) {
	tests := []struct {
		name    string
		date    string
		wantErr string
	}{
		{"today is allowed", "2026-03-10", ""},
		{"three weeks", "2026-03-31", ""},
		{"exactly four weeks", "2026-04-07", ""},
		{"yesterday", "2026-03-09", MsgRenewalInPast},
		{"four weeks and a day", "2026-04-08", MsgRenewalTooFar},
		{"empty", "", MsgInvalidDate},
		{"garbage", "next tuesday", MsgInvalidDate},
		{"wrong layout", "10/03/2026", MsgInvalidDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := BindRenewBookForm(formValues{FieldRenewalDate: {tt.date}})
			got, ok := form.Clean(today)

			if tt.wantErr == "" {
				require.True(t, ok)
				assert.Equal(t, tt.date, got.Format(DateLayout))
				assert.Equal(t, got, form.Cleaned())
				assert.False(t, form.Errors.Any())
				return
			}
			assert.False(t, ok)
			assert.Equal(t, tt.wantErr, form.Errors.Get(FieldRenewalDate))
		})
	}
}

func TestErrors_AddKeepsFirst(t *testing.T) {
	errs := Errors{}
	errs.Add("title", "first")
	errs.Add("title", "second")

	assert.Equal(t, "first", errs.Get("title"))
	assert.Equal(t, "", errs.Get("isbn"))
	assert.True(t, errs.Any())
}

func TestAuthorForm_InitialValues(t *testing.T) {
	form := NewAuthorForm()
	assert.Equal(t, "2020-11-06", form.DateOfDeath)
	assert.Empty(t, form.FirstName)
}

func TestAuthorForm_Validate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		form := BindAuthorForm(formValues{
			"first_name":    {" Octavia "},
			"last_name":     {"Butler"},
			"date_of_birth": {"1947-06-22"},
			"date_of_death": {"2006-02-24"},
		})
		require.True(t, form.Validate())

		var author entities.Author
		form.Apply(&author)
		assert.Equal(t, "Octavia", author.FirstName)
		assert.Equal(t, "Butler, Octavia", author.String())
		require.NotNil(t, author.DateOfBirth)
		assert.Equal(t, "1947-06-22", FormatDate(author.DateOfBirth))
	})

	t.Run("dates optional", func(t *testing.T) {
		form := BindAuthorForm(formValues{"first_name": {"A"}, "last_name": {"B"}})
		require.True(t, form.Validate())

		var author entities.Author
		form.Apply(&author)
		assert.Nil(t, author.DateOfBirth)
		assert.Nil(t, author.DateOfDeath)
	})

	t.Run("required names", func(t *testing.T) {
		form := BindAuthorForm(formValues{})
		assert.False(t, form.Validate())
		assert.Equal(t, "This field is required.", form.Errors.Get("first_name"))
		assert.Equal(t, "This field is required.", form.Errors.Get("last_name"))
	})

	t.Run("death before birth", func(t *testing.T) {
		form := BindAuthorForm(formValues{
			"first_name":    {"A"},
			"last_name":     {"B"},
			"date_of_birth": {"2000-01-02"},
			"date_of_death": {"2000-01-01"},
		})
		assert.False(t, form.Validate())
		assert.NotEmpty(t, form.Errors.Get("date_of_death"))
	})

	t.Run("bad date", func(t *testing.T) {
		form := BindAuthorForm(formValues{"first_name": {"A"}, "last_name": {"B"}, "date_of_birth": {"yesterday"}})
		assert.False(t, form.Validate())
		assert.Equal(t, MsgInvalidDate, form.Errors.Get("date_of_birth"))
	})

	t.Run("name length counts characters", func(t *testing.T) {
		form := BindAuthorForm(formValues{"first_name": {strings.Repeat("ø", maxNameLength)}, "last_name": {"Ødegård"}})
		assert.True(t, form.Validate(), form.Errors)

		form = BindAuthorForm(formValues{"first_name": {strings.Repeat("ø", maxNameLength+1)}, "last_name": {"B"}})
		assert.False(t, form.Validate())
		assert.Equal(t, "Ensure this value has at most 100 characters.", form.Errors.Get("first_name"))
	})
}

func TestAuthorFormFrom(t *testing.T) {
	dob := time.Date(1920, 1, 2, 0, 0, 0, 0, time.UTC)
	form := AuthorFormFrom(&entities.Author{FirstName: "Isaac", LastName: "Asimov", DateOfBirth: &dob})

	assert.Equal(t, "Isaac", form.FirstName)
	assert.Equal(t, "1920-01-02", form.DateOfBirth)
	assert.Empty(t, form.DateOfDeath)
}

func TestBookForm_Validate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		form := BindBookForm(formValues{
			"title":    {"Dune"},
			"author":   {"3"},
			"summary":  {"Spice."},
			"isbn":     {"9780441172719"},
			"genre":    {"2", "1", "2", ""},
			"language": {"1"},
		})
		require.True(t, form.Validate(), form.Errors)
		assert.Equal(t, []uint{2, 1}, form.GenreIDValues())
		assert.True(t, form.HasGenre(1))
		assert.False(t, form.HasGenre(5))
		assert.True(t, form.IsAuthor(3))
		assert.True(t, form.IsLanguage(1))

		var book entities.Book
		form.Apply(&book)
		assert.Equal(t, "Dune", book.Title)
		require.NotNil(t, book.AuthorID)
		assert.Equal(t, uint(3), *book.AuthorID)
		require.NotNil(t, book.LanguageID)
	})

	t.Run("optional relations", func(t *testing.T) {
		form := BindBookForm(formValues{"title": {"Anonymous"}})
		require.True(t, form.Validate())

		book := entities.Book{Author: &entities.Author{}}
		form.Apply(&book)
		assert.Nil(t, book.AuthorID)
		assert.Nil(t, book.Author)
		assert.Empty(t, form.GenreIDValues())
	})

	t.Run("errors", func(t *testing.T) {
		form := BindBookForm(formValues{
			"isbn":     {"12345"},
			"author":   {"abc"},
			"genre":    {"x"},
			"language": {"0"},
		})
		assert.False(t, form.Validate())
		assert.Equal(t, "This field is required.", form.Errors.Get("title"))
		assert.NotEmpty(t, form.Errors.Get("isbn"))
		assert.NotEmpty(t, form.Errors.Get("author"))
		assert.NotEmpty(t, form.Errors.Get("genre"))
		assert.NotEmpty(t, form.Errors.Get("language"))
	})

	t.Run("lengths count characters", func(t *testing.T) {
		form := BindBookForm(formValues{
			"title":   {strings.Repeat("é", maxTitleLength)},
			"summary": {strings.Repeat("ж", maxSummaryLength)},
		})
		assert.True(t, form.Validate(), form.Errors)

		form = BindBookForm(formValues{"title": {strings.Repeat("é", maxTitleLength+1)}})
		assert.False(t, form.Validate())
		assert.Equal(t, "Ensure this value has at most 200 characters.", form.Errors.Get("title"))
	})
}

func TestBookFormFrom(t *testing.T) {
	authorID := uint(7)
	form := BookFormFrom(&entities.Book{
		Title:    "Solaris",
		AuthorID: &authorID,
		Genres:   []entities.Genre{{ID: 2}, {ID: 4}},
	})

	assert.Equal(t, "7", form.AuthorID)
	assert.Equal(t, []string{"2", "4"}, form.GenreIDs)
	assert.Empty(t, form.LanguageID)
}
