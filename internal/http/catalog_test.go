package http

import (
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/locallibrary/internal/config"
	"github.com/mrlokans/locallibrary/internal/database"
	"github.com/mrlokans/locallibrary/internal/entities"
)

func sessionCookieFrom(t *testing.T, resp *http.Response) *http.Cookie {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == "session" {
			return c
		}
	}
	t.Fatalf("no session cookie in response")
	return nil
}

func TestIndex(t *testing.T) {
	app := newTestApp(t, config.AuthModeLocal)
	author := app.author("J.R.R.", "Tolkien")
	hobbit := app.book("The Hobbit", author)
	app.book("Silmarillion", author)
	app.available(hobbit)
	app.available(hobbit)

	t.Run("shows catalog counts", func(t *testing.T) {
		body := app.get("/", "").Body.String()

		assert.Contains(t, body, `id="num-books">2<`)
		assert.Contains(t, body, `id="num-instances">2<`)
		assert.Contains(t, body, `id="num-available">2<`)
		assert.Contains(t, body, `id="num-authors">1<`)
		assert.Contains(t, body, `id="num-genres">6<`)
	})

	t.Run("search word defaults to a space", func(t *testing.T) {
		body := app.get("/", "").Body.String()

		assert.Contains(t, body, `id="search-count">1<`, "only The Hobbit has a space in its title")
	})

	t.Run("search is case insensitive", func(t *testing.T) {
		body := app.get("/?search_word=HOB", "").Body.String()

		assert.Contains(t, body, `id="search-count">1<`)
	})

	t.Run("empty search word counts nothing", func(t *testing.T) {
		body := app.get("/?search_word=", "").Body.String()

		assert.Contains(t, body, `id="search-count">0<`)
	})

	t.Run("counts visits per session", func(t *testing.T) {
		w := app.get("/", "")
		assert.Contains(t, w.Body.String(), `id="num-visits">0<`)
		cookie := sessionCookieFrom(t, w.Result())

		w = app.do(httpGet("/"), "", cookie)
		assert.Contains(t, w.Body.String(), `id="num-visits">1</span> time.`)

		w = app.do(httpGet("/"), "", cookie)
		assert.Contains(t, w.Body.String(), `id="num-visits">2</span> times.`)
	})
}

func TestBookList(t *testing.T) {
	app := newTestApp(t, config.AuthModeNone)

	t.Run("empty catalog", func(t *testing.T) {
		w := app.get("/books", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "There are no books in the library.")
	})

	author := app.author("Ursula", "Le Guin")
	app.book("A Wizard of Earthsea", author)
	app.book("The Dispossessed", author)
	app.book("The Left Hand of Darkness", author)

	t.Run("first page is ordered by title", func(t *testing.T) {
		w := app.get("/books", "")
		body := w.Body.String()

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, body, "A Wizard of Earthsea")
		assert.Contains(t, body, "The Dispossessed")
		assert.NotContains(t, body, "The Left Hand of Darkness")
		assert.Contains(t, body, "Page 1 of 2.")
	})

	t.Run("second page", func(t *testing.T) {
		w := app.get("/books?page=2", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "The Left Hand of Darkness")
	})

	for _, page := range []string{"3", "0", "abc"} {
		t.Run("page "+page+" is not found", func(t *testing.T) {
			w := app.get("/books?page="+page, "")
			assert.Equal(t, http.StatusNotFound, w.Code)
		})
	}
}

func TestBookDetail(t *testing.T) {
	app := newTestApp(t, config.AuthModeLocal)
	reader, _ := app.user("reader", entities.UserRoleMember)
	author := app.author("Octavia", "Butler")
	book := app.book("Kindred", author)
	app.available(book)
	app.lent(book, reader, testToday.AddDate(0, 0, 5))

	t.Run("shows the book with its copies", func(t *testing.T) {
		w := app.get(bookURL(book.ID), "")
		body := w.Body.String()

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, body, "Title: Kindred")
		assert.Contains(t, body, "Butler, Octavia")
		assert.Contains(t, body, "Available")
		assert.Contains(t, body, "On loan")
		assert.Contains(t, body, "2026-03-15")
	})

	t.Run("unknown book", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, app.get("/book/999", "").Code)
	})

	t.Run("malformed id", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, app.get("/book/abc", "").Code)
	})
}

func TestBookCreateUpdateDelete(t *testing.T) {
	app := newTestApp(t, config.AuthModeLocal)
	_, token := app.user("librarian", entities.UserRoleLibrarian)
	author := app.author("Frank", "Herbert")

	genres, err := app.books.GetAllGenres()
	require.NoError(t, err)
	languages, err := app.books.GetAllLanguages()
	require.NoError(t, err)

	t.Run("create form lists the choices", func(t *testing.T) {
		w := app.get("/book/create", token)
		body := w.Body.String()

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, body, "Herbert, Frank")
		assert.Contains(t, body, genres[0].Name)
		assert.Contains(t, body, languages[0].Name)
	})

	t.Run("missing title re-renders the form", func(t *testing.T) {
		w := app.post("/book/create", token, url.Values{"summary": {"Spice"}})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "This field is required.")
		assert.Contains(t, w.Body.String(), "Spice")
	})

	t.Run("unknown author is not a valid choice", func(t *testing.T) {
		w := app.post("/book/create", token, url.Values{"title": {"Dune"}, "author": {"999"}})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), msgInvalidChoice)
	})

	t.Run("unknown genre is not a valid choice", func(t *testing.T) {
		w := app.post("/book/create", token, url.Values{"title": {"Dune"}, "genre": {"999"}})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), msgInvalidChoice)
	})

	var book *entities.Book
	t.Run("valid form creates the book", func(t *testing.T) {
		w := app.post("/book/create", token, url.Values{
			"title":    {"Dune"},
			"author":   {idString(author.ID)},
			"summary":  {"Spice"},
			"isbn":     {"9780441013593"},
			"genre":    {idString(genres[0].ID), idString(genres[1].ID)},
			"language": {idString(languages[0].ID)},
		})
		require.Equal(t, http.StatusFound, w.Code)

		found, err := app.books.SearchBooks("Dune", 1)
		require.NoError(t, err)
		require.Len(t, found, 1)
		book, err = app.books.GetBookByID(found[0].ID)
		require.NoError(t, err)

		assert.Equal(t, bookURL(book.ID), w.Header().Get("Location"))
		assert.Equal(t, author.ID, *book.AuthorID)
		assert.Len(t, book.Genres, 2)
		assert.Equal(t, languages[0].ID, *book.LanguageID)
	})
	require.NotNil(t, book)

	t.Run("duplicate isbn is rejected on create", func(t *testing.T) {
		w := app.post("/book/create", token, url.Values{"title": {"Dune (reprint)"}, "isbn": {"9780441013593"}})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), msgISBNTaken)

		found, err := app.books.SearchBooks("Dune", 0)
		require.NoError(t, err)
		assert.Len(t, found, 1)
	})

	t.Run("duplicate isbn is rejected on update", func(t *testing.T) {
		other := app.book("Children of Dune", author)

		w := app.post(bookURL(other.ID)+"/update", token, url.Values{"title": {"Children of Dune"}, "isbn": {"9780441013593"}})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), msgISBNTaken)

		unchanged, err := app.books.GetBookByID(other.ID)
		require.NoError(t, err)
		assert.Empty(t, unchanged.ISBN)
	})

	t.Run("book keeps its own isbn on update", func(t *testing.T) {
		w := app.post(bookURL(book.ID)+"/update", token, url.Values{
			"title":  {"Dune"},
			"author": {idString(author.ID)},
			"isbn":   {"9780441013593"},
		})

		assert.Equal(t, http.StatusFound, w.Code)
	})

	t.Run("update form is pre-filled", func(t *testing.T) {
		w := app.get(bookURL(book.ID)+"/update", token)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "9780441013593")
	})

	t.Run("update saves changes", func(t *testing.T) {
		w := app.post(bookURL(book.ID)+"/update", token, url.Values{
			"title":  {"Dune Messiah"},
			"author": {idString(author.ID)},
			"genre":  {idString(genres[2].ID)},
		})
		require.Equal(t, http.StatusFound, w.Code)

		updated, err := app.books.GetBookByID(book.ID)
		require.NoError(t, err)
		assert.Equal(t, "Dune Messiah", updated.Title)
		require.Len(t, updated.Genres, 1)
		assert.Equal(t, genres[2].ID, updated.Genres[0].ID)
	})

	t.Run("delete asks for confirmation", func(t *testing.T) {
		w := app.get(bookURL(book.ID)+"/delete", token)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Are you sure you want to delete the book?")
	})

	t.Run("delete removes the book and its copies", func(t *testing.T) {
		instance := app.available(book)

		w := app.post(bookURL(book.ID)+"/delete", token, nil)
		require.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/books", w.Header().Get("Location"))

		_, err := app.books.GetBookByID(book.ID)
		assert.ErrorIs(t, err, database.ErrNotFound)
		_, err = app.loans.GetInstanceByID(instance.ID)
		assert.ErrorIs(t, err, database.ErrNotFound)
	})

	t.Run("changes are audited", func(t *testing.T) {
		app.audit.Wait()
		events, total, err := app.audit.ListEvents(auditFilterFor(entities.AuditEventCreate, "book"), 10, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, "book_create", events[0].Action)
	})
}

func TestAuthorPages(t *testing.T) {
	app := newTestApp(t, config.AuthModeLocal)
	_, token := app.user("librarian", entities.UserRoleLibrarian)

	t.Run("create form pre-fills the date of death", func(t *testing.T) {
		w := app.get("/author/create", token)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "2020-11-06")
	})

	t.Run("death before birth is rejected", func(t *testing.T) {
		w := app.post("/author/create", token, url.Values{
			"first_name":    {"Jane"},
			"last_name":     {"Austen"},
			"date_of_birth": {"1817-07-18"},
			"date_of_death": {"1775-12-16"},
		})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Date of death cannot be before date of birth.")
	})

	t.Run("malformed date is rejected", func(t *testing.T) {
		w := app.post("/author/create", token, url.Values{
			"first_name":    {"Jane"},
			"last_name":     {"Austen"},
			"date_of_birth": {"16/12/1775"},
		})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Enter a valid date.")
	})

	w := app.post("/author/create", token, url.Values{
		"first_name":    {"Jane"},
		"last_name":     {"Austen"},
		"date_of_birth": {"1775-12-16"},
		"date_of_death": {"1817-07-18"},
	})
	require.Equal(t, http.StatusFound, w.Code)
	location := w.Header().Get("Location")
	require.True(t, strings.HasPrefix(location, "/author/"))

	t.Run("detail shows the author", func(t *testing.T) {
		w := app.get(location, "")
		body := w.Body.String()

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, body, "Austen, Jane")
		assert.Contains(t, body, "1775-12-16")
		assert.Contains(t, body, "This author has no books.")
	})

	t.Run("update saves changes", func(t *testing.T) {
		w := app.post(location+"/update", token, url.Values{
			"first_name": {"Jane"},
			"last_name":  {"Austen-Leigh"},
		})
		require.Equal(t, http.StatusFound, w.Code)
		assert.Contains(t, app.get(location, "").Body.String(), "Austen-Leigh, Jane")
	})

	t.Run("list shows the author", func(t *testing.T) {
		assert.Contains(t, app.get("/authors", "").Body.String(), "Austen-Leigh, Jane")
	})

	t.Run("unknown author", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, app.get("/author/999", "").Code)
	})
}

func TestAuthorDelete(t *testing.T) {
	app := newTestApp(t, config.AuthModeLocal)
	_, token := app.user("librarian", entities.UserRoleLibrarian)

	t.Run("author with books is kept", func(t *testing.T) {
		author := app.author("Isaac", "Asimov")
		app.book("Foundation", author)

		w := app.post(authorURL(author.ID)+"/delete", token, nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "cannot be deleted while they have books")
		assert.Contains(t, w.Body.String(), "Foundation")
		_, err := app.authors.GetAuthorByID(author.ID)
		assert.NoError(t, err)
	})

	t.Run("author without books is deleted", func(t *testing.T) {
		author := app.author("Arthur", "Clarke")

		w := app.post(authorURL(author.ID)+"/delete", token, nil)

		require.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/authors", w.Header().Get("Location"))
		_, err := app.authors.GetAuthorByID(author.ID)
		assert.ErrorIs(t, err, database.ErrNotFound)
	})
}
