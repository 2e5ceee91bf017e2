package http

import (
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/locallibrary/internal/config"
	"github.com/mrlokans/locallibrary/internal/entities"
)

func TestMyBooks(t *testing.T) {
	app := newTestApp(t, config.AuthModeLocal)
	reader, readerToken := app.user("reader", entities.UserRoleMember)
	other, _ := app.user("other", entities.UserRoleMember)
	_, emptyToken := app.user("newcomer", entities.UserRoleMember)

	app.lent(app.book("Beloved", nil), reader, testToday.AddDate(0, 0, 10))
	app.lent(app.book("Jazz", nil), reader, testToday.AddDate(0, 0, 2))
	app.lent(app.book("Sula", nil), other, testToday.AddDate(0, 0, 1))

	t.Run("lists only the borrower's copies, soonest due first", func(t *testing.T) {
		w := app.get("/mybooks", readerToken)
		body := w.Body.String()

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, body, "Beloved")
		assert.Contains(t, body, "Jazz")
		assert.NotContains(t, body, "Sula")
		assert.Less(t, strings.Index(body, "Jazz"), strings.Index(body, "Beloved"))
	})

	t.Run("nothing borrowed", func(t *testing.T) {
		w := app.get("/mybooks", emptyToken)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "There are no books borrowed.")
	})
}

func TestBorrowed(t *testing.T) {
	app := newTestApp(t, config.AuthModeLocal)
	reader, _ := app.user("reader", entities.UserRoleMember)
	other, _ := app.user("other", entities.UserRoleMember)
	_, librarianToken := app.user("librarian", entities.UserRoleLibrarian)

	app.lent(app.book("Beloved", nil), reader, testToday.AddDate(0, 0, 10))
	app.lent(app.book("Sula", nil), other, testToday.AddDate(0, 0, 1))
	app.available(app.book("Jazz", nil))

	w := app.get("/borrowed", librarianToken)
	body := w.Body.String()

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, body, "Beloved")
	assert.Contains(t, body, "Sula")
	assert.NotContains(t, body, "Jazz")
	assert.Contains(t, body, "reader")
	assert.Contains(t, body, "other")
	assert.Contains(t, body, "Mark returned")
}

func TestRenewBook(t *testing.T) {
	app := newTestApp(t, config.AuthModeLocal)
	reader, _ := app.user("reader", entities.UserRoleMember)
	_, token := app.user("librarian", entities.UserRoleLibrarian)
	instance := app.lent(app.book("Kindred", nil), reader, testToday.AddDate(0, 0, 3))
	renewURL := "/book/" + instance.ID.String() + "/renew"

	t.Run("form defaults to three weeks from today", func(t *testing.T) {
		w := app.get(renewURL, token)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `value="2026-03-31"`)
		assert.Contains(t, w.Body.String(), "Renew: Kindred")
	})

	cases := []struct {
		name string
		date string
		want string
	}{
		{"date in the past", "2026-03-09", "Invalid date - renewal in past"},
		{"more than four weeks ahead", "2026-04-08", "Invalid date - renewal more than 4 weeks ahead"},
		{"not a date", "next week", "Enter a valid date."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := app.post(renewURL, token, url.Values{"renewal_date": {tc.date}})

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Contains(t, w.Body.String(), tc.want)

			unchanged, err := app.loans.GetInstanceByID(instance.ID)
			require.NoError(t, err)
			assert.Equal(t, "2026-03-13", unchanged.DueBack.Format("2006-01-02"))
		})
	}

	t.Run("today and four weeks ahead are accepted", func(t *testing.T) {
		for _, date := range []string{"2026-03-10", "2026-04-07"} {
			w := app.post(renewURL, token, url.Values{"renewal_date": {date}})

			require.Equal(t, http.StatusFound, w.Code, date)
			assert.Equal(t, "/borrowed", w.Header().Get("Location"))

			renewed, err := app.loans.GetInstanceByID(instance.ID)
			require.NoError(t, err)
			assert.Equal(t, date, renewed.DueBack.Format("2006-01-02"))
		}
	})

	t.Run("renewal is audited", func(t *testing.T) {
		app.audit.Wait()
		events, total, err := app.audit.ListEvents(auditFilterFor(entities.AuditEventLoan, "book_instance"), 10, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Equal(t, "book_instance_renew", events[0].Action)
	})

	t.Run("copy that is not on loan cannot be renewed", func(t *testing.T) {
		shelved := app.available(app.book("Parable of the Sower", nil))

		w := app.post("/book/"+shelved.ID.String()+"/renew", token, url.Values{"renewal_date": {"2026-03-17"}})

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "Parable of the Sower is not on loan.")

		unchanged, err := app.loans.GetInstanceByID(shelved.ID)
		require.NoError(t, err)
		assert.Equal(t, entities.LoanStatusAvailable, unchanged.Status)
		assert.Nil(t, unchanged.DueBack)
	})
}

func TestReturnBook(t *testing.T) {
	app := newTestApp(t, config.AuthModeLocal)
	reader, _ := app.user("reader", entities.UserRoleMember)
	_, token := app.user("librarian", entities.UserRoleLibrarian)
	instance := app.lent(app.book("Kindred", nil), reader, testToday.AddDate(0, 0, 3))
	returnURL := "/bookinstance/" + instance.ID.String() + "/return"

	w := app.post(returnURL, token, nil)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/borrowed", w.Header().Get("Location"))

	returned, err := app.loans.GetInstanceByID(instance.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.LoanStatusAvailable, returned.Status)
	assert.Nil(t, returned.BorrowerID)
	assert.Nil(t, returned.DueBack)

	w = app.post(returnURL, token, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "is not on loan")
}
