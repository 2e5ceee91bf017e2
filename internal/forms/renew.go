package forms

import (
	"strings"
	"time"

	"github.com/mrlokans/locallibrary/internal/entities"
)

const (
	MsgInvalidDate     = "Enter a valid date."
	MsgRenewalInPast   = "Invalid date - renewal in past"
	MsgRenewalTooFar   = "Invalid date - renewal more than 4 weeks ahead"
	FieldRenewalDate   = "renewal_date"
	defaultRenewalDays = 21
	maxRenewalDays     = 28
)

// RenewBookForm is the librarian form for extending a loan.
type RenewBookForm struct {
	RenewalDate string
	Errors      Errors

	cleaned time.Time
}

// NewRenewBookForm returns the form pre-filled with the default renewal date.
func NewRenewBookForm(today time.Time) *RenewBookForm {
	return &RenewBookForm{
		RenewalDate: DefaultRenewalDate(today).Format(DateLayout),
		Errors:      Errors{},
	}
}

// BindRenewBookForm reads the submitted renewal date.
func BindRenewBookForm(values Values) *RenewBookForm {
	return &RenewBookForm{
		RenewalDate: strings.TrimSpace(values.PostForm(FieldRenewalDate)),
		Errors:      Errors{},
	}
}

// DefaultRenewalDate is three weeks after today.
func DefaultRenewalDate(today time.Time) time.Time {
	return entities.DateOnly(today).AddDate(0, 0, defaultRenewalDays)
}

// Clean validates the renewal date against today. The date must fall
// between today and four weeks from today, both inclusive.
func (f *RenewBookForm) Clean(today time.Time) (time.Time, bool) {
	day := entities.DateOnly(today)

	parsed, err := time.Parse(DateLayout, f.RenewalDate)
	if err != nil {
		f.Errors.Add(FieldRenewalDate, MsgInvalidDate)
		return time.Time{}, false
	}
	parsed = entities.DateOnly(parsed)

	if parsed.Before(day) {
		f.Errors.Add(FieldRenewalDate, MsgRenewalInPast)
		return time.Time{}, false
	}
	if parsed.After(day.AddDate(0, 0, maxRenewalDays)) {
		f.Errors.Add(FieldRenewalDate, MsgRenewalTooFar)
		return time.Time{}, false
	}

	f.cleaned = parsed
	return parsed, true
}

// Cleaned returns the date accepted by the last successful Clean.
func (f *RenewBookForm) Cleaned() time.Time {
	return f.cleaned
}
