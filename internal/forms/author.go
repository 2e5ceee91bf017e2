package forms

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mrlokans/locallibrary/internal/entities"
)

// InitialDateOfDeath pre-fills the create form.
const InitialDateOfDeath = "2020-11-06"

const maxNameLength = 100

// AuthorForm creates and edits authors.
type AuthorForm struct {
	FirstName   string
	LastName    string
	DateOfBirth string
	DateOfDeath string
	Errors      Errors

	dateOfBirth *time.Time
	dateOfDeath *time.Time
}

// NewAuthorForm returns an empty create form.
func NewAuthorForm() *AuthorForm {
	return &AuthorForm{DateOfDeath: InitialDateOfDeath, Errors: Errors{}}
}

// AuthorFormFrom returns an edit form filled from author.
func AuthorFormFrom(author *entities.Author) *AuthorForm {
	return &AuthorForm{
		FirstName:   author.FirstName,
		LastName:    author.LastName,
		DateOfBirth: FormatDate(author.DateOfBirth),
		DateOfDeath: FormatDate(author.DateOfDeath),
		Errors:      Errors{},
	}
}

// BindAuthorForm reads the submitted author fields.
func BindAuthorForm(values Values) *AuthorForm {
	return &AuthorForm{
		FirstName:   strings.TrimSpace(values.PostForm("first_name")),
		LastName:    strings.TrimSpace(values.PostForm("last_name")),
		DateOfBirth: strings.TrimSpace(values.PostForm("date_of_birth")),
		DateOfDeath: strings.TrimSpace(values.PostForm("date_of_death")),
		Errors:      Errors{},
	}
}

// Validate checks every field and reports whether the form is valid.
func (f *AuthorForm) Validate() bool {
	validateName(f.Errors, "first_name", f.FirstName)
	validateName(f.Errors, "last_name", f.LastName)

	var ok bool
	if f.dateOfBirth, ok = parseOptionalDate(f.DateOfBirth); !ok {
		f.Errors.Add("date_of_birth", MsgInvalidDate)
	}
	if f.dateOfDeath, ok = parseOptionalDate(f.DateOfDeath); !ok {
		f.Errors.Add("date_of_death", MsgInvalidDate)
	}
	if f.dateOfBirth != nil && f.dateOfDeath != nil && f.dateOfDeath.Before(*f.dateOfBirth) {
		f.Errors.Add("date_of_death", "Date of death cannot be before date of birth.")
	}

	return !f.Errors.Any()
}

// Apply copies validated values onto author.
func (f *AuthorForm) Apply(author *entities.Author) {
	author.FirstName = f.FirstName
	author.LastName = f.LastName
	author.DateOfBirth = f.dateOfBirth
	author.DateOfDeath = f.dateOfDeath
}

func validateName(errs Errors, field, value string) {
	switch {
	case value == "":
		errs.Add(field, "This field is required.")
	case utf8.RuneCountInString(value) > maxNameLength:
		errs.Add(field, "Ensure this value has at most 100 characters.")
	}
}
