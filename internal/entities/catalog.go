package entities

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LoanStatus is the availability code of a single BookInstance.
type LoanStatus string

const (
	LoanStatusMaintenance LoanStatus = "m"
	LoanStatusOnLoan      LoanStatus = "o"
	LoanStatusAvailable   LoanStatus = "a"
	LoanStatusReserved    LoanStatus = "r"
)

// LoanStatuses lists every status in display order.
var LoanStatuses = []LoanStatus{
	LoanStatusMaintenance,
	LoanStatusOnLoan,
	LoanStatusAvailable,
	LoanStatusReserved,
}

var loanStatusLabels = map[LoanStatus]string{
	LoanStatusMaintenance: "Maintenance",
	LoanStatusOnLoan:      "On loan",
	LoanStatusAvailable:   "Available",
	LoanStatusReserved:    "Reserved",
}

// Label returns the human-readable name of the status.
func (s LoanStatus) Label() string {
	if label, ok := loanStatusLabels[s]; ok {
		return label
	}
	return string(s)
}

// IsValid reports whether s is one of the known status codes.
func (s LoanStatus) IsValid() bool {
	_, ok := loanStatusLabels[s]
	return ok
}

type Genre struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:200" json:"name"` // e.g., "Science Fiction"
	CreatedAt time.Time `json:"created_at"`
}

type Language struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:200" json:"name"` // e.g., "English", "Farsi"
	CreatedAt time.Time `json:"created_at"`
}

type Author struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	FirstName   string     `gorm:"size:100" json:"first_name"`
	LastName    string     `gorm:"index;size:100" json:"last_name"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	DateOfDeath *time.Time `json:"date_of_death,omitempty"`
	Books       []Book     `gorm:"foreignKey:AuthorID" json:"books,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// String returns the author as "Last, First".
func (a Author) String() string {
	return fmt.Sprintf("%s, %s", a.LastName, a.FirstName)
}

type Book struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	Title      string         `gorm:"index;size:200" json:"title"`
	AuthorID   *uint          `gorm:"index" json:"author_id,omitempty"`
	Author     *Author        `gorm:"foreignKey:AuthorID;constraint:OnDelete:RESTRICT" json:"author,omitempty"`
	Summary    string         `gorm:"size:1000" json:"summary"`
	ISBN       string         `gorm:"column:isbn;size:13;uniqueIndex:idx_books_isbn,where:isbn <> ''" json:"isbn,omitempty"`
	LanguageID *uint          `gorm:"index" json:"language_id,omitempty"`
	Language   *Language      `gorm:"foreignKey:LanguageID" json:"language,omitempty"`
	Genres     []Genre        `gorm:"many2many:book_genres;" json:"genres,omitempty"`
	Instances  []BookInstance `gorm:"foreignKey:BookID;constraint:OnDelete:CASCADE" json:"instances,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

func (b Book) String() string {
	return b.Title
}

// GenreNames returns the names of the book's genres joined with commas.
func (b Book) GenreNames() string {
	names := ""
	for i, g := range b.Genres {
		if i > 0 {
			names += ", "
		}
		names += g.Name
	}
	return names
}

// BookInstance is a borrowable copy of a Book.
type BookInstance struct {
	ID         uuid.UUID  `gorm:"type:varchar(36);primaryKey" json:"id"`
	BookID     uint       `gorm:"index" json:"book_id"`
	Book       Book       `gorm:"foreignKey:BookID" json:"book,omitempty"`
	Imprint    string     `gorm:"size:200" json:"imprint"`
	DueBack    *time.Time `gorm:"index" json:"due_back,omitempty"`
	Status     LoanStatus `gorm:"index;size:1;default:'m'" json:"status"`
	BorrowerID *uint      `gorm:"index" json:"borrower_id,omitempty"`
	Borrower   *User      `gorm:"foreignKey:BorrowerID" json:"borrower,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (bi *BookInstance) BeforeCreate(tx *gorm.DB) error {
	if bi.ID == uuid.Nil {
		bi.ID = uuid.New()
	}
	if bi.Status == "" {
		bi.Status = LoanStatusMaintenance
	}
	if !bi.Status.IsValid() {
		return fmt.Errorf("invalid loan status %q", bi.Status)
	}
	return nil
}

// String returns "<id> (<title>)".
func (bi BookInstance) String() string {
	return fmt.Sprintf("%s (%s)", bi.ID, bi.Book.Title)
}

// IsOverdue reports whether the copy is past its due date.
func (bi BookInstance) IsOverdue() bool {
	return bi.IsOverdueOn(Today())
}

// IsOverdueOn reports whether the copy was past its due date on the given day.
func (bi BookInstance) IsOverdueOn(day time.Time) bool {
	return bi.DueBack != nil && bi.DueBack.Before(DateOnly(day))
}

// DateOnly truncates t to midnight UTC of its calendar day.
// All date columns are stored this way so they compare consistently.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns the current local calendar day as DateOnly.
func Today() time.Time {
	return DateOnly(time.Now())
}
