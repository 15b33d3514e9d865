package entities

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// DefaultAuthor is stored when a book is saved without an author.
const DefaultAuthor = "Unknown author"

// Publication year bounds accepted for a book.
const (
	MinPublicationYear = 1000
	MaxPublicationYear = 2100
)

type Genre string

const (
	GenreFiction   Genre = "fiction"
	GenreFantasy   Genre = "fantasy"
	GenreSciFi     Genre = "scifi"
	GenreDetective Genre = "detective"
	GenreRomance   Genre = "romance"
	GenreBiography Genre = "biography"
	GenreHistory   Genre = "history"
	GenreScience   Genre = "science"
	GenreSelfHelp  Genre = "self_help"
	GenreOther     Genre = "other"
)

// DefaultGenre is used when a book is saved without a genre.
const DefaultGenre = GenreFiction

// Choice is a value/label pair rendered in select inputs.
type Choice struct {
	Value string
	Label string
}

// GenreChoices lists every genre in display order.
var GenreChoices = []Choice{
	{string(GenreFiction), "Fiction"},
	{string(GenreFantasy), "Fantasy"},
	{string(GenreSciFi), "Science fiction"},
	{string(GenreDetective), "Detective"},
	{string(GenreRomance), "Romance"},
	{string(GenreBiography), "Biography"},
	{string(GenreHistory), "History"},
	{string(GenreScience), "Science"},
	{string(GenreSelfHelp), "Self-help"},
	{string(GenreOther), "Other"},
}

// IsValid reports whether g is one of the known genres.
func (g Genre) IsValid() bool {
	for _, c := range GenreChoices {
		if c.Value == string(g) {
			return true
		}
	}
	return false
}

// Label returns the human readable genre name.
func (g Genre) Label() string {
	for _, c := range GenreChoices {
		if c.Value == string(g) {
			return c.Label
		}
	}
	return string(g)
}

type ReadingStatus string

const (
	ReadingStatusNotStarted ReadingStatus = "not_started"
	ReadingStatusReading    ReadingStatus = "reading"
	ReadingStatusFinished   ReadingStatus = "finished"
	ReadingStatusPlanned    ReadingStatus = "planned"
	ReadingStatusAbandoned  ReadingStatus = "abandoned"
)

// DefaultReadingStatus applies to books a user has not set a status for.
const DefaultReadingStatus = ReadingStatusNotStarted

// ReadingStatusChoices lists every reading status in display order.
var ReadingStatusChoices = []Choice{
	{string(ReadingStatusNotStarted), "Not started"},
	{string(ReadingStatusReading), "Reading"},
	{string(ReadingStatusFinished), "Finished"},
	{string(ReadingStatusPlanned), "Planned"},
	{string(ReadingStatusAbandoned), "Abandoned"},
}

func (s ReadingStatus) IsValid() bool {
	for _, c := range ReadingStatusChoices {
		if c.Value == string(s) {
			return true
		}
	}
	return false
}

func (s ReadingStatus) Label() string {
	for _, c := range ReadingStatusChoices {
		if c.Value == string(s) {
			return c.Label
		}
	}
	return string(s)
}

type Book struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Title           string    `gorm:"index;size:200;not null" json:"title"`
	Author          string    `gorm:"index;size:100;default:'Unknown author'" json:"author"`
	PublicationYear *int      `json:"publication_year,omitempty"`
	Genre           Genre     `gorm:"index;size:50;default:'fiction'" json:"genre"`
	Description     string    `gorm:"type:text" json:"description,omitempty"`
	CoverImage      string    `gorm:"size:255" json:"cover_image,omitempty"` // Media key, see media.Store
	OwnerID         *uint     `gorm:"index" json:"owner_id,omitempty"`
	Owner           *User     `gorm:"foreignKey:OwnerID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	CreatedAt       time.Time `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (Book) TableName() string {
	return "books"
}

// ApplyDefaults fills blank optional fields with their defaults.
func (b *Book) ApplyDefaults() {
	if b.Author == "" {
		b.Author = DefaultAuthor
	}
	if b.Genre == "" {
		b.Genre = DefaultGenre
	}
}

// BeforeSave keeps defaults in place for both creates and updates.
func (b *Book) BeforeSave(tx *gorm.DB) error {
	b.ApplyDefaults()
	return nil
}

// IsOwnedBy reports whether userID may modify the book.
func (b *Book) IsOwnedBy(userID uint) bool {
	return b.OwnerID != nil && userID != 0 && *b.OwnerID == userID
}

func (b *Book) String() string {
	return fmt.Sprintf("%s (%s)", b.Title, b.Author)
}

// UserStatus is one user's reading status for one book.
// The (user_id, book_id) pair is unique.
type UserStatus struct {
	ID            uint          `gorm:"primaryKey" json:"id"`
	UserID        uint          `gorm:"not null;uniqueIndex:idx_user_book" json:"user_id"`
	BookID        uint          `gorm:"not null;uniqueIndex:idx_user_book;index" json:"book_id"`
	ReadingStatus ReadingStatus `gorm:"size:20;not null;default:'not_started'" json:"reading_status"`
	User          User          `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Book          Book          `gorm:"foreignKey:BookID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"book,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

func (UserStatus) TableName() string {
	return "user_statuses"
}
