package forms

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookshelf/internal/entities"
)

// CoverField is the multipart field carrying the cover upload.
const CoverField = "cover_image"

// BookForm is the create/edit form for a catalog entry.
type BookForm struct {
	Title           string `form:"title" validate:"required,max=200"`
	Author          string `form:"author" validate:"max=100"`
	PublicationYear string `form:"publication_year" validate:"omitempty,numeric"`
	Genre           string `form:"genre" validate:"omitempty,genre"`
	Description     string `form:"description"`
	RemoveCover     bool   `form:"remove_cover"`

	Cover *multipart.FileHeader `form:"-" validate:"-"`

	// Set by Validate.
	Year             *int   `form:"-" validate:"-"`
	CoverContentType string `form:"-" validate:"-"`
	CoverExtension   string `form:"-" validate:"-"`
}

// NewBookForm prefills the form from an existing book.
func NewBookForm(book *entities.Book) BookForm {
	form := BookForm{
		Title:       book.Title,
		Author:      book.Author,
		Genre:       string(book.Genre),
		Description: book.Description,
	}
	if book.PublicationYear != nil {
		form.PublicationYear = strconv.Itoa(*book.PublicationYear)
	}
	return form
}

// BindBook reads the form fields and the optional cover upload.
func BindBook(c *gin.Context, form *BookForm) error {
	if err := c.ShouldBind(form); err != nil {
		return fmt.Errorf("bind book form: %w", err)
	}
	form.trim()

	fh, err := c.FormFile(CoverField)
	switch {
	case err == nil:
		form.Cover = fh
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	default:
		return fmt.Errorf("read cover upload: %w", err)
	}
	return nil
}

func (f *BookForm) trim() {
	f.Title = strings.TrimSpace(f.Title)
	f.Author = strings.TrimSpace(f.Author)
	f.PublicationYear = strings.TrimSpace(f.PublicationYear)
	f.Genre = strings.TrimSpace(f.Genre)
	f.Description = strings.TrimSpace(f.Description)
}

// HasNewCover reports whether a cover file was submitted.
func (f *BookForm) HasNewCover() bool {
	return f.Cover != nil && f.Cover.Size > 0
}

// Validate checks every field. maxCoverBytes bounds the cover upload size.
func (f *BookForm) Validate(maxCoverBytes int64) Errors {
	errs := check(f)

	if f.PublicationYear != "" && !errs.Has("publication_year") {
		year, err := strconv.Atoi(f.PublicationYear)
		switch {
		case err != nil:
			errs.Add("publication_year", "Enter a whole number.")
		case year < entities.MinPublicationYear:
			errs.Add("publication_year", fmt.Sprintf("Ensure this value is greater than or equal to %d.", entities.MinPublicationYear))
		case year > entities.MaxPublicationYear:
			errs.Add("publication_year", fmt.Sprintf("Ensure this value is less than or equal to %d.", entities.MaxPublicationYear))
		default:
			f.Year = &year
		}
	}

	if f.HasNewCover() {
		if f.RemoveCover {
			errs.Add(CoverField, "Please either submit a file or check the clear checkbox, not both.")
		} else if msg := f.inspectCover(maxCoverBytes); msg != "" {
			errs.Add(CoverField, msg)
		}
	}

	return errs
}

func (f *BookForm) inspectCover(maxBytes int64) string {
	if maxBytes > 0 && f.Cover.Size > maxBytes {
		return fmt.Sprintf("Cover image must be at most %d KB.", maxBytes/1024)
	}

	file, err := f.Cover.Open()
	if err != nil {
		return "The uploaded file could not be read."
	}
	defer file.Close()

	mt, err := mimetype.DetectReader(file)
	if err != nil {
		return "The uploaded file could not be read."
	}
	if !strings.HasPrefix(mt.String(), "image/") {
		return "Upload a valid image. The file you uploaded was either not an image or a corrupted image."
	}

	f.CoverContentType = mt.String()
	f.CoverExtension = mt.Extension()
	return ""
}

// Apply copies the validated fields onto book. The cover is handled by the caller.
func (f *BookForm) Apply(book *entities.Book) {
	book.Title = f.Title
	book.Author = f.Author
	book.PublicationYear = f.Year
	book.Genre = entities.Genre(f.Genre)
	book.Description = f.Description
}

// StatusForm sets the current user's reading status for a book.
type StatusForm struct {
	ReadingStatus string `form:"reading_status" validate:"required,reading_status"`
}

func (f *StatusForm) Validate() Errors {
	f.ReadingStatus = strings.TrimSpace(f.ReadingStatus)
	return check(f)
}

func (f *StatusForm) Status() entities.ReadingStatus {
	return entities.ReadingStatus(f.ReadingStatus)
}
