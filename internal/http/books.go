package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookshelf/internal/auth"
	"github.com/mrlokans/bookshelf/internal/database/books"
	"github.com/mrlokans/bookshelf/internal/entities"
	"github.com/mrlokans/bookshelf/internal/forms"
	"github.com/mrlokans/bookshelf/internal/media"
)

// BooksController handles the catalog and single book pages.
type BooksController struct {
	pages
	books         BookStore
	statuses      StatusStore
	covers        media.Store
	discarder     media.Discarder
	maxCoverBytes int64
}

func NewBooksController(
	render auth.Renderer,
	flashes Flasher,
	bookStore BookStore,
	statusStore StatusStore,
	covers media.Store,
	discarder media.Discarder,
	maxCoverBytes int64,
) *BooksController {
	return &BooksController{
		pages:         pages{render: render, flashes: flashes},
		books:         bookStore,
		statuses:      statusStore,
		covers:        covers,
		discarder:     discarder,
		maxCoverBytes: maxCoverBytes,
	}
}

// Catalog lists every book, newest first. mine=1 keeps only the books the
// current user added.
// GET /catalog/?q=&genre=&mine=
func (bc *BooksController) Catalog(c *gin.Context) {
	ctx := c.Request.Context()
	query := strings.TrimSpace(c.Query("q"))
	genre := c.Query("genre")
	if !entities.Genre(genre).IsValid() {
		genre = ""
	}
	mine := c.Query("mine") == "1"

	filter := books.Filter{Query: query, Genre: entities.Genre(genre)}
	if mine {
		filter.OwnerID = currentUserID(c)
	}

	list, err := bc.books.List(ctx, filter)
	if err != nil {
		bc.respondInternalError(c, err, "list books")
		return
	}

	statusByBook, err := bc.statuses.StatusMap(ctx, currentUserID(c))
	if err != nil {
		bc.respondInternalError(c, err, "load statuses")
		return
	}

	bc.render.Render(c, http.StatusOK, "catalog", gin.H{
		"Title":        "Catalog",
		"Books":        list,
		"Query":        query,
		"Genre":        genre,
		"Mine":         mine,
		"StatusByBook": statusByBook,
	})
}

// NewPage shows an empty book form.
// GET /catalog/new/
func (bc *BooksController) NewPage(c *gin.Context) {
	bc.renderForm(c, nil, forms.BookForm{}, forms.Errors{})
}

// Create adds a book owned by the current user.
// POST /catalog/new/
func (bc *BooksController) Create(c *gin.Context) {
	ctx := c.Request.Context()

	form, errs := bc.bindBookForm(c)
	if !errs.Valid() {
		bc.renderForm(c, nil, form, errs)
		return
	}

	ownerID := currentUserID(c)
	book := &entities.Book{OwnerID: &ownerID}
	form.Apply(book)

	if form.HasNewCover() {
		key, err := bc.saveCover(ctx, &form)
		if err != nil {
			bc.respondInternalError(c, err, "save cover")
			return
		}
		book.CoverImage = key
	}

	if err := bc.books.Create(ctx, book); err != nil {
		media.DiscardAll(ctx, bc.discarder, book.CoverImage)
		bc.respondInternalError(c, err, "create book")
		return
	}

	slog.Info("book created", "book_id", book.ID, "owner_id", ownerID)
	bc.redirect(c, bookPath(book.ID), auth.FlashSuccess, fmt.Sprintf("Book %q added.", book.Title))
}

// Detail shows a book and the current user's reading status.
// GET /book/:id/
func (bc *BooksController) Detail(c *gin.Context) {
	book, ok := bc.loadBook(c)
	if !ok {
		return
	}

	status, err := bc.statuses.Get(c.Request.Context(), currentUserID(c), book.ID)
	if err != nil {
		bc.respondInternalError(c, err, "load status")
		return
	}
	bc.renderDetail(c, book, status, forms.Errors{})
}

// EditPage shows the book form prefilled with the stored values.
// GET /book/:id/edit/
func (bc *BooksController) EditPage(c *gin.Context) {
	book, ok := bc.loadOwnedBook(c)
	if !ok {
		return
	}
	bc.renderForm(c, book, forms.NewBookForm(book), forms.Errors{})
}

// Update saves the edited fields. A new upload replaces the cover; the
// remove checkbox clears it. The old file is discarded in both cases.
// POST /book/:id/edit/
func (bc *BooksController) Update(c *gin.Context) {
	ctx := c.Request.Context()
	book, ok := bc.loadOwnedBook(c)
	if !ok {
		return
	}

	form, errs := bc.bindBookForm(c)
	if !errs.Valid() {
		bc.renderForm(c, book, form, errs)
		return
	}

	oldCover := book.CoverImage
	form.Apply(book)

	switch {
	case form.HasNewCover():
		key, err := bc.saveCover(ctx, &form)
		if err != nil {
			bc.respondInternalError(c, err, "save cover")
			return
		}
		book.CoverImage = key
	case form.RemoveCover:
		book.CoverImage = ""
	}

	if err := bc.books.Update(ctx, book); err != nil {
		if book.CoverImage != oldCover {
			media.DiscardAll(ctx, bc.discarder, book.CoverImage)
		}
		bc.respondInternalError(c, err, "update book")
		return
	}
	if book.CoverImage != oldCover {
		media.DiscardAll(ctx, bc.discarder, oldCover)
	}

	bc.redirect(c, bookPath(book.ID), auth.FlashSuccess, "Book updated.")
}

// Delete removes a book, its statuses and its cover.
// POST /book/:id/delete/
func (bc *BooksController) Delete(c *gin.Context) {
	ctx := c.Request.Context()
	book, ok := bc.loadOwnedBook(c)
	if !ok {
		return
	}

	cover, err := bc.books.Delete(ctx, book.ID)
	if errors.Is(err, books.ErrBookNotFound) {
		bc.redirect(c, CatalogPath, auth.FlashError, "Book not found.")
		return
	}
	if err != nil {
		bc.respondInternalError(c, err, "delete book")
		return
	}
	media.DiscardAll(ctx, bc.discarder, cover)

	slog.Info("book deleted", "book_id", book.ID, "user_id", currentUserID(c))
	bc.redirect(c, CatalogPath, auth.FlashSuccess, fmt.Sprintf("Book %q deleted.", book.Title))
}

// UpdateStatus sets the current user's reading status for the book,
// creating the row on first use.
// POST /book/:id/update-status/
func (bc *BooksController) UpdateStatus(c *gin.Context) {
	ctx := c.Request.Context()
	book, ok := bc.loadBook(c)
	if !ok {
		return
	}
	userID := currentUserID(c)

	var form forms.StatusForm
	if err := c.ShouldBind(&form); err != nil {
		slog.Debug("failed to bind status form", "error", err)
	}
	if errs := form.Validate(); !errs.Valid() {
		current, err := bc.statuses.Get(ctx, userID, book.ID)
		if err != nil {
			bc.respondInternalError(c, err, "load status")
			return
		}
		bc.renderDetail(c, book, current, errs)
		return
	}

	if err := bc.statuses.Upsert(ctx, userID, book.ID, form.Status()); err != nil {
		bc.respondInternalError(c, err, "update status")
		return
	}

	bc.redirect(c, bookPath(book.ID), auth.FlashSuccess,
		fmt.Sprintf("Status updated: %s.", form.Status().Label()))
}

// LegacyDetail keeps old /catalog/book/?id=N links working.
// GET /catalog/book/
func (bc *BooksController) LegacyDetail(c *gin.Context) {
	bc.legacyRedirect(c, "")
}

// LegacyEdit keeps old /catalog/edit/?id=N links working.
// GET /catalog/edit/
func (bc *BooksController) LegacyEdit(c *gin.Context) {
	bc.legacyRedirect(c, "edit/")
}

func (bc *BooksController) legacyRedirect(c *gin.Context, suffix string) {
	id, ok := parseID(c.Query("id"))
	if !ok {
		bc.redirect(c, CatalogPath, auth.FlashError, "Book not found.")
		return
	}
	c.Redirect(http.StatusMovedPermanently, bookPath(id)+suffix)
}

// loadBook resolves :id. Malformed and unknown IDs send the user back to
// the catalog with an error flash.
func (bc *BooksController) loadBook(c *gin.Context) (*entities.Book, bool) {
	id, ok := parseID(c.Param("id"))
	if !ok {
		bc.redirect(c, CatalogPath, auth.FlashError, "Book not found.")
		return nil, false
	}

	book, err := bc.books.GetByID(c.Request.Context(), id)
	if errors.Is(err, books.ErrBookNotFound) {
		bc.redirect(c, CatalogPath, auth.FlashError, "Book not found.")
		return nil, false
	}
	if err != nil {
		bc.respondInternalError(c, err, "load book")
		return nil, false
	}
	return book, true
}

// loadOwnedBook is loadBook plus the ownership check shared by every
// mutating route.
func (bc *BooksController) loadOwnedBook(c *gin.Context) (*entities.Book, bool) {
	book, ok := bc.loadBook(c)
	if !ok {
		return nil, false
	}
	if err := authorizeOwner(book, currentUserID(c)); err != nil {
		slog.Warn("ownership check failed", "book_id", book.ID, "user_id", currentUserID(c), "path", c.Request.URL.Path)
		bc.redirect(c, bookPath(book.ID), auth.FlashError, "Only the person who added this book can change it.")
		return nil, false
	}
	return book, true
}

func authorizeOwner(book *entities.Book, userID uint) error {
	if !book.IsOwnedBy(userID) {
		return ErrNotOwner
	}
	return nil
}

func (bc *BooksController) bindBookForm(c *gin.Context) (forms.BookForm, forms.Errors) {
	var form forms.BookForm
	if err := forms.BindBook(c, &form); err != nil {
		slog.Debug("failed to bind book form", "error", err)
		errs := forms.Errors{}
		errs.Add(forms.NonFieldKey, "The submitted form could not be read.")
		return form, errs
	}
	return form, form.Validate(bc.maxCoverBytes)
}

func (bc *BooksController) saveCover(ctx context.Context, form *forms.BookForm) (string, error) {
	if bc.covers == nil {
		return "", fmt.Errorf("cover storage not configured")
	}
	return media.SaveUpload(ctx, bc.covers, form.Cover, form.CoverExtension, form.CoverContentType)
}

func (bc *BooksController) renderForm(c *gin.Context, book *entities.Book, form forms.BookForm, errs forms.Errors) {
	title, action := "Add a book", "/catalog/new/"
	if book != nil {
		title, action = "Edit "+book.Title, bookPath(book.ID)+"edit/"
	}
	bc.render.Render(c, http.StatusOK, "book_form", gin.H{
		"Title":  title,
		"Action": action,
		"Book":   book,
		"Form":   form,
		"Errors": errs,
	})
}

func (bc *BooksController) renderDetail(c *gin.Context, book *entities.Book, status entities.ReadingStatus, errs forms.Errors) {
	bc.render.Render(c, http.StatusOK, "book_detail", gin.H{
		"Title":   book.Title,
		"Book":    book,
		"Status":  status,
		"CanEdit": book.IsOwnedBy(currentUserID(c)),
		"Errors":  errs,
	})
}

func bookPath(id uint) string {
	return fmt.Sprintf("/book/%d/", id)
}
