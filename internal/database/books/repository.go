// Package books provides database operations for the shared book catalog.
//
// # Usage
//
//	repo := books.NewRepository(db)
//	book, err := repo.GetByID(ctx, 123)
//	list, err := repo.List(ctx, books.Filter{Query: "tolkien"})
package books

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/mrlokans/bookshelf/internal/entities"
)

var ErrBookNotFound = errors.New("book not found")

// Filter narrows down catalog listings. Zero values match everything.
type Filter struct {
	Query   string
	Genre   entities.Genre
	OwnerID uint
}

// Repository handles all book database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new book. Defaults are applied by the entity save hook.
func (r *Repository) Create(ctx context.Context, book *entities.Book) error {
	if err := r.db.WithContext(ctx).Create(book).Error; err != nil {
		return fmt.Errorf("failed to create book: %w", err)
	}
	return nil
}

// Update saves every column of an existing book.
func (r *Repository) Update(ctx context.Context, book *entities.Book) error {
	if book.ID == 0 {
		return ErrBookNotFound
	}
	if err := r.db.WithContext(ctx).Omit("Owner").Save(book).Error; err != nil {
		return fmt.Errorf("failed to update book %d: %w", book.ID, err)
	}
	return nil
}

// GetByID retrieves a book with its owner.
func (r *Repository) GetByID(ctx context.Context, id uint) (*entities.Book, error) {
	var book entities.Book
	err := r.db.WithContext(ctx).Preload("Owner").First(&book, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBookNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get book %d: %w", id, err)
	}
	return &book, nil
}

// List returns catalog books matching the filter, newest first.
func (r *Repository) List(ctx context.Context, filter Filter) ([]entities.Book, error) {
	query := r.db.WithContext(ctx).Preload("Owner")

	if q := strings.TrimSpace(filter.Query); q != "" {
		pattern := "%" + escapeLike(strings.ToLower(q)) + "%"
		query = query.Where("LOWER(title) LIKE ? ESCAPE '\\' OR LOWER(author) LIKE ? ESCAPE '\\'", pattern, pattern)
	}
	if filter.Genre != "" {
		query = query.Where("genre = ?", filter.Genre)
	}
	if filter.OwnerID != 0 {
		query = query.Where("owner_id = ?", filter.OwnerID)
	}

	var books []entities.Book
	if err := query.Order("created_at DESC, id DESC").Find(&books).Error; err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	return books, nil
}

// Delete removes a book and its reading statuses in one transaction.
// It returns the cover key the caller should discard, if any.
func (r *Repository) Delete(ctx context.Context, id uint) (string, error) {
	var coverKey string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var book entities.Book
		if err := tx.Select("id", "cover_image").First(&book, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookNotFound
			}
			return err
		}
		if err := tx.Where("book_id = ?", id).Delete(&entities.UserStatus{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&entities.Book{}, id).Error; err != nil {
			return err
		}
		coverKey = book.CoverImage
		return nil
	})
	if errors.Is(err, ErrBookNotFound) {
		return "", err
	}
	if err != nil {
		return "", fmt.Errorf("failed to delete book %d: %w", id, err)
	}
	return coverKey, nil
}

// CoverKeys returns every cover key still referenced by a book.
func (r *Repository) CoverKeys(ctx context.Context) (map[string]struct{}, error) {
	var keys []string
	err := r.db.WithContext(ctx).Model(&entities.Book{}).
		Where("cover_image <> ''").
		Pluck("cover_image", &keys).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list cover keys: %w", err)
	}

	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set, nil
}

// Count returns the number of books in the catalog.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Book{}).Count(&count).Error
	return count, err
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
