// Package statuses stores each user's reading status per book.
package statuses

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/bookshelf/internal/entities"
)

var ErrInvalidStatus = errors.New("invalid reading status")

// Repository handles user status database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new statuses repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Upsert sets the user's reading status for a book. The first call creates the
// row; later calls update it in place through the (user_id, book_id) unique index.
func (r *Repository) Upsert(ctx context.Context, userID, bookID uint, status entities.ReadingStatus) error {
	if !status.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	now := time.Now()
	row := entities.UserStatus{
		UserID:        userID,
		BookID:        bookID,
		ReadingStatus: status,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err := r.db.WithContext(ctx).Omit("User", "Book").Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "book_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"reading_status", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to save status for book %d: %w", bookID, err)
	}
	return nil
}

// Get returns the user's status for a book, or the default status when none is stored.
func (r *Repository) Get(ctx context.Context, userID, bookID uint) (entities.ReadingStatus, error) {
	var row entities.UserStatus
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND book_id = ?", userID, bookID).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return entities.DefaultReadingStatus, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get status for book %d: %w", bookID, err)
	}
	return row.ReadingStatus, nil
}

// StatusMap returns the user's stored statuses keyed by book ID.
func (r *Repository) StatusMap(ctx context.Context, userID uint) (map[uint]entities.ReadingStatus, error) {
	var rows []entities.UserStatus
	err := r.db.WithContext(ctx).
		Select("book_id", "reading_status").
		Where("user_id = ?", userID).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list statuses: %w", err)
	}

	out := make(map[uint]entities.ReadingStatus, len(rows))
	for _, row := range rows {
		out[row.BookID] = row.ReadingStatus
	}
	return out, nil
}

// ListForUser returns the user's statuses with their books, most recently updated first.
func (r *Repository) ListForUser(ctx context.Context, userID uint) ([]entities.UserStatus, error) {
	var rows []entities.UserStatus
	err := r.db.WithContext(ctx).
		Preload("Book").
		Where("user_id = ?", userID).
		Order("updated_at DESC, id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list statuses for user %d: %w", userID, err)
	}
	return rows, nil
}

// CountForBook returns how many status rows reference the book.
func (r *Repository) CountForBook(ctx context.Context, bookID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.UserStatus{}).
		Where("book_id = ?", bookID).
		Count(&count).Error
	return count, err
}
