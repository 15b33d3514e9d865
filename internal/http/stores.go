package http

import (
	"context"

	"github.com/mrlokans/bookshelf/internal/database/books"
	"github.com/mrlokans/bookshelf/internal/database/users"
	"github.com/mrlokans/bookshelf/internal/entities"
)

// Controllers depend on these narrow interfaces instead of the gorm
// repositories so handler tests can use in-memory fakes.

// BookStore provides catalog persistence.
type BookStore interface {
	Create(ctx context.Context, book *entities.Book) error
	Update(ctx context.Context, book *entities.Book) error
	GetByID(ctx context.Context, id uint) (*entities.Book, error)
	List(ctx context.Context, filter books.Filter) ([]entities.Book, error)
	// Delete removes the book with its statuses and returns its cover key.
	Delete(ctx context.Context, id uint) (string, error)
}

// StatusStore provides per-user reading status persistence.
type StatusStore interface {
	Upsert(ctx context.Context, userID, bookID uint, status entities.ReadingStatus) error
	Get(ctx context.Context, userID, bookID uint) (entities.ReadingStatus, error)
	StatusMap(ctx context.Context, userID uint) (map[uint]entities.ReadingStatus, error)
	ListForUser(ctx context.Context, userID uint) ([]entities.UserStatus, error)
}

// SummaryStore provides the dashboard aggregates.
type SummaryStore interface {
	Summaries(ctx context.Context) ([]users.Summary, error)
}

var (
	_ BookStore    = (*books.Repository)(nil)
	_ SummaryStore = (*users.Repository)(nil)
)
