// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup and migrations
//	├── books/           # Catalog CRUD, search and book cascade
//	├── statuses/        # Per-user reading status upserts and counts
//	└── users/           # Accounts, dashboard summaries and user cascade
//
// # Using Sub-packages
//
//	db, err := database.NewDatabase("./bookshelf.db")
//
//	booksRepo := books.NewRepository(db.DB)
//	statusRepo := statuses.NewRepository(db.DB)
//
//	book, err := booksRepo.GetByID(ctx, 123)
//	err = statusRepo.Upsert(ctx, userID, book.ID, entities.ReadingStatusReading)
//
// # Foreign Keys
//
// The SQLite connection is opened with foreign key enforcement enabled, so the
// ON DELETE CASCADE constraints declared on the entities are active. The
// repositories still delete dependent rows explicitly inside a transaction and
// do not rely on the pragma alone.
package database
