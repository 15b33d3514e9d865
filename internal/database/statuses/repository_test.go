package statuses

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mrlokans/bookshelf/internal/database"
	"github.com/mrlokans/bookshelf/internal/entities"
)

func setupTestDB(t *testing.T) (*Repository, *gorm.DB, *entities.User, *entities.Book) {
	t.Helper()
	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "statuses.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	user := &entities.User{Username: "reader", Email: "reader@example.com"}
	require.NoError(t, db.DB.Create(user).Error)
	book := &entities.Book{Title: "Middlemarch"}
	require.NoError(t, db.DB.Create(book).Error)

	return NewRepository(db.DB), db.DB, user, book
}

func TestRepository_Get_DefaultsToNotStarted(t *testing.T) {
	repo, _, user, book := setupTestDB(t)

	status, err := repo.Get(context.Background(), user.ID, book.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.ReadingStatusNotStarted, status)
}

func TestRepository_Upsert_KeepsSingleRow(t *testing.T) {
	repo, db, user, book := setupTestDB(t)
	ctx := context.Background()

	sequence := []entities.ReadingStatus{
		entities.ReadingStatusPlanned,
		entities.ReadingStatusReading,
		entities.ReadingStatusReading,
		entities.ReadingStatusFinished,
	}
	for _, s := range sequence {
		require.NoError(t, repo.Upsert(ctx, user.ID, book.ID, s))
	}

	var count int64
	require.NoError(t, db.Model(&entities.UserStatus{}).
		Where("user_id = ? AND book_id = ?", user.ID, book.ID).
		Count(&count).Error)
	assert.Equal(t, int64(1), count)

	status, err := repo.Get(ctx, user.ID, book.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.ReadingStatusFinished, status)
}

func TestRepository_UniqueIndexRejectsDuplicates(t *testing.T) {
	_, db, user, book := setupTestDB(t)

	first := entities.UserStatus{UserID: user.ID, BookID: book.ID, ReadingStatus: entities.ReadingStatusReading}
	require.NoError(t, db.Create(&first).Error)

	second := entities.UserStatus{UserID: user.ID, BookID: book.ID, ReadingStatus: entities.ReadingStatusPlanned}
	assert.Error(t, db.Create(&second).Error)
}

func TestRepository_Upsert_RejectsUnknownStatus(t *testing.T) {
	repo, _, user, book := setupTestDB(t)

	err := repo.Upsert(context.Background(), user.ID, book.ID, "paused")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestRepository_ListForUser(t *testing.T) {
	repo, db, user, book := setupTestDB(t)
	ctx := context.Background()

	second := &entities.Book{Title: "Ulysses"}
	require.NoError(t, db.Create(second).Error)

	require.NoError(t, repo.Upsert(ctx, user.ID, book.ID, entities.ReadingStatusReading))
	require.NoError(t, repo.Upsert(ctx, user.ID, second.ID, entities.ReadingStatusAbandoned))

	rows, err := repo.ListForUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	titles := []string{rows[0].Book.Title, rows[1].Book.Title}
	assert.ElementsMatch(t, []string{"Middlemarch", "Ulysses"}, titles)

	m, err := repo.StatusMap(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.ReadingStatusAbandoned, m[second.ID])

	count, err := repo.CountForBook(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
