package books

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mrlokans/bookshelf/internal/database"
	"github.com/mrlokans/bookshelf/internal/entities"
)

func setupTestDB(t *testing.T) (*Repository, *gorm.DB) {
	t.Helper()
	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "books.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepository(db.DB), db.DB
}

func createUser(t *testing.T, db *gorm.DB, username string) *entities.User {
	t.Helper()
	user := &entities.User{Username: username, Email: username + "@example.com"}
	require.NoError(t, db.Create(user).Error)
	return user
}

func TestRepository_Create_AppliesDefaults(t *testing.T) {
	repo, _ := setupTestDB(t)
	ctx := context.Background()

	book := &entities.Book{Title: "Untitled Manuscript"}
	require.NoError(t, repo.Create(ctx, book))
	require.NotZero(t, book.ID)

	stored, err := repo.GetByID(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.DefaultAuthor, stored.Author)
	assert.Equal(t, entities.GenreFiction, stored.Genre)
	assert.Nil(t, stored.PublicationYear)
	assert.Nil(t, stored.OwnerID)
}

func TestRepository_Update_ReappliesDefaults(t *testing.T) {
	repo, _ := setupTestDB(t)
	ctx := context.Background()

	book := &entities.Book{Title: "Dune", Author: "Frank Herbert", Genre: entities.GenreSciFi}
	require.NoError(t, repo.Create(ctx, book))

	book.Author = ""
	book.Genre = ""
	require.NoError(t, repo.Update(ctx, book))

	stored, err := repo.GetByID(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.DefaultAuthor, stored.Author)
	assert.Equal(t, entities.GenreFiction, stored.Genre)
}

func TestRepository_GetByID_NotFound(t *testing.T) {
	repo, _ := setupTestDB(t)

	_, err := repo.GetByID(context.Background(), 999)
	assert.ErrorIs(t, err, ErrBookNotFound)
}

func TestRepository_List(t *testing.T) {
	repo, db := setupTestDB(t)
	ctx := context.Background()
	alice := createUser(t, db, "alice")

	base := time.Now().Add(-time.Hour)
	fixtures := []*entities.Book{
		{Title: "The Hobbit", Author: "J.R.R. Tolkien", Genre: entities.GenreFantasy, OwnerID: &alice.ID, CreatedAt: base},
		{Title: "Foundation", Author: "Isaac Asimov", Genre: entities.GenreSciFi, CreatedAt: base.Add(time.Minute)},
		{Title: "100% Sure", Author: "Someone", Genre: entities.GenreOther, CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, b := range fixtures {
		require.NoError(t, repo.Create(ctx, b))
	}

	t.Run("newest first", func(t *testing.T) {
		list, err := repo.List(ctx, Filter{})
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, "100% Sure", list[0].Title)
		assert.Equal(t, "The Hobbit", list[2].Title)
		require.NotNil(t, list[2].Owner)
		assert.Equal(t, "alice", list[2].Owner.Username)
	})

	t.Run("search matches title or author case-insensitively", func(t *testing.T) {
		list, err := repo.List(ctx, Filter{Query: "TOLKIEN"})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "The Hobbit", list[0].Title)

		list, err = repo.List(ctx, Filter{Query: "found"})
		require.NoError(t, err)
		require.Len(t, list, 1)
	})

	t.Run("search treats wildcards literally", func(t *testing.T) {
		list, err := repo.List(ctx, Filter{Query: "%"})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "100% Sure", list[0].Title)
	})

	t.Run("genre and owner filters", func(t *testing.T) {
		list, err := repo.List(ctx, Filter{Genre: entities.GenreSciFi})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "Foundation", list[0].Title)

		list, err = repo.List(ctx, Filter{OwnerID: alice.ID})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "The Hobbit", list[0].Title)
	})
}

func TestRepository_Delete_CascadesStatuses(t *testing.T) {
	repo, db := setupTestDB(t)
	ctx := context.Background()
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")

	book := &entities.Book{Title: "Emma", OwnerID: &alice.ID, CoverImage: "covers/emma.jpg"}
	other := &entities.Book{Title: "Persuasion"}
	require.NoError(t, repo.Create(ctx, book))
	require.NoError(t, repo.Create(ctx, other))

	for _, s := range []entities.UserStatus{
		{UserID: alice.ID, BookID: book.ID, ReadingStatus: entities.ReadingStatusReading},
		{UserID: bob.ID, BookID: book.ID, ReadingStatus: entities.ReadingStatusFinished},
		{UserID: bob.ID, BookID: other.ID, ReadingStatus: entities.ReadingStatusPlanned},
	} {
		require.NoError(t, db.Create(&s).Error)
	}

	cover, err := repo.Delete(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, "covers/emma.jpg", cover)

	_, err = repo.GetByID(ctx, book.ID)
	assert.ErrorIs(t, err, ErrBookNotFound)

	var remaining []entities.UserStatus
	require.NoError(t, db.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	assert.Equal(t, other.ID, remaining[0].BookID)
}

func TestRepository_Delete_NotFound(t *testing.T) {
	repo, _ := setupTestDB(t)

	_, err := repo.Delete(context.Background(), 42)
	assert.ErrorIs(t, err, ErrBookNotFound)
}

func TestRepository_CoverKeys(t *testing.T) {
	repo, _ := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &entities.Book{Title: "A", CoverImage: "covers/a.png"}))
	require.NoError(t, repo.Create(ctx, &entities.Book{Title: "B"}))

	keys, err := repo.CoverKeys(ctx)
	require.NoError(t, err)
	assert.Len(t, keys, 1)
	assert.Contains(t, keys, "covers/a.png")

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}
