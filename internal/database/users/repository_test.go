package users

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
	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "users.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepository(db.DB), db.DB
}

func mustCreate(t *testing.T, repo *Repository, username string) *entities.User {
	t.Helper()
	user := &entities.User{Username: username, Email: username + "@example.com", PasswordHash: "hash"}
	require.NoError(t, repo.Create(context.Background(), user))
	return user
}

func TestRepository_Create(t *testing.T) {
	repo, _ := setupTestDB(t)
	ctx := context.Background()

	user := mustCreate(t, repo, "alice")
	assert.NotZero(t, user.ID)

	byName, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byName.ID)
	assert.Equal(t, "alice@example.com", byName.Email)

	byID, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)
}

func TestRepository_Create_DuplicateUsername(t *testing.T) {
	repo, _ := setupTestDB(t)
	ctx := context.Background()

	original := mustCreate(t, repo, "alice")

	dup := &entities.User{Username: "alice", Email: "other@example.com", PasswordHash: "other"}
	err := repo.Create(ctx, dup)
	assert.ErrorIs(t, err, ErrUserExists)

	stored, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, original.ID, stored.ID)
	assert.Equal(t, "alice@example.com", stored.Email)
	assert.Equal(t, "hash", stored.PasswordHash)
}

func TestRepository_Create_UniqueIndexRace(t *testing.T) {
	repo, db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Create(&entities.User{Username: "bob", Email: "bob@example.com"}).Error)

	err := db.Create(&entities.User{Username: "bob", Email: "bob2@example.com"}).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	// A registration that passed the existence check before the row above
	// was committed still maps to ErrUserExists.
	err = repo.insert(ctx, &entities.User{Username: "bob", Email: "late@example.com"})
	assert.ErrorIs(t, err, ErrUserExists)

	var count int64
	require.NoError(t, db.Model(&entities.User{}).Where("username = ?", "bob").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestRepository_NotFound(t *testing.T) {
	repo, _ := setupTestDB(t)
	ctx := context.Background()

	_, err := repo.GetByID(ctx, 10)
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, err = repo.GetByUsername(ctx, "ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, err = repo.Delete(ctx, 10)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestRepository_TouchLastLogin(t *testing.T) {
	repo, _ := setupTestDB(t)
	ctx := context.Background()
	user := mustCreate(t, repo, "alice")

	at := time.Now().Truncate(time.Second)
	require.NoError(t, repo.TouchLastLogin(ctx, user.ID, at))

	stored, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastLoginAt)
	assert.True(t, at.Equal(*stored.LastLoginAt))
}

func TestRepository_Delete_Cascades(t *testing.T) {
	repo, db := setupTestDB(t)
	ctx := context.Background()

	alice := mustCreate(t, repo, "alice")
	bob := mustCreate(t, repo, "bob")

	aliceBook := &entities.Book{Title: "Owned", OwnerID: &alice.ID, CoverImage: "covers/owned.png"}
	aliceBare := &entities.Book{Title: "No cover", OwnerID: &alice.ID}
	bobBook := &entities.Book{Title: "Bob's", OwnerID: &bob.ID}
	for _, b := range []*entities.Book{aliceBook, aliceBare, bobBook} {
		require.NoError(t, db.Create(b).Error)
	}

	for _, s := range []entities.UserStatus{
		{UserID: alice.ID, BookID: bobBook.ID, ReadingStatus: entities.ReadingStatusReading},
		{UserID: bob.ID, BookID: aliceBook.ID, ReadingStatus: entities.ReadingStatusFinished},
		{UserID: bob.ID, BookID: bobBook.ID, ReadingStatus: entities.ReadingStatusPlanned},
	} {
		require.NoError(t, db.Create(&s).Error)
	}

	covers, err := repo.Delete(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"covers/owned.png"}, covers)

	var books []entities.Book
	require.NoError(t, db.Find(&books).Error)
	require.Len(t, books, 1)
	assert.Equal(t, bobBook.ID, books[0].ID)

	var statuses []entities.UserStatus
	require.NoError(t, db.Find(&statuses).Error)
	require.Len(t, statuses, 1)
	assert.Equal(t, bob.ID, statuses[0].UserID)
	assert.Equal(t, bobBook.ID, statuses[0].BookID)

	_, err = repo.GetByID(ctx, alice.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestRepository_Summaries(t *testing.T) {
	repo, db := setupTestDB(t)
	ctx := context.Background()

	alice := mustCreate(t, repo, "alice")
	bob := mustCreate(t, repo, "bob")
	mustCreate(t, repo, "idle")

	b1 := &entities.Book{Title: "One", OwnerID: &alice.ID}
	b2 := &entities.Book{Title: "Two", OwnerID: &alice.ID}
	require.NoError(t, db.Create(b1).Error)
	require.NoError(t, db.Create(b2).Error)

	for _, s := range []entities.UserStatus{
		{UserID: bob.ID, BookID: b1.ID, ReadingStatus: entities.ReadingStatusReading},
		{UserID: bob.ID, BookID: b2.ID, ReadingStatus: entities.ReadingStatusReading},
		{UserID: alice.ID, BookID: b1.ID, ReadingStatus: entities.ReadingStatusFinished},
	} {
		require.NoError(t, db.Create(&s).Error)
	}

	summaries, err := repo.Summaries(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	assert.Equal(t, "alice", summaries[0].User.Username)
	assert.Equal(t, int64(2), summaries[0].OwnedBooks)
	assert.Equal(t, int64(1), summaries[0].Count("finished"))
	assert.Equal(t, int64(1), summaries[0].Tracked())

	assert.Equal(t, "bob", summaries[1].User.Username)
	assert.Equal(t, int64(0), summaries[1].OwnedBooks)
	assert.Equal(t, int64(2), summaries[1].Count("reading"))
	assert.Equal(t, int64(2), summaries[1].Tracked())
}

func TestRepository_Summaries_Empty(t *testing.T) {
	repo, _ := setupTestDB(t)
	mustCreate(t, repo, "idle")

	summaries, err := repo.Summaries(context.Background())
	require.NoError(t, err)
	assert.Empty(t, summaries)
}
