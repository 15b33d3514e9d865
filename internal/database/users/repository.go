// Package users provides database operations for user management.
//
// # Usage
//
//	repo := users.NewRepository(db)
//	user, err := repo.GetByUsername(ctx, "alice")
//	covers, err := repo.Delete(ctx, user.ID)
package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/bookshelf/internal/entities"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")
)

// Summary is one dashboard row: a user with aggregate counts.
type Summary struct {
	User         entities.User
	OwnedBooks   int64
	StatusCounts map[entities.ReadingStatus]int64
}

// Tracked returns the number of books the user has a status for.
func (s Summary) Tracked() int64 {
	var total int64
	for _, n := range s.StatusCounts {
		total += n
	}
	return total
}

// Count returns the number of books the user has in the given status.
func (s Summary) Count(status string) int64 {
	return s.StatusCounts[entities.ReadingStatus(status)]
}

// Repository handles all user database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new users repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a user. ErrUserExists is returned when the username is taken.
func (r *Repository) Create(ctx context.Context, user *entities.User) error {
	exists, err := r.UsernameExists(ctx, user.Username)
	if err != nil {
		return err
	}
	if exists {
		return ErrUserExists
	}
	return r.insert(ctx, user)
}

// insert relies on the unique index when a concurrent registration wins
// the race past UsernameExists.
func (r *Repository) insert(ctx context.Context, user *entities.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrUserExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID.
func (r *Repository) GetByID(ctx context.Context, id uint) (*entities.User, error) {
	var user entities.User
	err := r.db.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByUsername retrieves a user by username.
func (r *Repository) GetByUsername(ctx context.Context, username string) (*entities.User, error) {
	var user entities.User
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UsernameExists reports whether the username is already registered.
func (r *Repository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.User{}).
		Where("username = ?", username).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check username: %w", err)
	}
	return count > 0, nil
}

// TouchLastLogin records a successful login time.
func (r *Repository) TouchLastLogin(ctx context.Context, id uint, at time.Time) error {
	return r.db.WithContext(ctx).Model(&entities.User{}).
		Where("id = ?", id).
		UpdateColumn("last_login_at", at).Error
}

// Delete removes a user together with the books they own, the statuses on
// those books and every status the user recorded. It returns the cover keys
// of the deleted books so the caller can discard the files.
func (r *Repository) Delete(ctx context.Context, id uint) ([]string, error) {
	var covers []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user entities.User
		if err := tx.Select("id").First(&user, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		var owned []entities.Book
		if err := tx.Select("id", "cover_image").Where("owner_id = ?", id).Find(&owned).Error; err != nil {
			return err
		}
		bookIDs := make([]uint, 0, len(owned))
		for _, b := range owned {
			bookIDs = append(bookIDs, b.ID)
			if b.CoverImage != "" {
				covers = append(covers, b.CoverImage)
			}
		}

		statuses := tx.Where("user_id = ?", id)
		if len(bookIDs) > 0 {
			statuses = statuses.Or("book_id IN ?", bookIDs)
		}
		if err := statuses.Delete(&entities.UserStatus{}).Error; err != nil {
			return err
		}
		if len(bookIDs) > 0 {
			if err := tx.Where("id IN ?", bookIDs).Delete(&entities.Book{}).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&entities.User{}, id).Error
	})
	if errors.Is(err, ErrUserNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to delete user %d: %w", id, err)
	}
	return covers, nil
}

type ownedRow struct {
	OwnerID uint
	Total   int64
}

type statusRow struct {
	UserID        uint
	ReadingStatus entities.ReadingStatus
	Total         int64
}

// Summaries returns every user who owns a book or tracks one, with counts.
func (r *Repository) Summaries(ctx context.Context) ([]Summary, error) {
	db := r.db.WithContext(ctx)

	var owned []ownedRow
	err := db.Model(&entities.Book{}).
		Select("owner_id, COUNT(*) AS total").
		Where("owner_id IS NOT NULL").
		Group("owner_id").
		Scan(&owned).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count owned books: %w", err)
	}

	var tracked []statusRow
	err = db.Model(&entities.UserStatus{}).
		Select("user_id, reading_status, COUNT(*) AS total").
		Group("user_id, reading_status").
		Scan(&tracked).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count statuses: %w", err)
	}

	byUser := make(map[uint]*Summary)
	get := func(id uint) *Summary {
		s, ok := byUser[id]
		if !ok {
			s = &Summary{StatusCounts: make(map[entities.ReadingStatus]int64)}
			byUser[id] = s
		}
		return s
	}
	for _, row := range owned {
		get(row.OwnerID).OwnedBooks = row.Total
	}
	for _, row := range tracked {
		get(row.UserID).StatusCounts[row.ReadingStatus] = row.Total
	}
	if len(byUser) == 0 {
		return []Summary{}, nil
	}

	ids := make([]uint, 0, len(byUser))
	for id := range byUser {
		ids = append(ids, id)
	}
	var users []entities.User
	if err := db.Where("id IN ?", ids).Order("username ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}

	out := make([]Summary, 0, len(users))
	for _, u := range users {
		s := byUser[u.ID]
		s.User = u
		out = append(out, *s)
	}
	return out, nil
}
