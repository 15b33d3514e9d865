package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mrlokans/bookshelf/internal/config"
	"github.com/mrlokans/bookshelf/internal/database/users"
	"github.com/mrlokans/bookshelf/internal/entities"
)

var (
	ErrUserNotFound       = users.ErrUserNotFound
	ErrUserExists         = users.ErrUserExists
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// UserStore defines the user data access the service needs.
type UserStore interface {
	Create(ctx context.Context, user *entities.User) error
	GetByUsername(ctx context.Context, username string) (*entities.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	TouchLastLogin(ctx context.Context, id uint, at time.Time) error
}

var _ UserStore = (*users.Repository)(nil)

// Service handles registration and credential checks.
type Service struct {
	users  UserStore
	config config.Auth
}

// NewService creates a new authentication service.
func NewService(store UserStore, cfg config.Auth) *Service {
	return &Service{
		users:  store,
		config: cfg,
	}
}

// Register creates a user with a hashed password. Field formats are
// validated by the registration form before this is called.
func (s *Service) Register(ctx context.Context, username, email, password string) (*entities.User, error) {
	hash, err := HashPassword(password, s.config.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &entities.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	slog.Info("user registered", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// Authenticate validates credentials and returns the user.
// Unknown usernames and wrong passwords both yield ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*entities.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}

	if err := CheckPassword(password, user.PasswordHash); err != nil {
		if errors.Is(err, ErrInvalidPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	now := time.Now()
	if err := s.users.TouchLastLogin(ctx, user.ID, now); err != nil {
		slog.Warn("failed to record login time", "user_id", user.ID, "error", err)
	} else {
		user.LastLoginAt = &now
	}
	return user, nil
}

// UsernameExists lets the registration form check uniqueness.
func (s *Service) UsernameExists(ctx context.Context, username string) (bool, error) {
	return s.users.UsernameExists(ctx, username)
}
