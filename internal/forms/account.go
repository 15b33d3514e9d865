package forms

import (
	"context"
	"fmt"
	"strings"
)

// Password limits shared by the registration form and password hashing.
const (
	MinPasswordLength = 8
	// MaxPasswordBytes is the longest password bcrypt will hash.
	MaxPasswordBytes = 72
)

const usernameTaken = "A user with that username already exists."

// UsernameChecker looks up whether a username is already registered.
type UsernameChecker interface {
	UsernameExists(ctx context.Context, username string) (bool, error)
}

type RegistrationForm struct {
	Username  string `form:"username" validate:"required,min=3,max=150,username"`
	Email     string `form:"email" validate:"required,email,max=254"`
	Password1 string `form:"password1" validate:"required"`
	Password2 string `form:"password2" validate:"required,eqfield=Password1"`
}

// Validate checks the fields and, when they are well formed, that the
// username is free. A lookup failure is returned as an error.
func (f *RegistrationForm) Validate(ctx context.Context, users UsernameChecker) (Errors, error) {
	f.Username = strings.TrimSpace(f.Username)
	f.Email = strings.TrimSpace(f.Email)

	errs := check(f)
	switch {
	case errs.Has("password1"):
	case len(f.Password1) < MinPasswordLength:
		errs.Add("password1", fmt.Sprintf("Ensure this value has at least %d characters.", MinPasswordLength))
	case len(f.Password1) > MaxPasswordBytes:
		errs.Add("password1", fmt.Sprintf("Ensure this value has at most %d bytes.", MaxPasswordBytes))
	}

	if !errs.Has("username") && users != nil {
		exists, err := users.UsernameExists(ctx, f.Username)
		if err != nil {
			return errs, err
		}
		if exists {
			errs.Add("username", usernameTaken)
		}
	}
	return errs, nil
}

// UsernameTaken records the duplicate-username error. It is used when the
// uniqueness check races with another registration.
func (e Errors) UsernameTaken() {
	e.Add("username", usernameTaken)
}

type LoginForm struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
	Next     string `form:"next"`
}

func (f *LoginForm) Validate() Errors {
	f.Username = strings.TrimSpace(f.Username)
	return check(f)
}
