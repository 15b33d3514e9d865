package cli

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/mrlokans/bookshelf/internal/auth"
	"github.com/mrlokans/bookshelf/internal/database/users"
	"github.com/mrlokans/bookshelf/internal/forms"
)

// CreateUserCommand registers an account without going through the web form.
type CreateUserCommand struct {
	base
	Username string
	Email    string
	Password string
}

func NewCreateUserCommand() *CreateUserCommand {
	return &CreateUserCommand{}
}

func (cmd *CreateUserCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("create-user", flag.ContinueOnError)

	fs.StringVar(&cmd.Username, "username", "", "Username (required)")
	fs.StringVar(&cmd.Email, "email", "", "Email address (required)")
	fs.StringVar(&cmd.Password, "password", "", fmt.Sprintf("Password, at least %d characters (required)", forms.MinPasswordLength))
	fs.StringVar(&cmd.DatabasePath, "db", "", "Path to the database file (default: DATABASE_PATH)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s create-user -username <name> -email <email> -password <password> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Create a user account. The same rules as the registration form apply.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.Username == "" || cmd.Email == "" || cmd.Password == "" {
		return fmt.Errorf("required flags -username, -email and -password not provided")
	}
	return nil
}

func (cmd *CreateUserCommand) Run() error {
	ctx := context.Background()

	db, err := cmd.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	repo := users.NewRepository(db.DB)

	form := forms.RegistrationForm{
		Username:  cmd.Username,
		Email:     cmd.Email,
		Password1: cmd.Password,
		Password2: cmd.Password,
	}
	errs, err := form.Validate(ctx, repo)
	if err != nil {
		return fmt.Errorf("failed to check username: %w", err)
	}
	if !errs.Valid() {
		return validationError(errs)
	}

	service := auth.NewService(repo, cmd.config().Auth)
	user, err := service.Register(ctx, form.Username, form.Email, form.Password1)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	cmd.printf("Created user %q (id %d)\n", user.Username, user.ID)
	return nil
}
