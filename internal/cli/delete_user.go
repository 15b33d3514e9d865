package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/mrlokans/bookshelf/internal/database/users"
	"github.com/mrlokans/bookshelf/internal/media"
)

// DeleteUserCommand removes an account with every book it owns and every
// reading status that references it.
type DeleteUserCommand struct {
	base
	Username string
}

func NewDeleteUserCommand() *DeleteUserCommand {
	return &DeleteUserCommand{}
}

func (cmd *DeleteUserCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("delete-user", flag.ContinueOnError)

	fs.StringVar(&cmd.Username, "username", "", "Username to delete (required)")
	fs.StringVar(&cmd.DatabasePath, "db", "", "Path to the database file (default: DATABASE_PATH)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s delete-user -username <name> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Delete a user, the books they added and all related reading statuses.\n")
		fmt.Fprintf(os.Stderr, "Cover images of the deleted books are removed from media storage.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.Username == "" {
		return fmt.Errorf("required flag -username not provided")
	}
	return nil
}

func (cmd *DeleteUserCommand) Run() error {
	ctx := context.Background()

	db, err := cmd.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	repo := users.NewRepository(db.DB)
	user, err := repo.GetByUsername(ctx, cmd.Username)
	if errors.Is(err, users.ErrUserNotFound) {
		return fmt.Errorf("user %q not found", cmd.Username)
	}
	if err != nil {
		return err
	}

	covers, err := repo.Delete(ctx, user.ID)
	if err != nil {
		return err
	}
	cmd.printf("Deleted user %q\n", user.Username)

	if len(covers) == 0 {
		return nil
	}
	store, err := cmd.openMedia(ctx)
	if err != nil {
		// The rows are gone; leftover files are picked up by sweep-covers.
		cmd.printf("Warning: %v\n", err)
		return nil
	}
	media.DiscardAll(ctx, media.ImmediateDiscarder{Store: store}, covers...)
	cmd.printf("Removed %d cover image(s)\n", len(covers))
	return nil
}
