package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/mrlokans/bookshelf/internal/database/books"
	"github.com/mrlokans/bookshelf/internal/database/users"
	"github.com/mrlokans/bookshelf/internal/entities"
	"github.com/mrlokans/bookshelf/internal/forms"
)

// AddBookCommand adds a catalog entry. Without -owner the book has no owner
// and nobody can edit it through the web UI.
type AddBookCommand struct {
	base
	Owner string
	Form  forms.BookForm
}

func NewAddBookCommand() *AddBookCommand {
	return &AddBookCommand{}
}

func (cmd *AddBookCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("add-book", flag.ContinueOnError)

	fs.StringVar(&cmd.Form.Title, "title", "", "Book title (required)")
	fs.StringVar(&cmd.Form.Author, "author", "", "Author (default: "+entities.DefaultAuthor+")")
	fs.StringVar(&cmd.Form.PublicationYear, "year", "", "Publication year")
	fs.StringVar(&cmd.Form.Genre, "genre", "", "Genre (default: "+string(entities.DefaultGenre)+")")
	fs.StringVar(&cmd.Form.Description, "description", "", "Description")
	fs.StringVar(&cmd.Owner, "owner", "", "Username of the owner")
	fs.StringVar(&cmd.DatabasePath, "db", "", "Path to the database file (default: DATABASE_PATH)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s add-book -title <title> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Add a book to the shared catalog.\n\n")
		fmt.Fprintf(os.Stderr, "Genres:\n")
		for _, g := range entities.GenreChoices {
			fmt.Fprintf(os.Stderr, "  %-10s %s\n", g.Value, g.Label)
		}
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExample:\n")
		fmt.Fprintf(os.Stderr, "  %s add-book -title \"Dune\" -author \"Frank Herbert\" -year 1965 -genre scifi -owner alice\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	cmd.Form.Title = strings.TrimSpace(cmd.Form.Title)
	if cmd.Form.Title == "" {
		return fmt.Errorf("required flag -title not provided")
	}
	return nil
}

func (cmd *AddBookCommand) Run() error {
	ctx := context.Background()

	errs := cmd.Form.Validate(0)
	if !errs.Valid() {
		return validationError(errs)
	}

	db, err := cmd.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	var book entities.Book
	cmd.Form.Apply(&book)

	if cmd.Owner != "" {
		owner, err := users.NewRepository(db.DB).GetByUsername(ctx, cmd.Owner)
		if errors.Is(err, users.ErrUserNotFound) {
			return fmt.Errorf("owner %q not found", cmd.Owner)
		}
		if err != nil {
			return err
		}
		book.OwnerID = &owner.ID
	}

	if err := books.NewRepository(db.DB).Create(ctx, &book); err != nil {
		return err
	}

	cmd.printf("Added %s [%s] with id %d\n", book.String(), book.Genre.Label(), book.ID)
	return nil
}
