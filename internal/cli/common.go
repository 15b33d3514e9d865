package cli

import (
	"context"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"github.com/mrlokans/bookshelf/internal/config"
	"github.com/mrlokans/bookshelf/internal/database"
	"github.com/mrlokans/bookshelf/internal/forms"
	"github.com/mrlokans/bookshelf/internal/media"
)

// base carries what every command needs: configuration, the database path
// override and where to print.
type base struct {
	DatabasePath string
	Config       *config.Config
	Out          io.Writer
}

func (b *base) config() *config.Config {
	if b.Config == nil {
		b.Config = config.NewConfig()
	}
	return b.Config
}

func (b *base) printf(format string, args ...any) {
	out := b.Out
	if out == nil {
		out = os.Stdout
	}
	fmt.Fprintf(out, format, args...)
}

func (b *base) openDatabase() (*database.Database, error) {
	path := b.DatabasePath
	if path == "" {
		path = b.config().Database.Path
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path for database: %w", err)
	}
	db, err := database.NewDatabase(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return db, nil
}

func (b *base) openMedia(ctx context.Context) (media.Store, error) {
	cfg := b.config()
	store, err := media.Open(ctx, cfg.Media, cfg.MinIO)
	if err != nil {
		return nil, fmt.Errorf("failed to open media store: %w", err)
	}
	return store, nil
}

// validationError flattens form errors into one error, fields in name order.
func validationError(errs forms.Errors) error {
	msg := "invalid input:"
	for _, field := range slices.Sorted(maps.Keys(errs)) {
		msg += fmt.Sprintf("\n  %s: %s", field, errs[field])
	}
	return fmt.Errorf("%s", msg)
}
