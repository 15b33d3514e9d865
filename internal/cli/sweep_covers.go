package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/mrlokans/bookshelf/internal/database/books"
	"github.com/mrlokans/bookshelf/internal/media"
)

// SweepCoversCommand removes cover files that no book references.
type SweepCoversCommand struct {
	base
	MinAge  time.Duration
	DryRun  bool
	Verbose bool
}

func NewSweepCoversCommand() *SweepCoversCommand {
	return &SweepCoversCommand{}
}

func (cmd *SweepCoversCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("sweep-covers", flag.ContinueOnError)

	fs.DurationVar(&cmd.MinAge, "min-age", time.Hour, "Keep unreferenced files younger than this")
	fs.BoolVar(&cmd.DryRun, "dry-run", false, "List orphaned covers without deleting them")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Print every orphaned key")
	fs.StringVar(&cmd.DatabasePath, "db", "", "Path to the database file (default: DATABASE_PATH)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s sweep-covers [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Delete cover images in media storage that no book references.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

func (cmd *SweepCoversCommand) Run() error {
	ctx := context.Background()

	if cmd.DryRun {
		cmd.printf("DRY RUN MODE - No changes will be made\n")
	}

	db, err := cmd.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	store, err := cmd.openMedia(ctx)
	if err != nil {
		return err
	}

	result, err := media.Sweep(ctx, store, books.NewRepository(db.DB).CoverKeys, media.SweepOptions{
		MinAge: cmd.MinAge,
		DryRun: cmd.DryRun,
	})
	if err != nil {
		return fmt.Errorf("cover sweep failed: %w", err)
	}

	if cmd.Verbose || cmd.DryRun {
		for _, key := range result.Orphans {
			cmd.printf("  %s\n", key)
		}
	}
	cmd.printf("Scanned %d file(s), %d orphaned, %d removed\n", result.Scanned, len(result.Orphans), result.Removed)
	return nil
}
