package media

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// ReferencedKeys returns the set of keys still in use.
type ReferencedKeys func(ctx context.Context) (map[string]struct{}, error)

type SweepOptions struct {
	// MinAge protects files younger than this, such as uploads whose book
	// row has not been committed yet.
	MinAge time.Duration
	DryRun bool
	Now    func() time.Time
}

type SweepResult struct {
	Scanned int
	Orphans []string
	Removed int
}

// Sweep deletes cover files that no book references.
func Sweep(ctx context.Context, store Store, referenced ReferencedKeys, opts SweepOptions) (SweepResult, error) {
	var result SweepResult
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	files, err := store.List(ctx, CoverPrefix)
	if err != nil {
		return result, err
	}
	result.Scanned = len(files)

	inUse, err := referenced(ctx)
	if err != nil {
		return result, fmt.Errorf("load referenced covers: %w", err)
	}

	cutoff := now().Add(-opts.MinAge)
	for _, f := range files {
		if _, ok := inUse[f.Key]; ok {
			continue
		}
		if f.ModifiedAt.After(cutoff) {
			continue
		}
		result.Orphans = append(result.Orphans, f.Key)
		if opts.DryRun {
			continue
		}
		if err := store.Delete(ctx, f.Key); err != nil {
			slog.Warn("failed to delete orphan cover", "key", f.Key, "error", err)
			continue
		}
		result.Removed++
	}

	slog.Info("cover sweep finished",
		"scanned", result.Scanned,
		"orphans", len(result.Orphans),
		"removed", result.Removed,
		"dry_run", opts.DryRun)
	return result, nil
}
