package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/bookshelf/internal/media"
)

// SweepOrphanCoversTask removes cover files that no book references.
type SweepOrphanCoversTask struct {
	DryRun bool `json:"dry_run"`
}

func (t SweepOrphanCoversTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "sweep_orphan_covers",
		MaxAttempts: 1,
		Backoff:     time.Minute,
		Timeout:     10 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   7 * 24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// SweepOrphanCoversProcessor creates a processor for SweepOrphanCoversTask.
func SweepOrphanCoversProcessor(store media.Store, referenced media.ReferencedKeys, minAge time.Duration) backlite.QueueProcessor[SweepOrphanCoversTask] {
	return func(ctx context.Context, task SweepOrphanCoversTask) error {
		if store == nil || referenced == nil {
			return fmt.Errorf("cover sweep not configured")
		}
		_, err := media.Sweep(ctx, store, referenced, media.SweepOptions{
			MinAge: minAge,
			DryRun: task.DryRun,
		})
		if err != nil {
			return fmt.Errorf("sweep orphan covers: %w", err)
		}
		return nil
	}
}

func NewSweepOrphanCoversQueue(store media.Store, referenced media.ReferencedKeys, minAge time.Duration) backlite.Queue {
	return backlite.NewQueue(SweepOrphanCoversProcessor(store, referenced, minAge))
}
