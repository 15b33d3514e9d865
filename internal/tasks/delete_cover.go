package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/bookshelf/internal/media"
)

// DeleteCoverTask removes one cover file from media storage.
type DeleteCoverTask struct {
	Key string `json:"key"`
}

func (t DeleteCoverTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "delete_cover",
		MaxAttempts: 3,
		Backoff:     30 * time.Second,
		Timeout:     time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: true,
		},
	}
}

// DeleteCoverProcessor creates a processor for DeleteCoverTask.
func DeleteCoverProcessor(store media.Store) backlite.QueueProcessor[DeleteCoverTask] {
	return func(ctx context.Context, task DeleteCoverTask) error {
		if store == nil {
			return fmt.Errorf("media store not configured")
		}
		if err := store.Delete(ctx, task.Key); err != nil {
			return fmt.Errorf("delete cover %s: %w", task.Key, err)
		}
		slog.Debug("cover deleted", "key", task.Key, "component", "tasks")
		return nil
	}
}

func NewDeleteCoverQueue(store media.Store) backlite.Queue {
	return backlite.NewQueue(DeleteCoverProcessor(store))
}

// QueuedDiscarder hands cover deletions to the task queue so request
// handlers never wait on storage.
type QueuedDiscarder struct {
	client *Client
}

var _ media.Discarder = (*QueuedDiscarder)(nil)

func NewQueuedDiscarder(client *Client) *QueuedDiscarder {
	return &QueuedDiscarder{client: client}
}

func (d *QueuedDiscarder) Discard(_ context.Context, key string) error {
	if key == "" {
		return nil
	}
	if _, err := d.client.Add(DeleteCoverTask{Key: key}).Save(); err != nil {
		return fmt.Errorf("enqueue cover deletion: %w", err)
	}
	return nil
}
