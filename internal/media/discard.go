package media

import (
	"context"
	"log/slog"
)

// Discarder gets rid of files that no book references anymore.
type Discarder interface {
	Discard(ctx context.Context, key string) error
}

// ImmediateDiscarder deletes files synchronously. It is used when the task
// queue is disabled and by the CLI.
type ImmediateDiscarder struct {
	Store Store
}

func (d ImmediateDiscarder) Discard(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	if err := d.Store.Delete(ctx, key); err != nil {
		return err
	}
	slog.Debug("cover deleted", "key", key)
	return nil
}

// DiscardAll discards every key, logging failures. A failed delete leaves an
// orphan that the periodic sweep will pick up later.
func DiscardAll(ctx context.Context, d Discarder, keys ...string) {
	for _, key := range keys {
		if key == "" {
			continue
		}
		if err := d.Discard(ctx, key); err != nil {
			slog.Warn("failed to discard cover", "key", key, "error", err)
		}
	}
}
