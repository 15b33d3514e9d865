package media

import (
	"context"
	"fmt"

	"github.com/mrlokans/bookshelf/internal/config"
)

// Open returns the store selected by cfg.Backend.
func Open(ctx context.Context, cfg config.Media, minioCfg config.MinIO) (Store, error) {
	switch cfg.Backend {
	case config.MediaBackendLocal, "":
		return NewLocalStore(cfg.Root)
	case config.MediaBackendMinIO:
		return NewMinIOStore(ctx, minioCfg.Endpoint, minioCfg.AccessKey, minioCfg.SecretKey, minioCfg.Bucket, minioCfg.UseSSL)
	default:
		return nil, fmt.Errorf("unknown media backend %q", cfg.Backend)
	}
}
