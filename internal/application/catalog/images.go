package catalog

import (
	"context"

	"go.uber.org/zap"
)

// ImageStore holds the image files referenced by categories, products and
// variations. Keys are the values stored in the image columns.
type ImageStore interface {
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
}

// removeImages deletes image files after their owner is gone. Failures are
// logged and never surface to the caller.
func removeImages(ctx context.Context, store ImageStore, logger *zap.Logger, keys ...*string) {
	if store == nil {
		return
	}
	for _, key := range keys {
		if key == nil || *key == "" {
			continue
		}
		if err := store.Delete(ctx, *key); err != nil {
			logger.Warn("Failed to delete image", zap.String("image", *key), zap.Error(err))
		}
	}
}
