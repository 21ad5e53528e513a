package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	catalogapp "github.com/rotem1230/gal1/internal/application/catalog"
)

// Ensure LocalImageStore implements ImageStore
var _ catalogapp.ImageStore = (*LocalImageStore)(nil)

// LocalImageStore keeps images under a directory on local disk. It is used
// when no S3 bucket is configured.
type LocalImageStore struct {
	root string
}

// NewLocalImageStore creates a store rooted at dir
func NewLocalImageStore(dir string) *LocalImageStore {
	return &LocalImageStore{root: dir}
}

// Exists reports whether the image file is present
func (s *LocalImageStore) Exists(ctx context.Context, key string) (bool, error) {
	path, err := s.resolve(key)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat image: %w", err)
	}
	return !info.IsDir(), nil
}

// Delete removes the image file. Deleting a missing file is not an error.
func (s *LocalImageStore) Delete(ctx context.Context, key string) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}

// resolve maps a key to a path inside root and refuses traversal outside it
func (s *LocalImageStore) resolve(key string) (string, error) {
	key = normalizeKey(key)
	if key == "" {
		return "", errors.New("image key is required")
	}
	path := filepath.Join(s.root, filepath.FromSlash(key))
	rel, err := filepath.Rel(s.root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("image key escapes storage root: %s", key)
	}
	return path, nil
}
