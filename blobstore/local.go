package blobstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// LocalStore writes images to a local directory and returns a server-relative
// URL. It doubles as the mirror target when SAVE_LOCAL_COPY is enabled.
type LocalStore struct {
	Dir string
}

// NewLocalStore creates a store rooted at dir, creating it if needed.
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("localstore: could not create directory %s: %w", dir, err)
	}
	return &LocalStore{Dir: dir}, nil
}

// Save writes the bytes under a fresh key and returns "/images/<key>".
func (s *LocalStore) Save(_ context.Context, prefix string, data []byte, contentType string) (string, error) {
	key := BuildKey(prefix, contentType)
	path := filepath.Join(s.Dir, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("localstore: could not create key directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("localstore: could not write %s: %w", path, err)
	}
	return "/images/" + key, nil
}
