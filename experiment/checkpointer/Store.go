package checkpointer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNotFound is returned by a Store when no snapshot is saved under
// the requested key
var ErrNotFound = errors.New("checkpointer: snapshot not found")

// Store saves and loads opaque snapshots by key
type Store interface {
	Save(ctx context.Context, key string, data []byte) error
	Load(ctx context.Context, key string) ([]byte, error)
}

// FileStore is a Store which keeps each snapshot in its own file in a
// single directory
type FileStore struct {
	dir string
}

// NewFileStore returns a FileStore rooted at dir, creating dir if it
// does not exist
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("newFileStore: %w", err)
	}
	return &FileStore{dir}, nil
}

// Dir returns the directory the FileStore writes to
func (f *FileStore) Dir() string {
	return f.dir
}

// Save writes data to the file named key. The file is replaced
// atomically so that a crash never leaves a partial snapshot behind.
func (f *FileStore) Save(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("save: %w", err)
	}

	path, err := f.path(key)
	if err != nil {
		return fmt.Errorf("save: %w", err)
	}

	tmp, err := os.CreateTemp(f.dir, ".tmp-"+filepath.Base(path))
	if err != nil {
		return fmt.Errorf("save: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("save: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	return nil
}

// Load reads the file named key
func (f *FileStore) Load(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}

	path, err := f.path(key)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load %v: %w", key, ErrNotFound)
	} else if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	return data, nil
}

// path returns the file backing key, rejecting keys which would
// escape the store's directory
func (f *FileStore) path(key string) (string, error) {
	if key == "" || !filepath.IsLocal(key) {
		return "", fmt.Errorf("illegal key %q", key)
	}
	return filepath.Join(f.dir, key), nil
}
