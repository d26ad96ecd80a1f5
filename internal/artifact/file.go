package artifact

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// FileStore writes documents into a local directory.
type FileStore struct {
	dir string
}

// NewFileStore makes sure dir exists and returns a store rooted at its
// absolute path.
func NewFileStore(dir string) (*FileStore, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create predictions dir: %w", err)
	}
	return &FileStore{dir: abs}, nil
}

// Dir returns the absolute directory the store writes to.
func (s *FileStore) Dir() string { return s.dir }

// Save writes v with two-space indentation and returns the absolute path.
func (s *FileStore) Save(_ context.Context, id uint64, v any) (string, error) {
	if id == 0 {
		return "", errors.New("missing id when writing prediction file")
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	path := filepath.Join(s.dir, FileName(id))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// Open returns the stored file for name.
func (s *FileStore) Open(_ context.Context, name string) (io.ReadCloser, error) {
	if !ValidName(name) {
		return nil, ErrInvalidName
	}
	f, err := os.Open(filepath.Join(s.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return f, err
}
