package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/klass-lk/postboard/internal/model"
)

const DefaultFilePath = "blog_posts.json"

type FileConfig struct {
	Path string `yaml:"path"`
}

// FileStore keeps the collection in a single JSON file on local disk.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	if path == "" {
		path = DefaultFilePath
	}
	return &FileStore{path: path}
}

func (s *FileStore) Path() string {
	return s.path
}

// Initialize creates the file with the seed posts. An existing file is left
// untouched. The existence check and the write are not one atomic step.
func (s *FileStore) Initialize(ctx context.Context) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	file, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil
		}
		return fmt.Errorf("failed to create %s: %w", s.path, err)
	}

	data, err := encode(model.SeedPosts())
	if err != nil {
		file.Close()
		return err
	}
	return writeAndClose(file, data, s.path)
}

// writeAndClose reports a failed Close as well, since that is where a
// buffered write can surface its error.
func writeAndClose(w io.WriteCloser, data []byte, name string) error {
	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", name, err)
	}
	return nil
}

func (s *FileStore) Load(ctx context.Context) ([]model.Post, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotInitialized, s.path)
		}
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}
	return decode(data)
}

func (s *FileStore) Save(ctx context.Context, posts []model.Post) error {
	data, err := encode(posts)
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", s.path, err)
	}
	return nil
}
