package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Filesystem is a Store that keeps each blob as a file under a root
// directory. This is the local-development backend — the directory layout
// mirrors the key layout ("users/3/profile.json" becomes exactly that path
// under root), so the data directory is directly inspectable.
//
// CONDITIONAL WRITES ON A FILESYSTEM:
// PutIfAbsent opens the target with O_CREATE|O_EXCL, which the OS guarantees
// to fail with EEXIST if the file is already there. That gives us the same
// create-only semantics a cloud object store provides with If-None-Match.
type Filesystem struct {
	root string
}

var _ Store = (*Filesystem)(nil)

// NewFilesystem creates a Store rooted at dir, creating it if needed.
func NewFilesystem(dir string) (*Filesystem, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("objectstore: creating root %s: %w", dir, err)
	}
	return &Filesystem{root: dir}, nil
}

// path maps a key to a file path under the root. Keys always use forward
// slashes; filepath.FromSlash handles the OS separator.
func (f *Filesystem) path(key string) string {
	return filepath.Join(f.root, filepath.FromSlash(key))
}

func (f *Filesystem) Get(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(f.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("objectstore: reading %s: %w", key, err)
	}
	return data, nil
}

func (f *Filesystem) Put(_ context.Context, key string, data []byte) error {
	path := f.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("objectstore: creating directory for %s: %w", key, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("objectstore: writing %s: %w", key, err)
	}
	return nil
}

func (f *Filesystem) PutIfAbsent(_ context.Context, key string, data []byte) error {
	path := f.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("objectstore: creating directory for %s: %w", key, err)
	}

	// O_EXCL makes the create atomic: exactly one concurrent caller wins.
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return ErrKeyExists
		}
		return fmt.Errorf("objectstore: creating %s: %w", key, err)
	}
	defer file.Close()

	if _, err := file.Write(data); err != nil {
		return fmt.Errorf("objectstore: writing %s: %w", key, err)
	}
	return nil
}

func (f *Filesystem) List(_ context.Context, prefix string) ([]string, error) {
	keys := make([]string, 0)

	err := filepath.WalkDir(f.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(f.root, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("objectstore: listing %s: %w", prefix, err)
	}
	return keys, nil
}
