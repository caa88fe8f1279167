// Package fsstore implements storage.Store on the local filesystem. Keys map
// to file paths under a root directory, so store contents can be inspected
// and seeded with ordinary file tools.
package fsstore

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/c360/cleansweep/errors"
)

// Store is a filesystem-backed storage.Store rooted at a directory.
type Store struct {
	root string
}

// New creates a Store rooted at dir, creating the directory if needed.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: root directory is required", errors.ErrInvalidConfig),
			"fsstore", "New", "validate root")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.WrapFatal(err, "fsstore", "New", "create root directory")
	}
	return &Store{root: dir}, nil
}

// path validates the key and maps it under the root. Keys must stay inside
// the root, so absolute keys and parent traversal are rejected.
func (s *Store) path(key string) (string, error) {
	if key == "" {
		return "", invalidKey(key, "empty key")
	}
	cleaned := filepath.Clean(filepath.FromSlash(key))
	if filepath.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", invalidKey(key, "key escapes store root")
	}
	return filepath.Join(s.root, cleaned), nil
}

func invalidKey(key, detail string) error {
	return errors.WrapInvalid(
		fmt.Errorf("invalid key %q: %s", key, detail),
		"fsstore", "path", "validate key")
}

// Put writes data to the key's file, creating parent directories as needed.
func (s *Store) Put(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return errors.WrapTransient(err, "fsstore", "Put", "create parent directory")
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return errors.WrapTransient(err, "fsstore", "Put", "write file")
	}
	return nil
}

// Get reads the value at key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WrapTransient(
				fmt.Errorf("%w: %s", errors.ErrKeyNotFound, key),
				"fsstore", "Get", "read file")
		}
		return nil, errors.WrapTransient(err, "fsstore", "Get", "read file")
	}
	return data, nil
}

// List walks the root and returns slash-separated keys with the prefix.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	keys := []string{}
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
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
		return nil, errors.WrapTransient(err, "fsstore", "List", "walk store root")
	}
	sort.Strings(keys)
	return keys, nil
}

// Delete removes the key's file. Missing keys are ignored.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return errors.WrapTransient(err, "fsstore", "Delete", "remove file")
	}
	return nil
}
