package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FSStore implements Store backed by a local directory, such as a mounted
// WebDAV share or a synced notes vault.
type FSStore struct {
	root string // absolute path to the destination root
}

// NewFSStore creates a store rooted at root, creating the directory if needed.
func NewFSStore(root string) (*FSStore, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("storage: fs root is empty")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create root: %w", err)
	}
	return &FSStore{root: abs}, nil
}

// safePath resolves a store path against the root and rejects anything
// that escapes it.
func (f *FSStore) safePath(p string) (string, error) {
	key := cleanKey(p)
	if key == "" {
		return f.root, nil
	}
	joined := filepath.Join(f.root, filepath.FromSlash(key))
	if !strings.HasPrefix(joined, f.root+string(os.PathSeparator)) && joined != f.root {
		return "", fmt.Errorf("storage: path escapes root: %s", p)
	}
	return joined, nil
}

// Exists reports whether a file or directory exists at p.
func (f *FSStore) Exists(_ context.Context, p string) (bool, error) {
	abs, err := f.safePath(p)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(abs); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("storage: stat %s: %w", p, err)
	}
	return true, nil
}

// ReadBytes returns the content of the file at p.
func (f *FSStore) ReadBytes(_ context.Context, p string) ([]byte, error) {
	abs, err := f.safePath(p)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("storage: read %s: %w", p, ErrNotFound)
		}
		return nil, fmt.Errorf("storage: read %s: %w", p, err)
	}
	return data, nil
}

// Write atomically writes data: tmp file, fsync, rename.
func (f *FSStore) Write(_ context.Context, p string, data []byte, overwrite bool) error {
	abs, err := f.safePath(p)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(abs); err == nil {
			return fmt.Errorf("storage: write %s: %w", p, ErrExists)
		}
	}

	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("storage: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".omi-sync-tmp-*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return nil
}

// Move renames oldPath to newPath.
func (f *FSStore) Move(_ context.Context, oldPath, newPath string, overwrite bool) error {
	src, err := f.safePath(oldPath)
	if err != nil {
		return err
	}
	dst, err := f.safePath(newPath)
	if err != nil {
		return err
	}
	if src == dst {
		return nil
	}
	if _, err := os.Stat(src); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("storage: move %s: %w", oldPath, ErrNotFound)
		}
		return fmt.Errorf("storage: move %s: %w", oldPath, err)
	}
	if !overwrite {
		if _, err := os.Stat(dst); err == nil {
			return fmt.Errorf("storage: move %s -> %s: %w", oldPath, newPath, ErrExists)
		}
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("storage: mkdir: %w", err)
	}
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("storage: move %s -> %s: %w", oldPath, newPath, err)
	}
	return nil
}

// Remove deletes the file at p.
func (f *FSStore) Remove(_ context.Context, p string) error {
	abs, err := f.safePath(p)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("storage: remove %s: %w", p, ErrNotFound)
		}
		return fmt.Errorf("storage: remove %s: %w", p, err)
	}
	return nil
}

// Mkdir creates the directory at p and its parents.
func (f *FSStore) Mkdir(_ context.Context, p string) error {
	abs, err := f.safePath(p)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return fmt.Errorf("storage: mkdir %s: %w", p, err)
	}
	return nil
}
