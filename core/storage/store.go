package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a path does not exist.
	ErrNotFound = errors.New("not found")
	// ErrExists is returned when a non-overwriting write or move hits an existing path.
	ErrExists = errors.New("already exists")
)

// Store is a path-addressed file store used as the sync destination.
// Paths use forward slashes; a leading slash is ignored.
type Store interface {
	// Exists reports whether a file or directory exists at path.
	Exists(ctx context.Context, path string) (bool, error)
	// ReadBytes returns the content of the file at path.
	ReadBytes(ctx context.Context, path string) ([]byte, error)
	// Write stores data at path. With overwrite false an existing file yields ErrExists.
	Write(ctx context.Context, path string, data []byte, overwrite bool) error
	// Move renames oldPath to newPath without changing its bytes.
	Move(ctx context.Context, oldPath, newPath string, overwrite bool) error
	// Remove deletes the file at path.
	Remove(ctx context.Context, path string) error
	// Mkdir creates the directory at path and any missing parents.
	Mkdir(ctx context.Context, path string) error
}

const (
	// DriverS3 stores documents in an S3 compatible bucket.
	DriverS3 = "s3"
	// DriverFS stores documents in a local directory.
	DriverFS = "fs"
)

// NewStore creates the Store selected by cfg.Driver.
func NewStore(cfg Config) (Store, error) {
	switch strings.ToLower(cfg.Driver) {
	case DriverS3, "":
		client, err := NewClient(cfg)
		if err != nil {
			return nil, err
		}
		return NewObjectStore(client, cfg.Bucket, cfg.Region), nil
	case DriverFS:
		return NewFSStore(cfg.Root)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// cleanKey strips leading and trailing slashes from a path.
func cleanKey(path string) string {
	return strings.Trim(strings.ReplaceAll(path, "\\", "/"), "/")
}
