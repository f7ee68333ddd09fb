package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"omi-sync/core/reconcile"
	"omi-sync/core/storage"
)

// fileDocument is the on-disk layout of the state file.
type fileDocument struct {
	Version       int                        `json:"version"`
	LastSync      *string                    `json:"last_sync"`
	Conversations map[string]reconcile.Entry `json:"conversations"`
}

// FileBackend stores the state as JSON in a single file.
type FileBackend struct {
	dir  *storage.FSStore
	name string
}

// NewFileBackend creates a backend for the state file at path. The parent
// directory is created if needed.
func NewFileBackend(path string) (*FileBackend, error) {
	if path == "" {
		return nil, errors.New("state: file path is empty")
	}
	dir, err := storage.NewFSStore(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("state: %w", err)
	}
	return &FileBackend{dir: dir, name: filepath.Base(path)}, nil
}

// Load reads the state file. A missing file is an empty state. An
// undecodable file returns an error wrapping ErrCorrupt.
func (b *FileBackend) Load(ctx context.Context) (*reconcile.State, error) {
	data, err := b.dir.ReadBytes(ctx, b.name)
	if errors.Is(err, storage.ErrNotFound) {
		return reconcile.NewState(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("state: %w", err)
	}

	var doc fileDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, b.name, err)
	}
	if doc.Version > FormatVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, doc.Version)
	}

	st := reconcile.NewState()
	for id, e := range doc.Conversations {
		st.Put(id, e)
	}
	if doc.LastSync != nil {
		if ts, err := reconcile.ParseTimestamp(*doc.LastSync); err == nil {
			st.LastSync = &ts
		}
	}
	return st, nil
}

// Save writes st atomically, replacing the previous file.
func (b *FileBackend) Save(ctx context.Context, st *reconcile.State) error {
	doc := fileDocument{
		Version:       FormatVersion,
		Conversations: st.Entries,
	}
	if doc.Conversations == nil {
		doc.Conversations = map[string]reconcile.Entry{}
	}
	if st.LastSync != nil {
		ts := st.LastSync.UTC().Format(time.RFC3339Nano)
		doc.LastSync = &ts
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("state: encode: %w", err)
	}
	if err := b.dir.Write(ctx, b.name, append(data, '\n'), true); err != nil {
		return fmt.Errorf("state: save: %w", err)
	}
	return nil
}

// Reset deletes the state file.
func (b *FileBackend) Reset(ctx context.Context) error {
	if err := b.dir.Remove(ctx, b.name); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("state: reset: %w", err)
	}
	return nil
}
