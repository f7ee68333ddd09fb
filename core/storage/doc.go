// Package storage provides the destination store conversations are written to.
//
// It defines a path-addressed Store interface with two backends:
//   - ObjectStore wraps the MinIO Go client and works against AWS S3 or
//     self-hosted MinIO. Moves are server-side copies followed by a delete,
//     directories are zero-byte "dir/" marker objects.
//   - FSStore writes into a local directory (for example a mounted WebDAV
//     share) using temp file, fsync and rename so readers never see partial files.
//
// # Client Interface
//
// The Client interface abstracts the MinIO client so object store behaviour
// can be tested with the mocks in core/storage/mocks.
//
// # Operations
//
//   - Exists: file or directory presence.
//   - ReadBytes: full file content.
//   - Write: upload with optional overwrite protection (ErrExists).
//   - Move: rename without touching bytes.
//   - Remove: delete a file.
//   - Mkdir: create a directory (and the bucket, for ObjectStore).
//
// # Usage
//
//	store, err := storage.NewStore(cfg.Storage)
//	if err := store.Write(ctx, "conversations/Morning Chat.md", data, true); err != nil {
//	    return err
//	}
package storage
