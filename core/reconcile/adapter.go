package reconcile

import (
	"context"
	"time"
)

// Adapter defines the record-specific side of reconciliation.
// The engine only sees Items; the adapter knows how to read them.
type Adapter interface {
	// Name returns the adapter name used in logs (e.g., "conversations").
	Name() string

	// ExtractKey returns the stable record id. An empty id skips the record.
	ExtractKey(item Item) string

	// ExtractTitle returns the current record title.
	ExtractTitle(item Item) string

	// ExtractCreatedAt returns the raw creation timestamp, used for filename disambiguation.
	ExtractCreatedAt(item Item) string

	// ExtractContent returns the content-relevant subset of the record.
	// Only this value feeds the fingerprint, so ids, titles outside the
	// content and timestamps must not be part of it.
	ExtractContent(item Item) any

	// Render builds the destination document. previous holds the bytes of
	// the document currently at the destination, or nil.
	Render(item Item, fingerprint string, syncedAt time.Time, previous []byte) (Document, error)
}

// Document is a rendered destination file.
type Document struct {
	// Content is the complete file body.
	Content []byte

	// MergeErr is set when the previous document's metadata could not be
	// parsed. Content is still complete, just without preserved user keys.
	MergeErr error
}

// Source lists every record of the remote collection.
// It returns an error instead of a partial list.
type Source interface {
	FetchAll(ctx context.Context) ([]Item, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) ([]Item, error)

// FetchAll calls f(ctx).
func (f SourceFunc) FetchAll(ctx context.Context) ([]Item, error) {
	return f(ctx)
}
