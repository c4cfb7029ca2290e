package store

import (
	"context"
	"errors"
)

// ErrNotFound indicates the requested record or blob does not exist.
var ErrNotFound = errors.New("not found")

// MetadataStore is the record-per-document store. Writes are merge-updates:
// the given fields are set, other fields are left untouched, and the
// mutation timestamp is always stamped. Last-write-wins per field is safe
// here because each field has a single writing stage and every stage's
// processing is idempotent.
type MetadataStore interface {
	// Get returns the record for a document ID, or ErrNotFound.
	Get(ctx context.Context, documentID string) (*DocumentRecord, error)

	// MergeUpdate sets the given fields on the record, creating it if
	// absent, and stamps updated_at.
	MergeUpdate(ctx context.Context, documentID string, fields map[string]string) error

	// List returns all document records.
	List(ctx context.Context) ([]*DocumentRecord, error)
}

// BinaryStore holds the raw uploaded bytes, keyed by document ID. Exactly
// one blob exists per document while the pipeline is active; retention after
// completion is external policy.
type BinaryStore interface {
	// Put stores the document bytes.
	Put(ctx context.Context, documentID string, data []byte) error

	// Get returns the document bytes, or ErrNotFound.
	Get(ctx context.Context, documentID string) ([]byte, error)
}
