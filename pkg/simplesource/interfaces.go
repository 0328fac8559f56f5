package simplesource

import (
	"context"
	"io"
)

// BlobStore defines the interface for blob storage backends. Keys are
// caller-chosen opaque strings ("<namespace>::<id>"); writes are last-write-
// wins and Get reports an absent key with ErrBlobNotFound rather than a
// backend-specific error.
type BlobStore interface {
	// Put stores the reader's content under key, replacing any prior value.
	Put(ctx context.Context, key string, reader io.Reader) error

	// Get opens the blob stored under key. Returns ErrBlobNotFound when the
	// key is absent.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the blob stored under key. Deleting an absent key is
	// not an error.
	Delete(ctx context.Context, key string) error

	// Exists reports whether a blob is stored under key.
	Exists(ctx context.Context, key string) (bool, error)
}

// SourceRepository defines the interface for metadata persistence. The
// repository is the single source of truth for record ordering; Save
// overwrites the full list on every mutation (expected list sizes are
// user-curated, not bulk data).
type SourceRepository interface {
	// Load returns the ordered source list, most-recent-first. A repository
	// that has never been saved to returns an empty list, not an error.
	Load(ctx context.Context) ([]*Source, error)

	// Save persists the full ordered list, replacing whatever was stored.
	Save(ctx context.Context, sources []*Source) error

	// LoadSettings returns the persisted user settings, zero-valued when
	// nothing has been saved yet.
	LoadSettings(ctx context.Context) (*Settings, error)

	// SaveSettings persists the user settings.
	SaveSettings(ctx context.Context, settings *Settings) error
}

// BatchSender delivers a batch of sources to a webhook endpoint as a single
// JSON document. Implementations resolve blob-backed payloads through their
// own BlobStore and skip (not fail) targets whose blob cannot be read.
type BatchSender interface {
	Send(ctx context.Context, endpoint string, sources []*Source) (*BatchReceipt, error)
}

// BatchReceipt summarizes a completed delivery.
type BatchReceipt struct {
	Endpoint    string `json:"endpoint"`
	SourceCount int    `json:"source_count"`
	Skipped     int    `json:"skipped"`
}

// EventSink defines the interface for observing source lifecycle events.
// Sink failures are logged by implementations and never fail the operation
// that fired them.
type EventSink interface {
	// SourceAdded is fired when a source record is created
	SourceAdded(ctx context.Context, source *Source) error

	// SourceUpdated is fired when a source record is updated
	SourceUpdated(ctx context.Context, source *Source) error

	// SourceDeleted is fired when a source record is deleted
	SourceDeleted(ctx context.Context, source *Source) error

	// BatchSent is fired after a successful webhook delivery
	BatchSent(ctx context.Context, receipt *BatchReceipt) error
}
