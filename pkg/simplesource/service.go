package simplesource

import (
	"context"
	"io"

	"github.com/google/uuid"
)

// Service defines the main interface for the simple-source library
type Service interface {
	// Staging operations
	AddFile(ctx context.Context, req AddFileRequest) (*Source, error)
	AddURL(ctx context.Context, req AddURLRequest) (*Source, error)
	AddText(ctx context.Context, req AddTextRequest) (*Source, error)

	// Source operations
	GetSource(ctx context.Context, id uuid.UUID) (*Source, error)
	ListSources(ctx context.Context) ([]*Source, error)
	UpdateSource(ctx context.Context, req UpdateSourceRequest) (*Source, error)
	DeleteSource(ctx context.Context, id uuid.UUID) error

	// Blob access for preview derivation. Returns ErrBlobNotFound for URL
	// sources and for records whose blob is absent.
	OpenBlob(ctx context.Context, id uuid.UUID) (io.ReadCloser, error)

	// Outbound delivery
	SendBatch(ctx context.Context, req SendBatchRequest) (*BatchReceipt, error)

	// Settings
	GetWebhookEndpoint(ctx context.Context) (string, error)
	SetWebhookEndpoint(ctx context.Context, endpoint string) error
}
