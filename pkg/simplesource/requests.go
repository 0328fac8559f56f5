package simplesource

import (
	"io"

	"github.com/google/uuid"
)

// Request/Response DTOs

// AddFileRequest contains parameters for staging a file source. Data is
// consumed once and stored in blob storage under the record's file key. Size
// may be zero when unknown; the service counts the stored bytes in that case.
type AddFileRequest struct {
	Name        string
	MimeType    string
	Size        int64
	Data        io.Reader
	Tags        []string
	Description string
}

// AddURLRequest contains parameters for staging a remote link source.
type AddURLRequest struct {
	Name        string
	URL         string
	Tags        []string
	Description string
}

// AddTextRequest contains parameters for staging a text note source.
type AddTextRequest struct {
	Name        string
	Text        string
	Tags        []string
	Description string
}

// UpdateSourceRequest contains parameters for updating a source record's
// mutable metadata. Nil fields are left unchanged; kind, category and payload
// are immutable after creation.
type UpdateSourceRequest struct {
	ID          uuid.UUID
	Name        *string
	Description *string
	Tags        *[]string
}

// SendBatchRequest contains parameters for delivering selected sources to the
// outbound webhook. An empty Endpoint falls back to the persisted setting.
type SendBatchRequest struct {
	Endpoint  string
	SourceIDs []uuid.UUID
}
