package simplesource

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Error types
var (
	// ErrSourceNotFound indicates a source record was not found
	ErrSourceNotFound = errors.New("source not found")

	// ErrBlobNotFound indicates a blob was absent for the requested key.
	// Callers that derive previews or batch payloads treat this as "skip",
	// never as a fatal condition.
	ErrBlobNotFound = errors.New("blob not found")

	// ErrInvalidSource indicates a record violated the one-payload-per-kind
	// invariant
	ErrInvalidSource = errors.New("invalid source: exactly one payload matching kind is required")

	// ErrEndpointNotConfigured indicates a batch send was attempted with no
	// webhook endpoint configured
	ErrEndpointNotConfigured = errors.New("webhook endpoint not configured")

	// ErrNoTargets indicates a batch send was attempted with nothing selected
	ErrNoTargets = errors.New("no sources selected for delivery")
)

// SourceError represents an error related to source record operations
type SourceError struct {
	SourceID uuid.UUID
	Op       string
	Err      error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source operation %s failed for source %s: %v", e.Op, e.SourceID, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// StorageError represents an error related to blob storage operations
type StorageError struct {
	Key string
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage operation %s failed for key %s: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// DeliveryError represents a failed webhook delivery: a non-2xx response or
// a transport failure. Delivery is all-or-nothing per invocation; the caller
// recovers by re-invoking the send action.
type DeliveryError struct {
	Endpoint   string
	StatusCode int
	Err        error
}

func (e *DeliveryError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("delivery to %s failed with status %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("delivery to %s failed: %v", e.Endpoint, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}
