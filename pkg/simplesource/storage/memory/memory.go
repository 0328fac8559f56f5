package memory

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/tendant/simple-source/pkg/simplesource"
)

// Store is an in-memory implementation of the simplesource.BlobStore
// interface. Intended for tests and development; nothing survives a restart.
type Store struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// New creates a new in-memory blob store
func New() simplesource.BlobStore {
	return &Store{
		blobs: make(map[string][]byte),
	}
}

// Put stores the reader's content under key. Last write wins.
func (s *Store) Put(ctx context.Context, key string, reader io.Reader) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.blobs[key] = data
	return nil
}

// Get opens the blob stored under key
func (s *Store) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, exists := s.blobs[key]
	if !exists {
		return nil, simplesource.ErrBlobNotFound
	}

	return io.NopCloser(bytes.NewReader(data)), nil
}

// Delete removes the blob stored under key. Absent keys are a no-op.
func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.blobs, key)
	return nil
}

// Exists reports whether a blob is stored under key
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.blobs[key]
	return exists, nil
}
