package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"

	"github.com/tendant/simple-source/pkg/simplesource"
)

// Store is a filesystem implementation of the simplesource.BlobStore
// interface. Blobs survive process restarts but stay device-local. Writes go
// through a temp file and a rename so a blob either fully exists or doesn't.
type Store struct {
	mu       sync.RWMutex
	baseDir  string
	compress bool
}

// Config options for the filesystem blob store
type Config struct {
	BaseDir  string // Base directory for storing blobs
	Compress bool   // Gzip blobs at rest
}

const tempDirName = ".tmp"

// New creates a new filesystem blob store
func New(config Config) (simplesource.BlobStore, error) {
	if config.BaseDir == "" {
		return nil, errors.New("base directory is required")
	}

	if err := os.MkdirAll(config.BaseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(config.BaseDir, tempDirName), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	return &Store{
		baseDir:  config.BaseDir,
		compress: config.Compress,
	}, nil
}

// Put stores the reader's content under key, replacing any prior value
func (s *Store) Put(ctx context.Context, key string, reader io.Reader) error {
	if err := validateKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(filepath.Join(s.baseDir, tempDirName), "blob-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	var w io.Writer = tmp
	var gz *gzip.Writer
	if s.compress {
		gz = gzip.NewWriter(tmp)
		w = gz
	}

	if _, err := io.Copy(w, reader); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write blob: %w", err)
	}
	if gz != nil {
		if err := gz.Close(); err != nil {
			tmp.Close()
			return fmt.Errorf("failed to flush blob: %w", err)
		}
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, s.blobPath(key)); err != nil {
		return fmt.Errorf("failed to commit blob: %w", err)
	}

	return nil
}

// Get opens the blob stored under key
func (s *Store) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	f, err := os.Open(s.blobPath(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, simplesource.ErrBlobNotFound
		}
		return nil, fmt.Errorf("failed to open blob: %w", err)
	}

	if !s.compress {
		return f, nil
	}

	gz, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to decompress blob: %w", err)
	}
	return &gzipReadCloser{gz: gz, f: f}, nil
}

// Delete removes the blob stored under key. Absent keys are a no-op.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.blobPath(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete blob: %w", err)
	}
	return nil
}

// Exists reports whether a blob is stored under key
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, err := os.Stat(s.blobPath(key))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// blobPath maps a blob key to a file path. Keys use "::" as a namespace
// separator ("file::<id>"); the namespace becomes a subdirectory so the base
// directory stays browsable.
func (s *Store) blobPath(key string) string {
	ns, rest, found := strings.Cut(key, "::")
	if found {
		dir := filepath.Join(s.baseDir, ns)
		_ = os.MkdirAll(dir, 0o755)
		return filepath.Join(dir, rest)
	}
	return filepath.Join(s.baseDir, key)
}

func validateKey(key string) error {
	if key == "" {
		return errors.New("blob key cannot be empty")
	}
	if strings.ContainsAny(key, "/\\") || strings.Contains(key, "..") {
		return fmt.Errorf("invalid blob key %q", key)
	}
	if ns, rest, found := strings.Cut(key, "::"); found && (ns == "" || rest == "") {
		return fmt.Errorf("invalid blob key %q", key)
	}
	return nil
}

type gzipReadCloser struct {
	gz *gzip.Reader
	f  *os.File
}

func (g *gzipReadCloser) Read(p []byte) (int, error) {
	return g.gz.Read(p)
}

func (g *gzipReadCloser) Close() error {
	gzErr := g.gz.Close()
	fErr := g.f.Close()
	if gzErr != nil {
		return gzErr
	}
	return fErr
}
