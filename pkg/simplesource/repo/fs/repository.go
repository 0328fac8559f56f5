// Package fs persists the source list and the user settings as JSON documents
// on the local filesystem. The whole list is one serialized value rewritten on
// every mutation; expected list sizes are user-curated, not bulk data.
package fs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/tendant/simple-source/pkg/simplesource"
)

const (
	sourcesFileName  = "sources.json"
	settingsFileName = "settings.json"
)

// Repository implements simplesource.SourceRepository on the local filesystem
type Repository struct {
	mu  sync.Mutex
	dir string
}

// New creates a filesystem repository rooted at dir, creating it if needed
func New(dir string) (*Repository, error) {
	if dir == "" {
		return nil, errors.New("data directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &Repository{dir: dir}, nil
}

// Load returns the persisted list; a missing file yields an empty list
func (r *Repository) Load(ctx context.Context) ([]*simplesource.Source, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var sources []*simplesource.Source
	if err := r.readJSON(sourcesFileName, &sources); err != nil {
		return nil, err
	}
	return sources, nil
}

// Save persists the full ordered list
func (r *Repository) Save(ctx context.Context, sources []*simplesource.Source) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sources == nil {
		sources = []*simplesource.Source{}
	}
	return r.writeJSON(sourcesFileName, sources)
}

// LoadSettings returns the persisted settings; missing file yields zero values
func (r *Repository) LoadSettings(ctx context.Context) (*simplesource.Settings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var settings simplesource.Settings
	if err := r.readJSON(settingsFileName, &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

// SaveSettings persists the settings
func (r *Repository) SaveSettings(ctx context.Context, settings *simplesource.Settings) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.writeJSON(settingsFileName, settings)
}

func (r *Repository) readJSON(name string, v interface{}) error {
	data, err := os.ReadFile(filepath.Join(r.dir, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", name, err)
	}
	return nil
}

// writeJSON writes through a temp file and a rename so a crash mid-write
// never leaves a truncated document behind.
func (r *Repository) writeJSON(name string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}

	tmp, err := os.CreateTemp(r.dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, filepath.Join(r.dir, name)); err != nil {
		return fmt.Errorf("failed to commit %s: %w", name, err)
	}
	return nil
}
