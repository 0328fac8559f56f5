package memory

import (
	"context"
	"sync"

	"github.com/tendant/simple-source/pkg/simplesource"
)

// Repository implements simplesource.SourceRepository using in-memory storage
type Repository struct {
	mu       sync.RWMutex
	sources  []*simplesource.Source
	settings simplesource.Settings
}

// New creates a new in-memory repository
func New() simplesource.SourceRepository {
	return &Repository{}
}

// Load returns the stored list, most-recent-first. Copies are returned to
// prevent external modifications.
func (r *Repository) Load(ctx context.Context) ([]*simplesource.Source, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*simplesource.Source, len(r.sources))
	for i, src := range r.sources {
		result[i] = src.Clone()
	}
	return result, nil
}

// Save replaces the stored list
func (r *Repository) Save(ctx context.Context, sources []*simplesource.Source) error {
	stored := make([]*simplesource.Source, len(sources))
	for i, src := range sources {
		stored[i] = src.Clone()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.sources = stored
	return nil
}

// LoadSettings returns the stored settings
func (r *Repository) LoadSettings(ctx context.Context) (*simplesource.Settings, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	settings := r.settings
	return &settings, nil
}

// SaveSettings replaces the stored settings
func (r *Repository) SaveSettings(ctx context.Context, settings *simplesource.Settings) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.settings = *settings
	return nil
}
