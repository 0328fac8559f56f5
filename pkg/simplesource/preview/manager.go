// Package preview derives ephemeral, revocable view handles from blob
// storage: token-addressed URLs for file blobs, decoded text for text notes.
//
// The manager reconciles its handle cache against the source list by id:
// departed records release their handle, new records load their blob. The set
// of live handles always tracks the set of blob-backed records exactly.
// Interleaved reconciliation passes are resolved
// by a monotonically increasing pass token: a superseded pass discards its
// results instead of overwriting newer state.
package preview

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/tendant/simple-source/pkg/simplesource"
)

// State is the lifecycle state of one source's preview entry.
type State string

// Preview state constants (typed).
const (
	StateAbsent  State = "absent"
	StateLoading State = "loading"
	StateReady   State = "ready"
)

// DefaultBasePath is the URL path prefix for served file handles.
const DefaultBasePath = "/previews"

// Handle is an ephemeral view reference for one source. File handles carry a
// revocable token URL; text handles carry the decoded note and need no
// release.
type Handle struct {
	SourceID uuid.UUID
	Kind     simplesource.SourceKind
	URL      string // file sources: token-addressed serving path
	Text     string // text sources: decoded UTF-8 content
	MimeType string

	token string
}

// Manager owns the preview handle cache for one UI session. It is explicitly
// constructed with its blob store, passed where needed, and torn down with
// Close; there is no process-wide state.
type Manager struct {
	mu       sync.Mutex
	blobs    simplesource.BlobStore
	basePath string
	closed   bool

	pass    uint64
	entries map[uuid.UUID]*entry
	// registry backs the token URLs handed out for file sources. Revoking a
	// handle removes its token; a token is never reused for another source.
	registry map[string]*servedBlob
}

type entry struct {
	state  State
	pass   uint64 // the reconciliation pass that owns an in-flight load
	handle *Handle
}

type servedBlob struct {
	data     []byte
	mimeType string
}

// Option configures a Manager.
type Option func(*Manager)

// WithBasePath overrides the URL path prefix for file handles.
func WithBasePath(basePath string) Option {
	return func(m *Manager) {
		m.basePath = strings.TrimSuffix(basePath, "/")
	}
}

// NewManager creates a preview manager reading from the given blob store.
func NewManager(blobs simplesource.BlobStore, opts ...Option) *Manager {
	m := &Manager{
		blobs:    blobs,
		basePath: DefaultBasePath,
		entries:  make(map[uuid.UUID]*entry),
		registry: make(map[string]*servedBlob),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Reconcile synchronizes the handle cache with the given source list. Ids no
// longer present release their handle; blob-backed ids newly present (or left
// in-flight by a superseded pass) are loaded. A source whose blob is absent
// is silently skipped. Safe to call from interleaved goroutines: the newest
// pass wins, older passes discard their results.
func (m *Manager) Reconcile(ctx context.Context, sources []*simplesource.Source) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return errors.New("preview manager is closed")
	}

	m.pass++
	myPass := m.pass

	want := make(map[uuid.UUID]*simplesource.Source, len(sources))
	for _, src := range sources {
		if _, ok := src.BlobKey(); ok {
			want[src.ID] = src
		}
	}

	// Release handles for departed records.
	for id, e := range m.entries {
		if _, ok := want[id]; !ok {
			m.revokeLocked(e)
			delete(m.entries, id)
		}
	}

	// Schedule loads for new records, and take ownership of loads left
	// in-flight by an older pass.
	var jobs []*simplesource.Source
	for id, src := range want {
		e, ok := m.entries[id]
		if ok && e.state == StateReady {
			continue
		}
		if !ok {
			e = &entry{state: StateLoading}
			m.entries[id] = e
		}
		e.pass = myPass
		jobs = append(jobs, src)
	}
	m.mu.Unlock()

	// Blob reads happen outside the lock; commit is re-checked per entry.
	type loaded struct {
		src  *simplesource.Source
		data []byte
		ok   bool
	}
	results := make([]loaded, 0, len(jobs))
	for _, src := range jobs {
		key, _ := src.BlobKey()
		data, err := m.readBlob(ctx, key)
		if err != nil {
			// Blob miss or read failure: skip this source's preview.
			results = append(results, loaded{src: src})
			continue
		}
		results = append(results, loaded{src: src, data: data, ok: true})
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}

	for _, res := range results {
		e, ok := m.entries[res.src.ID]
		if !ok || e.state != StateLoading || e.pass != myPass {
			// Superseded or released while loading: discard this result.
			continue
		}
		if !res.ok {
			delete(m.entries, res.src.ID)
			continue
		}
		e.handle = m.buildHandleLocked(res.src, res.data)
		e.state = StateReady
	}

	return nil
}

// Handle returns the ready preview handle for a source id, if one exists.
func (m *Manager) Handle(id uuid.UUID) (*Handle, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[id]
	if !ok || e.state != StateReady {
		return nil, false
	}
	h := *e.handle
	return &h, true
}

// State returns the preview lifecycle state for a source id.
func (m *Manager) State(id uuid.UUID) State {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[id]
	if !ok {
		return StateAbsent
	}
	return e.state
}

// Open resolves a served token to its blob content for HTTP delivery.
// Returns false for unknown or revoked tokens.
func (m *Manager) Open(token string) (io.ReadCloser, string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sb, ok := m.registry[token]
	if !ok {
		return nil, "", false
	}
	return io.NopCloser(bytes.NewReader(sb.data)), sb.mimeType, true
}

// Close releases every live handle and rejects further reconciliation.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	for id, e := range m.entries {
		m.revokeLocked(e)
		delete(m.entries, id)
	}
	m.closed = true
}

func (m *Manager) buildHandleLocked(src *simplesource.Source, data []byte) *Handle {
	h := &Handle{
		SourceID: src.ID,
		Kind:     src.Kind,
	}
	switch src.Kind {
	case simplesource.KindText:
		// Decoded text is not a revocable resource.
		h.Text = string(data)
	default:
		token := uuid.NewString()
		m.registry[token] = &servedBlob{
			data:     data,
			mimeType: src.File.MimeType,
		}
		h.token = token
		h.URL = m.basePath + "/" + token
		h.MimeType = src.File.MimeType
	}
	return h
}

func (m *Manager) revokeLocked(e *entry) {
	if e.handle != nil && e.handle.token != "" {
		delete(m.registry, e.handle.token)
	}
	e.handle = nil
	e.state = StateAbsent
}

func (m *Manager) readBlob(ctx context.Context, key string) ([]byte, error) {
	rc, err := m.blobs.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
