package preview_test

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-source/pkg/simplesource"
	"github.com/tendant/simple-source/pkg/simplesource/preview"
	memorystorage "github.com/tendant/simple-source/pkg/simplesource/storage/memory"
)

func newFileSource(t *testing.T, store simplesource.BlobStore, name, mimeType, content string) *simplesource.Source {
	t.Helper()
	id := uuid.New()
	key := simplesource.FileBlobKey(id)
	require.NoError(t, store.Put(context.Background(), key, strings.NewReader(content)))
	return &simplesource.Source{
		ID:       id,
		Name:     name,
		Kind:     simplesource.KindFile,
		Category: simplesource.DetectCategory(mimeType, name),
		File:     &simplesource.FilePayload{Key: key, Size: int64(len(content)), MimeType: mimeType},
	}
}

func newTextSource(t *testing.T, store simplesource.BlobStore, content string) *simplesource.Source {
	t.Helper()
	id := uuid.New()
	key := simplesource.TextBlobKey(id)
	require.NoError(t, store.Put(context.Background(), key, strings.NewReader(content)))
	return &simplesource.Source{
		ID:       id,
		Name:     "note",
		Kind:     simplesource.KindText,
		Category: simplesource.CategoryText,
		Text:     &simplesource.TextPayload{Key: key},
	}
}

func TestReconcileIssuesFileHandles(t *testing.T) {
	store := memorystorage.New()
	m := preview.NewManager(store)
	defer m.Close()
	ctx := context.Background()

	src := newFileSource(t, store, "clip.mp4", "video/mp4", "video bytes")
	require.NoError(t, m.Reconcile(ctx, []*simplesource.Source{src}))

	assert.Equal(t, preview.StateReady, m.State(src.ID))

	handle, ok := m.Handle(src.ID)
	require.True(t, ok)
	assert.Equal(t, src.ID, handle.SourceID)
	assert.Equal(t, simplesource.KindFile, handle.Kind)
	assert.Equal(t, "video/mp4", handle.MimeType)
	require.True(t, strings.HasPrefix(handle.URL, preview.DefaultBasePath+"/"))

	token := strings.TrimPrefix(handle.URL, preview.DefaultBasePath+"/")
	rc, mimeType, ok := m.Open(token)
	require.True(t, ok)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	rc.Close()
	assert.Equal(t, "video bytes", string(data))
	assert.Equal(t, "video/mp4", mimeType)
}

func TestReconcileIssuesTextHandles(t *testing.T) {
	store := memorystorage.New()
	m := preview.NewManager(store)
	defer m.Close()
	ctx := context.Background()

	src := newTextSource(t, store, "hello world")
	require.NoError(t, m.Reconcile(ctx, []*simplesource.Source{src}))

	handle, ok := m.Handle(src.ID)
	require.True(t, ok)
	assert.Equal(t, "hello world", handle.Text)
	assert.Empty(t, handle.URL)
}

func TestReconcileSkipsURLSources(t *testing.T) {
	store := memorystorage.New()
	m := preview.NewManager(store)
	defer m.Close()

	src := &simplesource.Source{
		ID:   uuid.New(),
		Kind: simplesource.KindURL,
		URL:  &simplesource.URLPayload{URL: "https://example.com"},
	}
	require.NoError(t, m.Reconcile(context.Background(), []*simplesource.Source{src}))

	assert.Equal(t, preview.StateAbsent, m.State(src.ID))
	_, ok := m.Handle(src.ID)
	assert.False(t, ok)
}

func TestReconcileSkipsMissingBlobs(t *testing.T) {
	store := memorystorage.New()
	m := preview.NewManager(store)
	defer m.Close()

	id := uuid.New()
	src := &simplesource.Source{
		ID:   id,
		Kind: simplesource.KindFile,
		File: &simplesource.FilePayload{Key: simplesource.FileBlobKey(id)},
	}
	require.NoError(t, m.Reconcile(context.Background(), []*simplesource.Source{src}))

	assert.Equal(t, preview.StateAbsent, m.State(src.ID))
}

func TestReconcileRevokesDepartedHandles(t *testing.T) {
	store := memorystorage.New()
	m := preview.NewManager(store)
	defer m.Close()
	ctx := context.Background()

	kept := newFileSource(t, store, "kept.png", "image/png", "png bytes")
	removed := newFileSource(t, store, "removed.png", "image/png", "gone bytes")
	require.NoError(t, m.Reconcile(ctx, []*simplesource.Source{kept, removed}))

	removedHandle, ok := m.Handle(removed.ID)
	require.True(t, ok)
	token := strings.TrimPrefix(removedHandle.URL, preview.DefaultBasePath+"/")

	require.NoError(t, m.Reconcile(ctx, []*simplesource.Source{kept}))

	// The departed record's token no longer resolves.
	_, _, ok = m.Open(token)
	assert.False(t, ok)
	_, ok = m.Handle(removed.ID)
	assert.False(t, ok)
	assert.Equal(t, preview.StateAbsent, m.State(removed.ID))

	// The surviving record keeps its handle.
	keptHandle, ok := m.Handle(kept.ID)
	require.True(t, ok)
	_, _, ok = m.Open(strings.TrimPrefix(keptHandle.URL, preview.DefaultBasePath+"/"))
	assert.True(t, ok)
}

func TestReconcileIsStableForUnchangedSources(t *testing.T) {
	store := memorystorage.New()
	m := preview.NewManager(store)
	defer m.Close()
	ctx := context.Background()

	src := newFileSource(t, store, "clip.mp4", "video/mp4", "video bytes")
	require.NoError(t, m.Reconcile(ctx, []*simplesource.Source{src}))

	first, ok := m.Handle(src.ID)
	require.True(t, ok)

	require.NoError(t, m.Reconcile(ctx, []*simplesource.Source{src}))

	second, ok := m.Handle(src.ID)
	require.True(t, ok)
	assert.Equal(t, first.URL, second.URL)
}

// gatedStore blocks the first Get until released so a reconciliation pass can
// be held mid-read while another pass runs to completion.
type gatedStore struct {
	inner   simplesource.BlobStore
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *gatedStore) Put(ctx context.Context, key string, r io.Reader) error {
	return g.inner.Put(ctx, key, r)
}

func (g *gatedStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	g.once.Do(func() {
		close(g.entered)
		<-g.release
	})
	return g.inner.Get(ctx, key)
}

func (g *gatedStore) Delete(ctx context.Context, key string) error {
	return g.inner.Delete(ctx, key)
}

func (g *gatedStore) Exists(ctx context.Context, key string) (bool, error) {
	return g.inner.Exists(ctx, key)
}

func TestReconcileDiscardsSupersededPass(t *testing.T) {
	inner := memorystorage.New()
	store := &gatedStore{inner: inner, entered: make(chan struct{}), release: make(chan struct{})}
	m := preview.NewManager(store)
	defer m.Close()
	ctx := context.Background()

	src := newFileSource(t, inner, "clip.mp4", "video/mp4", "video bytes")

	done := make(chan error, 1)
	go func() {
		done <- m.Reconcile(ctx, []*simplesource.Source{src})
	}()

	// The record is removed while the first pass is still reading its blob.
	<-store.entered
	require.NoError(t, m.Reconcile(ctx, nil))

	close(store.release)
	require.NoError(t, <-done)

	// The superseded pass must not have committed a handle for the removed
	// record.
	_, ok := m.Handle(src.ID)
	assert.False(t, ok)
	assert.Equal(t, preview.StateAbsent, m.State(src.ID))

	// A later pass over the restored record issues a fresh, working handle.
	require.NoError(t, m.Reconcile(ctx, []*simplesource.Source{src}))
	handle, ok := m.Handle(src.ID)
	require.True(t, ok)
	rc, _, ok := m.Open(strings.TrimPrefix(handle.URL, preview.DefaultBasePath+"/"))
	require.True(t, ok)
	rc.Close()
}

func TestCloseRevokesEverything(t *testing.T) {
	store := memorystorage.New()
	m := preview.NewManager(store)
	ctx := context.Background()

	src := newFileSource(t, store, "clip.mp4", "video/mp4", "video bytes")
	require.NoError(t, m.Reconcile(ctx, []*simplesource.Source{src}))

	handle, ok := m.Handle(src.ID)
	require.True(t, ok)
	token := strings.TrimPrefix(handle.URL, preview.DefaultBasePath+"/")

	m.Close()

	_, _, ok = m.Open(token)
	assert.False(t, ok)
	_, ok = m.Handle(src.ID)
	assert.False(t, ok)
	assert.Error(t, m.Reconcile(ctx, []*simplesource.Source{src}))
}

func TestWithBasePath(t *testing.T) {
	store := memorystorage.New()
	m := preview.NewManager(store, preview.WithBasePath("/view/"))
	defer m.Close()

	src := newFileSource(t, store, "shot.png", "image/png", "png bytes")
	require.NoError(t, m.Reconcile(context.Background(), []*simplesource.Source{src}))

	handle, ok := m.Handle(src.ID)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(handle.URL, "/view/"))
}
