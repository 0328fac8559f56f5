package simplesource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// service implements the Service interface
type service struct {
	repository SourceRepository
	blobs      BlobStore
	sender     BatchSender
	eventSink  EventSink

	// Guards load-modify-save cycles on the metadata list so interleaved
	// mutations never clobber each other.
	mu sync.Mutex
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithRepository sets the metadata repository for the service
func WithRepository(repo SourceRepository) Option {
	return func(s *service) {
		s.repository = repo
	}
}

// WithBlobStore sets the blob storage backend
func WithBlobStore(store BlobStore) Option {
	return func(s *service) {
		s.blobs = store
	}
}

// WithSender sets the outbound batch sender
func WithSender(sender BatchSender) Option {
	return func(s *service) {
		s.sender = sender
	}
}

// WithEventSink sets the event sink for the service
func WithEventSink(sink EventSink) Option {
	return func(s *service) {
		s.eventSink = sink
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{}

	for _, option := range options {
		option(s)
	}

	if s.repository == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if s.blobs == nil {
		return nil, fmt.Errorf("blob store is required")
	}

	return s, nil
}

// Staging operations

func (s *service) AddFile(ctx context.Context, req AddFileRequest) (*Source, error) {
	if req.Data == nil {
		return nil, fmt.Errorf("file data is required")
	}

	id := uuid.New()
	key := FileBlobKey(id)

	counter := &countingReader{r: req.Data}
	if err := s.blobs.Put(ctx, key, counter); err != nil {
		return nil, &StorageError{Key: key, Op: "put", Err: err}
	}

	size := req.Size
	if size == 0 {
		size = counter.n
	}

	source := &Source{
		ID:          id,
		Name:        req.Name,
		Kind:        KindFile,
		Category:    DetectCategory(req.MimeType, req.Name),
		Description: req.Description,
		Tags:        capTags(req.Tags),
		CreatedAt:   time.Now().UTC(),
		File: &FilePayload{
			Key:      key,
			Size:     size,
			MimeType: req.MimeType,
		},
	}

	if err := s.prepend(ctx, source); err != nil {
		// The record never made it into the list; don't leak its blob.
		_ = s.blobs.Delete(ctx, key)
		return nil, err
	}

	s.fireAdded(ctx, source)
	return source.Clone(), nil
}

func (s *service) AddURL(ctx context.Context, req AddURLRequest) (*Source, error) {
	rawURL := strings.TrimSpace(req.URL)
	if rawURL == "" {
		return nil, fmt.Errorf("url is required")
	}

	name := req.Name
	if name == "" {
		name = rawURL
	}

	source := &Source{
		ID:          uuid.New(),
		Name:        name,
		Kind:        KindURL,
		Category:    DetectCategoryFromURL(rawURL),
		Description: req.Description,
		Tags:        capTags(req.Tags),
		CreatedAt:   time.Now().UTC(),
		URL:         &URLPayload{URL: rawURL},
	}

	if err := s.prepend(ctx, source); err != nil {
		return nil, err
	}

	s.fireAdded(ctx, source)
	return source.Clone(), nil
}

func (s *service) AddText(ctx context.Context, req AddTextRequest) (*Source, error) {
	id := uuid.New()
	key := TextBlobKey(id)

	if err := s.blobs.Put(ctx, key, strings.NewReader(req.Text)); err != nil {
		return nil, &StorageError{Key: key, Op: "put", Err: err}
	}

	name := req.Name
	if name == "" {
		name = "Untitled note"
	}

	source := &Source{
		ID:          id,
		Name:        name,
		Kind:        KindText,
		Category:    CategoryText,
		Description: req.Description,
		Tags:        capTags(req.Tags),
		CreatedAt:   time.Now().UTC(),
		Text:        &TextPayload{Key: key},
	}

	if err := s.prepend(ctx, source); err != nil {
		_ = s.blobs.Delete(ctx, key)
		return nil, err
	}

	s.fireAdded(ctx, source)
	return source.Clone(), nil
}

// Source operations

func (s *service) GetSource(ctx context.Context, id uuid.UUID) (*Source, error) {
	sources, err := s.repository.Load(ctx)
	if err != nil {
		return nil, err
	}
	for _, src := range sources {
		if src.ID == id {
			return src.Clone(), nil
		}
	}
	return nil, ErrSourceNotFound
}

func (s *service) ListSources(ctx context.Context) ([]*Source, error) {
	sources, err := s.repository.Load(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]*Source, len(sources))
	for i, src := range sources {
		result[i] = src.Clone()
	}
	return result, nil
}

func (s *service) UpdateSource(ctx context.Context, req UpdateSourceRequest) (*Source, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sources, err := s.repository.Load(ctx)
	if err != nil {
		return nil, err
	}

	var updated *Source
	for _, src := range sources {
		if src.ID != req.ID {
			continue
		}
		if req.Name != nil && *req.Name != "" {
			src.Name = *req.Name
		}
		if req.Description != nil {
			src.Description = *req.Description
		}
		if req.Tags != nil {
			src.Tags = capTags(*req.Tags)
		}
		updated = src
		break
	}
	if updated == nil {
		return nil, ErrSourceNotFound
	}

	if err := s.repository.Save(ctx, sources); err != nil {
		return nil, &SourceError{SourceID: req.ID, Op: "update", Err: err}
	}

	if s.eventSink != nil {
		_ = s.eventSink.SourceUpdated(ctx, updated)
	}

	return updated.Clone(), nil
}

func (s *service) DeleteSource(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sources, err := s.repository.Load(ctx)
	if err != nil {
		return err
	}

	var removed *Source
	remaining := sources[:0]
	for _, src := range sources {
		if src.ID == id {
			removed = src
			continue
		}
		remaining = append(remaining, src)
	}
	if removed == nil {
		return ErrSourceNotFound
	}

	// The record exclusively owns its blob. Delete the blob first: a record
	// whose blob is gone degrades to a skip and the delete can be retried,
	// while a blob whose record is gone leaks with no recovery path.
	if key, ok := removed.BlobKey(); ok {
		if err := s.blobs.Delete(ctx, key); err != nil && !errors.Is(err, ErrBlobNotFound) {
			return &StorageError{Key: key, Op: "delete", Err: err}
		}
	}

	if err := s.repository.Save(ctx, remaining); err != nil {
		return &SourceError{SourceID: id, Op: "delete", Err: err}
	}

	if s.eventSink != nil {
		_ = s.eventSink.SourceDeleted(ctx, removed)
	}

	return nil
}

func (s *service) OpenBlob(ctx context.Context, id uuid.UUID) (io.ReadCloser, error) {
	source, err := s.GetSource(ctx, id)
	if err != nil {
		return nil, err
	}
	key, ok := source.BlobKey()
	if !ok {
		return nil, ErrBlobNotFound
	}
	return s.blobs.Get(ctx, key)
}

// Outbound delivery

func (s *service) SendBatch(ctx context.Context, req SendBatchRequest) (*BatchReceipt, error) {
	if s.sender == nil {
		return nil, fmt.Errorf("batch sender is not configured")
	}

	endpoint := strings.TrimSpace(req.Endpoint)
	if endpoint == "" {
		settings, err := s.repository.LoadSettings(ctx)
		if err != nil {
			return nil, err
		}
		endpoint = strings.TrimSpace(settings.WebhookURL)
	}
	if endpoint == "" {
		return nil, ErrEndpointNotConfigured
	}

	sources, err := s.repository.Load(ctx)
	if err != nil {
		return nil, err
	}

	wanted := make(map[uuid.UUID]struct{}, len(req.SourceIDs))
	for _, id := range req.SourceIDs {
		wanted[id] = struct{}{}
	}

	// Preserve list order regardless of the order ids were selected in.
	var targets []*Source
	for _, src := range sources {
		if _, ok := wanted[src.ID]; ok {
			targets = append(targets, src.Clone())
		}
	}
	if len(targets) == 0 {
		return nil, ErrNoTargets
	}

	receipt, err := s.sender.Send(ctx, endpoint, targets)
	if err != nil {
		return nil, err
	}

	if s.eventSink != nil {
		_ = s.eventSink.BatchSent(ctx, receipt)
	}

	return receipt, nil
}

// Settings

func (s *service) GetWebhookEndpoint(ctx context.Context) (string, error) {
	settings, err := s.repository.LoadSettings(ctx)
	if err != nil {
		return "", err
	}
	return settings.WebhookURL, nil
}

func (s *service) SetWebhookEndpoint(ctx context.Context, endpoint string) error {
	return s.repository.SaveSettings(ctx, &Settings{WebhookURL: strings.TrimSpace(endpoint)})
}

// prepend inserts a new record at the head of the list (most-recent-first)
// and persists the full list.
func (s *service) prepend(ctx context.Context, source *Source) error {
	if err := source.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sources, err := s.repository.Load(ctx)
	if err != nil {
		return err
	}

	sources = append([]*Source{source}, sources...)
	if err := s.repository.Save(ctx, sources); err != nil {
		return &SourceError{SourceID: source.ID, Op: "create", Err: err}
	}
	return nil
}

func (s *service) fireAdded(ctx context.Context, source *Source) {
	if s.eventSink != nil {
		_ = s.eventSink.SourceAdded(ctx, source)
	}
}

func capTags(tags []string) []string {
	var kept []string
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		kept = append(kept, tag)
		if len(kept) == MaxTags {
			break
		}
	}
	return kept
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
