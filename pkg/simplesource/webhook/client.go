// Package webhook serializes a batch of selected sources into one JSON
// document and delivers it to the configured outbound endpoint with a single
// HTTP POST. Delivery is all-or-nothing: no retry, no partial-success
// reporting. Targets whose blob cannot be read are skipped, never fatal.
package webhook

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tendant/simple-source/pkg/simplesource"
)

// Payload encodings.
const (
	EncodingBase64 = "base64"
	EncodingText   = "text"
	EncodingURL    = "url"
)

// BatchPayload is the JSON document posted to the webhook.
type BatchPayload struct {
	Timestamp   string        `json:"timestamp"`
	SourceCount int           `json:"sourceCount"`
	Sources     []BatchSource `json:"sources"`
}

// BatchSource is one delivered source entry.
type BatchSource struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	Kind        string    `json:"kind"`
	Tags        []string  `json:"tags"`
	CreatedAt   time.Time `json:"createdAt"`
	Size        int64     `json:"size,omitempty"`
	MimeType    string    `json:"mimeType,omitempty"`
	Description string    `json:"description"`
	Data        BatchData `json:"data"`
}

// BatchData carries the resolved payload for one source.
type BatchData struct {
	Encoding string `json:"encoding"`
	Value    string `json:"value"`
}

// Client implements simplesource.BatchSender over HTTP.
type Client struct {
	blobs      simplesource.BlobStore
	httpClient *http.Client
	now        func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used for delivery.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithClock overrides the timestamp source (tests).
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// New creates a webhook client resolving blob-backed payloads from the given
// blob store.
func New(blobs simplesource.BlobStore, opts ...Option) *Client {
	c := &Client{
		blobs:      blobs,
		httpClient: http.DefaultClient,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Send assembles the batch document for the given sources and posts it to
// endpoint. A non-2xx response or transport failure is returned as a
// *simplesource.DeliveryError. Sources whose blob cannot be read are skipped;
// SourceCount reflects the entries actually included.
func (c *Client) Send(ctx context.Context, endpoint string, sources []*simplesource.Source) (*simplesource.BatchReceipt, error) {
	payload := BatchPayload{
		Timestamp: c.now().UTC().Format(time.RFC3339),
		Sources:   []BatchSource{},
	}

	skipped := 0
	for _, src := range sources {
		data, ok := c.resolveData(ctx, src)
		if !ok {
			skipped++
			continue
		}

		tags := src.Tags
		if tags == nil {
			tags = []string{}
		}

		entry := BatchSource{
			ID:          src.ID.String(),
			Name:        src.Name,
			Type:        string(src.Category),
			Kind:        string(src.Kind),
			Tags:        tags,
			CreatedAt:   src.CreatedAt,
			Description: src.Description,
			Data:        data,
		}
		if src.File != nil {
			entry.Size = src.File.Size
			entry.MimeType = src.File.MimeType
		}

		payload.Sources = append(payload.Sources, entry)
	}
	payload.SourceCount = len(payload.Sources)

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode batch payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &simplesource.DeliveryError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()
	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &simplesource.DeliveryError{Endpoint: endpoint, StatusCode: resp.StatusCode}
	}

	return &simplesource.BatchReceipt{
		Endpoint:    endpoint,
		SourceCount: payload.SourceCount,
		Skipped:     skipped,
	}, nil
}

// resolveData resolves a source's payload by kind. A blob read failure
// reports not-ok so the caller skips the source.
func (c *Client) resolveData(ctx context.Context, src *simplesource.Source) (BatchData, bool) {
	switch src.Kind {
	case simplesource.KindURL:
		return BatchData{Encoding: EncodingURL, Value: src.URL.URL}, true

	case simplesource.KindFile:
		data, err := c.readBlob(ctx, src.File.Key)
		if err != nil {
			return BatchData{}, false
		}
		return BatchData{Encoding: EncodingBase64, Value: base64.StdEncoding.EncodeToString(data)}, true

	case simplesource.KindText:
		data, err := c.readBlob(ctx, src.Text.Key)
		if err != nil {
			return BatchData{}, false
		}
		return BatchData{Encoding: EncodingText, Value: string(data)}, true
	}

	return BatchData{}, false
}

func (c *Client) readBlob(ctx context.Context, key string) ([]byte, error) {
	rc, err := c.blobs.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
