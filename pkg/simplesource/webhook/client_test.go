package webhook_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-source/pkg/simplesource"
	memorystorage "github.com/tendant/simple-source/pkg/simplesource/storage/memory"
	"github.com/tendant/simple-source/pkg/simplesource/webhook"
)

func putBlob(t *testing.T, store simplesource.BlobStore, key, content string) {
	t.Helper()
	require.NoError(t, store.Put(context.Background(), key, strings.NewReader(content)))
}

func TestSendBuildsBatchPayload(t *testing.T) {
	store := memorystorage.New()

	urlID := uuid.New()
	urlSource := &simplesource.Source{
		ID:        urlID,
		Name:      "Example",
		Kind:      simplesource.KindURL,
		Category:  simplesource.CategoryOther,
		Tags:      []string{"link"},
		CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		URL:       &simplesource.URLPayload{URL: "https://example.com"},
	}

	textID := uuid.New()
	textKey := simplesource.TextBlobKey(textID)
	putBlob(t, store, textKey, "hello")
	textSource := &simplesource.Source{
		ID:        textID,
		Name:      "note",
		Kind:      simplesource.KindText,
		Category:  simplesource.CategoryText,
		CreatedAt: time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC),
		Text:      &simplesource.TextPayload{Key: textKey},
	}

	var captured webhook.BatchPayload
	var contentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &captured))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	fixed := time.Date(2026, 3, 3, 9, 30, 0, 0, time.UTC)
	client := webhook.New(store, webhook.WithClock(func() time.Time { return fixed }))

	receipt, err := client.Send(context.Background(), server.URL, []*simplesource.Source{urlSource, textSource})
	require.NoError(t, err)

	assert.Equal(t, "application/json", contentType)
	assert.Equal(t, server.URL, receipt.Endpoint)
	assert.Equal(t, 2, receipt.SourceCount)
	assert.Equal(t, 0, receipt.Skipped)

	assert.Equal(t, "2026-03-03T09:30:00Z", captured.Timestamp)
	assert.Equal(t, 2, captured.SourceCount)
	require.Len(t, captured.Sources, 2)

	first := captured.Sources[0]
	assert.Equal(t, urlID.String(), first.ID)
	assert.Equal(t, "Example", first.Name)
	assert.Equal(t, "other", first.Type)
	assert.Equal(t, "url", first.Kind)
	assert.Equal(t, []string{"link"}, first.Tags)
	assert.Equal(t, webhook.EncodingURL, first.Data.Encoding)
	assert.Equal(t, "https://example.com", first.Data.Value)

	second := captured.Sources[1]
	assert.Equal(t, "text", second.Kind)
	assert.Equal(t, []string{}, second.Tags)
	assert.Equal(t, webhook.EncodingText, second.Data.Encoding)
	assert.Equal(t, "hello", second.Data.Value)
}

func TestSendEncodesFileBlobsAsBase64(t *testing.T) {
	store := memorystorage.New()

	id := uuid.New()
	key := simplesource.FileBlobKey(id)
	putBlob(t, store, key, "binary payload")
	source := &simplesource.Source{
		ID:       id,
		Name:     "clip.mp4",
		Kind:     simplesource.KindFile,
		Category: simplesource.CategoryVideo,
		File:     &simplesource.FilePayload{Key: key, Size: 14, MimeType: "video/mp4"},
	}

	var captured webhook.BatchPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	client := webhook.New(store)
	_, err := client.Send(context.Background(), server.URL, []*simplesource.Source{source})
	require.NoError(t, err)

	require.Len(t, captured.Sources, 1)
	entry := captured.Sources[0]
	assert.Equal(t, "video", entry.Type)
	assert.Equal(t, int64(14), entry.Size)
	assert.Equal(t, "video/mp4", entry.MimeType)
	assert.Equal(t, webhook.EncodingBase64, entry.Data.Encoding)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("binary payload")), entry.Data.Value)
}

func TestSendSkipsMissingBlobs(t *testing.T) {
	store := memorystorage.New()

	textID := uuid.New()
	textKey := simplesource.TextBlobKey(textID)
	putBlob(t, store, textKey, "still here")
	okSource := &simplesource.Source{
		ID:   textID,
		Kind: simplesource.KindText,
		Text: &simplesource.TextPayload{Key: textKey},
	}

	missingID := uuid.New()
	missingSource := &simplesource.Source{
		ID:   missingID,
		Kind: simplesource.KindFile,
		File: &simplesource.FilePayload{Key: simplesource.FileBlobKey(missingID)},
	}

	var captured webhook.BatchPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := webhook.New(store)
	receipt, err := client.Send(context.Background(), server.URL, []*simplesource.Source{missingSource, okSource})
	require.NoError(t, err)

	assert.Equal(t, 1, receipt.SourceCount)
	assert.Equal(t, 1, receipt.Skipped)
	assert.Equal(t, 1, captured.SourceCount)
	require.Len(t, captured.Sources, 1)
	assert.Equal(t, textID.String(), captured.Sources[0].ID)
}

func TestSendReportsDeliveryErrors(t *testing.T) {
	store := memorystorage.New()
	source := &simplesource.Source{
		ID:   uuid.New(),
		Kind: simplesource.KindURL,
		URL:  &simplesource.URLPayload{URL: "https://example.com"},
	}

	t.Run("non-2xx status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", http.StatusServiceUnavailable)
		}))
		defer server.Close()

		client := webhook.New(store)
		_, err := client.Send(context.Background(), server.URL, []*simplesource.Source{source})

		var deliveryErr *simplesource.DeliveryError
		require.True(t, errors.As(err, &deliveryErr))
		assert.Equal(t, http.StatusServiceUnavailable, deliveryErr.StatusCode)
		assert.Equal(t, server.URL, deliveryErr.Endpoint)
	})

	t.Run("transport failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		server.Close()

		client := webhook.New(store)
		_, err := client.Send(context.Background(), server.URL, []*simplesource.Source{source})

		var deliveryErr *simplesource.DeliveryError
		require.True(t, errors.As(err, &deliveryErr))
		assert.Zero(t, deliveryErr.StatusCode)
	})
}
