package simplesource

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// SourceKind is the domain type discriminating what a source record carries.
type SourceKind string

// Source kind constants (typed).
const (
	KindFile SourceKind = "file"
	KindURL  SourceKind = "url"
	KindText SourceKind = "text"
)

// Category is the coarse content-type classification used for filtering and
// preview rendering. It is derived once at creation time and never re-derived.
type Category string

// Category constants (typed).
const (
	CategoryVideo Category = "video"
	CategoryImage Category = "image"
	CategoryPDF   Category = "pdf"
	CategoryText  Category = "text"
	CategoryOther Category = "other"

	// CategoryAll is a filter-only value matching every category. It is never
	// stored on a record.
	CategoryAll Category = "all"
)

// Blob key namespaces. Blob entries are keyed "<namespace>::<source id>".
const (
	FileBlobNamespace = "file"
	TextBlobNamespace = "text"
)

// MaxTags is the maximum number of tags kept on a source record.
const MaxTags = 12

// FilePayload holds the file-specific fields of a source record.
type FilePayload struct {
	Key      string `json:"key"`
	Size     int64  `json:"size"`
	MimeType string `json:"mime_type,omitempty"`
}

// TextPayload holds the text-note-specific fields of a source record.
type TextPayload struct {
	Key string `json:"key"`
}

// URLPayload holds the link-specific fields of a source record.
type URLPayload struct {
	URL string `json:"url"`
}

// Source represents one user-curated item of metadata: a staged file, a
// remote link, or a text note.
//
// Exactly one of File, Text or URL is populated, matching Kind. The payload
// for file and text sources lives in blob storage under the payload key; the
// record exclusively owns that blob for its lifetime.
type Source struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Kind        SourceKind `json:"kind"`
	Category    Category   `json:"category"`
	Description string     `json:"description,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`

	File *FilePayload `json:"file,omitempty"`
	Text *TextPayload `json:"text,omitempty"`
	URL  *URLPayload  `json:"url,omitempty"`
}

// FileBlobKey returns the blob storage key for a file source with the given id.
func FileBlobKey(id uuid.UUID) string {
	return FileBlobNamespace + "::" + id.String()
}

// TextBlobKey returns the blob storage key for a text source with the given id.
func TextBlobKey(id uuid.UUID) string {
	return TextBlobNamespace + "::" + id.String()
}

// Validate checks the exactly-one-payload invariant: the populated payload
// must match Kind and the other two must be absent.
func (s *Source) Validate() error {
	set := 0
	if s.File != nil {
		set++
	}
	if s.Text != nil {
		set++
	}
	if s.URL != nil {
		set++
	}
	if set != 1 {
		return ErrInvalidSource
	}

	switch s.Kind {
	case KindFile:
		if s.File == nil || s.File.Key == "" {
			return ErrInvalidSource
		}
	case KindText:
		if s.Text == nil || s.Text.Key == "" {
			return ErrInvalidSource
		}
	case KindURL:
		if s.URL == nil || s.URL.URL == "" {
			return ErrInvalidSource
		}
	default:
		return ErrInvalidSource
	}

	return nil
}

// BlobKey returns the blob storage key owned by this record, if any. URL
// sources own no blob.
func (s *Source) BlobKey() (string, bool) {
	switch {
	case s.File != nil:
		return s.File.Key, true
	case s.Text != nil:
		return s.Text.Key, true
	default:
		return "", false
	}
}

// Clone returns a deep copy of the record so callers cannot mutate stored
// state through returned pointers.
func (s *Source) Clone() *Source {
	cp := *s
	if s.Tags != nil {
		cp.Tags = append([]string(nil), s.Tags...)
	}
	if s.File != nil {
		fp := *s.File
		cp.File = &fp
	}
	if s.Text != nil {
		tp := *s.Text
		cp.Text = &tp
	}
	if s.URL != nil {
		up := *s.URL
		cp.URL = &up
	}
	return &cp
}

// Settings holds the persisted user configuration: the outbound webhook
// endpoint the assistant batches are delivered to.
type Settings struct {
	WebhookURL string `json:"webhook_url"`
}

// ParseTags splits a comma-separated tag string into an ordered tag list.
// Entries are trimmed, empty entries dropped, and at most MaxTags kept.
func ParseTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var tags []string
	for _, part := range strings.Split(raw, ",") {
		tag := strings.TrimSpace(part)
		if tag == "" {
			continue
		}
		tags = append(tags, tag)
		if len(tags) == MaxTags {
			break
		}
	}
	return tags
}
