package simplesource_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-source/pkg/simplesource"
)

func TestParseTags(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "empty", input: "", want: nil},
		{name: "whitespace only", input: "  ,  , ", want: nil},
		{name: "simple list", input: "a,b,c", want: []string{"a", "b", "c"}},
		{name: "trims and drops empties", input: "a, b ,, c", want: []string{"a", "b", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, simplesource.ParseTags(tt.input))
		})
	}

	t.Run("caps at MaxTags", func(t *testing.T) {
		raw := "a,b,c,d,e,f,g,h,i,j,k,l,m,n,o"
		got := simplesource.ParseTags(raw)
		require.Len(t, got, simplesource.MaxTags)
		assert.Equal(t, "l", got[simplesource.MaxTags-1])
	})
}

func TestSourceValidate(t *testing.T) {
	id := uuid.New()

	valid := func() *simplesource.Source {
		return &simplesource.Source{
			ID:        id,
			Name:      "clip.mp4",
			Kind:      simplesource.KindFile,
			Category:  simplesource.CategoryVideo,
			CreatedAt: time.Now().UTC(),
			File:      &simplesource.FilePayload{Key: simplesource.FileBlobKey(id), Size: 3, MimeType: "video/mp4"},
		}
	}

	t.Run("valid file source", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("missing payload", func(t *testing.T) {
		s := valid()
		s.File = nil
		assert.ErrorIs(t, s.Validate(), simplesource.ErrInvalidSource)
	})

	t.Run("payload kind mismatch", func(t *testing.T) {
		s := valid()
		s.File = nil
		s.URL = &simplesource.URLPayload{URL: "https://example.com"}
		assert.ErrorIs(t, s.Validate(), simplesource.ErrInvalidSource)
	})

	t.Run("two payloads", func(t *testing.T) {
		s := valid()
		s.URL = &simplesource.URLPayload{URL: "https://example.com"}
		assert.ErrorIs(t, s.Validate(), simplesource.ErrInvalidSource)
	})
}

func TestBlobKeys(t *testing.T) {
	id := uuid.New()
	assert.Equal(t, "file::"+id.String(), simplesource.FileBlobKey(id))
	assert.Equal(t, "text::"+id.String(), simplesource.TextBlobKey(id))
}

func TestSourceClone(t *testing.T) {
	id := uuid.New()
	original := &simplesource.Source{
		ID:       id,
		Name:     "clip.mp4",
		Kind:     simplesource.KindFile,
		Category: simplesource.CategoryVideo,
		Tags:     []string{"a", "b"},
		File:     &simplesource.FilePayload{Key: simplesource.FileBlobKey(id), Size: 3},
	}

	clone := original.Clone()
	clone.Name = "changed"
	clone.Tags[0] = "z"
	clone.File.Size = 99

	assert.Equal(t, "clip.mp4", original.Name)
	assert.Equal(t, "a", original.Tags[0])
	assert.Equal(t, int64(3), original.File.Size)
}
