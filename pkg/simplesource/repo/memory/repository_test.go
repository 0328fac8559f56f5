package memory_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-source/pkg/simplesource"
	"github.com/tendant/simple-source/pkg/simplesource/repo/memory"
)

func TestMemoryRepository(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()

	id := uuid.New()
	sources := []*simplesource.Source{
		{
			ID:   id,
			Name: "note",
			Kind: simplesource.KindText,
			Text: &simplesource.TextPayload{Key: simplesource.TextBlobKey(id)},
		},
	}

	t.Run("load empty", func(t *testing.T) {
		loaded, err := repo.Load(ctx)
		require.NoError(t, err)
		assert.Empty(t, loaded)
	})

	t.Run("save then load", func(t *testing.T) {
		require.NoError(t, repo.Save(ctx, sources))

		loaded, err := repo.Load(ctx)
		require.NoError(t, err)
		require.Len(t, loaded, 1)
		assert.Equal(t, id, loaded[0].ID)
	})

	t.Run("loaded records are isolated copies", func(t *testing.T) {
		loaded, err := repo.Load(ctx)
		require.NoError(t, err)
		loaded[0].Name = "mutated"

		again, err := repo.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, "note", again[0].Name)
	})

	t.Run("settings roundtrip", func(t *testing.T) {
		settings, err := repo.LoadSettings(ctx)
		require.NoError(t, err)
		assert.Empty(t, settings.WebhookURL)

		require.NoError(t, repo.SaveSettings(ctx, &simplesource.Settings{WebhookURL: "https://hooks.example.com/in"}))

		settings, err = repo.LoadSettings(ctx)
		require.NoError(t, err)
		assert.Equal(t, "https://hooks.example.com/in", settings.WebhookURL)
	})
}
