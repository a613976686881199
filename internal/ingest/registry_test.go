package ingest

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpavlovic/newsstack/internal/mediastack"
	"github.com/mpavlovic/newsstack/internal/storage/in_mem"
)

func TestRegistry_ResolveSource_FallbackKey(t *testing.T) {
	sources := in_mem.NewInMemSourceStore()
	registry := NewRegistry(sources, in_mem.NewInMemCategoryStore())

	raw := mediastack.RawArticle{Source: "The Daily Planet", URL: "https://example.com/a"}

	source, err := registry.ResolveSource(context.Background(), raw)
	require.NoError(t, err)

	assert.Equal(t, "the_daily_planet", source.MediastackID)
	assert.Equal(t, "The Daily Planet", source.Name)
	assert.Equal(t, "News source: The Daily Planet", source.Description)
	assert.True(t, source.IsActive)
}

func TestRegistry_ResolveSource_ExplicitID(t *testing.T) {
	sources := in_mem.NewInMemSourceStore()
	registry := NewRegistry(sources, in_mem.NewInMemCategoryStore())

	raw := mediastack.RawArticle{ID: "cnn", Source: "CNN"}

	source, err := registry.ResolveSource(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "cnn", source.MediastackID)
}

func TestRegistry_ResolveSource_EmptyNameUsesSentinel(t *testing.T) {
	sources := in_mem.NewInMemSourceStore()
	registry := NewRegistry(sources, in_mem.NewInMemCategoryStore())

	source, err := registry.ResolveSource(context.Background(), mediastack.RawArticle{Source: "  "})
	require.NoError(t, err)

	assert.Equal(t, UnknownSourceName, source.Name)
	assert.Equal(t, "unknown_source", source.MediastackID)
}

func TestRegistry_ResolveSource_Idempotent(t *testing.T) {
	sources := in_mem.NewInMemSourceStore()
	registry := NewRegistry(sources, in_mem.NewInMemCategoryStore())
	raw := mediastack.RawArticle{Source: "BBC News"}

	first, err := registry.ResolveSource(context.Background(), raw)
	require.NoError(t, err)
	second, err := registry.ResolveSource(context.Background(), raw)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, sources.Len())
}

func TestRegistry_ResolveSource_ConcurrentSameKey(t *testing.T) {
	sources := in_mem.NewInMemSourceStore()
	registry := NewRegistry(sources, in_mem.NewInMemCategoryStore())
	raw := mediastack.RawArticle{Source: "Reuters"}

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := registry.ResolveSource(context.Background(), raw)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, sources.Len(), "concurrent resolution must not create duplicate rows")
}

func TestRegistry_ResolveCategory(t *testing.T) {
	categories := in_mem.NewInMemCategoryStore()
	registry := NewRegistry(in_mem.NewInMemSourceStore(), categories)

	category, err := registry.ResolveCategory(context.Background(), "Science & Tech")
	require.NoError(t, err)

	assert.Equal(t, "science-tech", category.Slug)
	assert.Equal(t, "Science & Tech", category.Name)
	assert.True(t, category.IsActive)
}

func TestRegistry_ResolveCategory_Idempotent(t *testing.T) {
	categories := in_mem.NewInMemCategoryStore()
	registry := NewRegistry(in_mem.NewInMemSourceStore(), categories)

	first, err := registry.ResolveCategory(context.Background(), "business")
	require.NoError(t, err)
	second, err := registry.ResolveCategory(context.Background(), "business")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, categories.Len())
}

func TestRegistry_ResolveCategory_MalformedUsesSentinel(t *testing.T) {
	categories := in_mem.NewInMemCategoryStore()
	registry := NewRegistry(in_mem.NewInMemSourceStore(), categories)

	for _, name := range []string{"", "   ", "!!!"} {
		category, err := registry.ResolveCategory(context.Background(), name)
		require.NoError(t, err, "malformed category %q must not fail record processing", name)
		assert.Equal(t, UnknownCategoryName, category.Slug)
	}
}

func TestFallbackSourceKey(t *testing.T) {
	assert.Equal(t, "the_new_york_times", fallbackSourceKey("The New York Times"))
	assert.Equal(t, "cnn", fallbackSourceKey("CNN"))
}
