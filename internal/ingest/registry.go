package ingest

import (
	"context"
	"log/slog"
	"strings"

	"github.com/gosimple/slug"
	"github.com/mpavlovic/newsstack/internal/apperr"
	"github.com/mpavlovic/newsstack/internal/domain"
	"github.com/mpavlovic/newsstack/internal/mediastack"
	"github.com/mpavlovic/newsstack/internal/storage"
)

// Sentinel values used when a record carries no usable source or
// category name. Malformed names degrade, they never fail a record.
const (
	UnknownSourceName   = "Unknown Source"
	UnknownCategoryName = "unknown"
)

// Registry resolves raw source/category fields into canonical rows with
// get-or-create semantics. Idempotency is enforced by the stores' unique
// keys, not by in-process locking.
type Registry struct {
	sources    storage.SourceStore
	categories storage.CategoryStore
}

func NewRegistry(sources storage.SourceStore, categories storage.CategoryStore) *Registry {
	return &Registry{
		sources:    sources,
		categories: categories,
	}
}

// ResolveSource derives the external key from the record's source id. The
// news endpoint rarely carries one, so the fallback key derived from the
// display name is the common path.
func (r *Registry) ResolveSource(ctx context.Context, raw mediastack.RawArticle) (domain.Source, error) {
	name := strings.TrimSpace(raw.Source)
	if name == "" {
		slog.Warn("record has no source name, using sentinel",
			"url", raw.URL,
			"error", apperr.NewRegistry("source", raw.Source),
		)
		name = UnknownSourceName
	}

	key := strings.TrimSpace(raw.ID)
	if key == "" {
		key = fallbackSourceKey(name)
		slog.Warn("source record missing id, using fallback key",
			"sourceName", name,
			"fallbackId", key,
		)
	}

	return r.sources.GetOrCreate(ctx, domain.Source{
		MediastackID: key,
		Name:         name,
		Description:  "News source: " + name,
		Category:     raw.Category,
		Country:      raw.Country,
		Language:     raw.Language,
		IsActive:     true,
	})
}

// ResolveCategory derives the category slug from the display name.
func (r *Registry) ResolveCategory(ctx context.Context, name string) (domain.Category, error) {
	name = strings.TrimSpace(name)
	categorySlug := slug.Make(name)
	if categorySlug == "" {
		slog.Warn("record has no usable category, using sentinel",
			"error", apperr.NewRegistry("category", name),
		)
		name = UnknownCategoryName
		categorySlug = UnknownCategoryName
	}

	return r.categories.GetOrCreate(ctx, domain.Category{
		Slug:        categorySlug,
		Name:        name,
		Description: "News category: " + name,
		IsActive:    true,
	})
}

// fallbackSourceKey normalizes a display name the same way the upstream
// dataset does: lowercase, spaces to underscores.
func fallbackSourceKey(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, " ", "_"))
}
