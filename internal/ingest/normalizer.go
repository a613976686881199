package ingest

import (
	"context"
	"fmt"

	"github.com/araddon/dateparse"
	"github.com/gosimple/slug"
	"github.com/mpavlovic/newsstack/internal/apperr"
	"github.com/mpavlovic/newsstack/internal/domain"
	"github.com/mpavlovic/newsstack/internal/mediastack"
	"github.com/mpavlovic/newsstack/internal/storage"
)

const fallbackSlugBase = "article"

// Normalizer maps a raw record into the internal article schema. A record
// missing url, title or a parsable published_at fails normalization with
// a ValidationError; the caller skips it and the batch continues.
type Normalizer struct {
	articles storage.ArticleStore
}

func NewNormalizer(articles storage.ArticleStore) *Normalizer {
	return &Normalizer{articles: articles}
}

func (n *Normalizer) Normalize(ctx context.Context, raw mediastack.RawArticle, source domain.Source, category domain.Category) (domain.Article, error) {
	if raw.URL == "" {
		return domain.Article{}, apperr.NewValidation("missing url")
	}
	if raw.Title == "" {
		return domain.Article{}, apperr.NewValidation("missing title")
	}
	if raw.PublishedAt == "" {
		return domain.Article{}, apperr.NewValidation("missing published_at")
	}

	publishedAt, err := dateparse.ParseAny(raw.PublishedAt)
	if err != nil {
		return domain.Article{}, apperr.NewValidationWrap("unparsable published_at", err)
	}

	articleSlug, err := n.UniqueSlug(ctx, raw.Title)
	if err != nil {
		return domain.Article{}, err
	}

	content := raw.Description // the API does not provide the full body

	return domain.Article{
		Title:        raw.Title,
		Description:  raw.Description,
		Content:      content,
		Author:       raw.Author,
		URL:          raw.URL,
		SourceName:   raw.Source,
		ImageURL:     raw.Image,
		CategoryName: raw.Category,
		Language:     raw.Language,
		Country:      raw.Country,
		PublishedAt:  publishedAt,
		IsActive:     true,
		IsFeatured:   false,
		ViewCount:    0,
		Slug:         articleSlug,
		SourceID:     source.ID,
		CategoryID:   category.ID,
	}, nil
}

// UniqueSlug slugifies the title and resolves collisions against already
// persisted articles by appending -1, -2, ... . The check is advisory:
// the slug unique constraint is the final authority and a losing insert
// re-enters here, now seeing the winner.
func (n *Normalizer) UniqueSlug(ctx context.Context, title string) (string, error) {
	base := slug.Make(title)
	if base == "" {
		base = fallbackSlugBase
	}

	candidate := base
	for counter := 1; ; counter++ {
		exists, err := n.articles.SlugExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("failed to check slug %q: %w", candidate, err)
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, counter)
	}
}
