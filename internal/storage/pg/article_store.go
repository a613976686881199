package pg

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mpavlovic/newsstack/internal/domain"
)

type ArticleStore struct {
	db *pgxpool.Pool
}

func NewArticleStore(pool *ConnectionPool) *ArticleStore {
	return &ArticleStore{db: pool.conn}
}

func (s *ArticleStore) Create(ctx context.Context, article domain.Article) (uuid.UUID, error) {
	if article.ID == uuid.Nil {
		article.ID = uuid.New()
	}
	now := time.Now()
	if article.CreatedAt.IsZero() {
		article.CreatedAt = now
	}

	tagsJSON, err := marshalList(article.Tags)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to marshal tags: %w", err)
	}
	keywordsJSON, err := marshalList(article.Keywords)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to marshal keywords: %w", err)
	}

	cmd := `
        INSERT INTO articles (
            id, title, description, content, author, url, source_name, image_url,
            category_name, language, country, published_at, is_active, is_featured,
            view_count, sentiment_score, tags, keywords, slug, source_id, category_id,
            created_at, updated_at
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $22)
        RETURNING id;
    `
	var id uuid.UUID
	err = s.db.QueryRow(
		ctx,
		cmd,
		article.ID,
		article.Title,
		article.Description,
		article.Content,
		article.Author,
		article.URL,
		article.SourceName,
		article.ImageURL,
		article.CategoryName,
		article.Language,
		article.Country,
		article.PublishedAt,
		article.IsActive,
		article.IsFeatured,
		article.ViewCount,
		article.Sentiment,
		tagsJSON,
		keywordsJSON,
		article.Slug,
		article.SourceID,
		article.CategoryID,
		article.CreatedAt,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, wrapWriteErr("failed to insert article", err)
	}

	return id, nil
}

func (s *ArticleStore) ExistsByURL(ctx context.Context, url string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM articles WHERE url = $1)`, url).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check article url: %w", err)
	}
	return exists, nil
}

func (s *ArticleStore) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM articles WHERE slug = $1)`, slug).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check article slug: %w", err)
	}
	return exists, nil
}

func marshalList(list []string) ([]byte, error) {
	if list == nil {
		return nil, nil
	}
	return json.Marshal(list)
}
