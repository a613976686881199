package pg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mpavlovic/newsstack/internal/domain"
)

type CategoryStore struct {
	db *pgxpool.Pool
}

func NewCategoryStore(pool *ConnectionPool) *CategoryStore {
	return &CategoryStore{db: pool.conn}
}

// GetOrCreate has the same race-safe upsert shape as the source store,
// keyed by slug.
func (s *CategoryStore) GetOrCreate(ctx context.Context, category domain.Category) (domain.Category, error) {
	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}
	now := time.Now()

	insert := `
        INSERT INTO categories (id, slug, name, description, is_active, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $6)
        ON CONFLICT (slug) DO NOTHING
        RETURNING id, created_at;
    `
	err := s.db.QueryRow(
		ctx,
		insert,
		category.ID,
		category.Slug,
		category.Name,
		category.Description,
		category.IsActive,
		now,
	).Scan(&category.ID, &category.CreatedAt)
	if err == nil {
		category.UpdatedAt = category.CreatedAt
		return category, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.Category{}, wrapWriteErr("failed to insert category", err)
	}

	return s.getBySlug(ctx, category.Slug)
}

func (s *CategoryStore) getBySlug(ctx context.Context, slug string) (domain.Category, error) {
	query := `
        SELECT id, slug, name, description, is_active, created_at, updated_at
        FROM categories
        WHERE slug = $1;
    `
	var out domain.Category
	err := s.db.QueryRow(ctx, query, slug).Scan(
		&out.ID,
		&out.Slug,
		&out.Name,
		&out.Description,
		&out.IsActive,
		&out.CreatedAt,
		&out.UpdatedAt,
	)
	if err != nil {
		return domain.Category{}, fmt.Errorf("failed to select category %q: %w", slug, err)
	}
	return out, nil
}
