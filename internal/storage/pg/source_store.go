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

type SourceStore struct {
	db *pgxpool.Pool
}

func NewSourceStore(pool *ConnectionPool) *SourceStore {
	return &SourceStore{db: pool.conn}
}

// GetOrCreate inserts the source unless its mediastack id is already
// taken, then reads whichever row owns the key. The ON CONFLICT clause
// makes concurrent resolution of the same key race-safe without locking.
func (s *SourceStore) GetOrCreate(ctx context.Context, source domain.Source) (domain.Source, error) {
	if source.ID == uuid.Nil {
		source.ID = uuid.New()
	}
	now := time.Now()

	insert := `
        INSERT INTO sources (id, mediastack_id, name, description, category, country, language, is_active, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
        ON CONFLICT (mediastack_id) DO NOTHING
        RETURNING id, created_at;
    `
	err := s.db.QueryRow(
		ctx,
		insert,
		source.ID,
		source.MediastackID,
		source.Name,
		source.Description,
		source.Category,
		source.Country,
		source.Language,
		source.IsActive,
		now,
	).Scan(&source.ID, &source.CreatedAt)
	if err == nil {
		source.UpdatedAt = source.CreatedAt
		return source, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.Source{}, wrapWriteErr("failed to insert source", err)
	}

	// lost the race or the row already existed, read the owner
	return s.getByKey(ctx, source.MediastackID)
}

func (s *SourceStore) getByKey(ctx context.Context, mediastackID string) (domain.Source, error) {
	query := `
        SELECT id, mediastack_id, name, description, category, country, language, is_active, created_at, updated_at
        FROM sources
        WHERE mediastack_id = $1;
    `
	var out domain.Source
	err := s.db.QueryRow(ctx, query, mediastackID).Scan(
		&out.ID,
		&out.MediastackID,
		&out.Name,
		&out.Description,
		&out.Category,
		&out.Country,
		&out.Language,
		&out.IsActive,
		&out.CreatedAt,
		&out.UpdatedAt,
	)
	if err != nil {
		return domain.Source{}, fmt.Errorf("failed to select source %q: %w", mediastackID, err)
	}
	return out, nil
}
