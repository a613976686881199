package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/mpavlovic/newsstack/internal/domain"
)

var ErrNotFound = errors.New("storage: record not found")

// ArticleStore persists ingested articles. Create surfaces unique
// violations on url/slug as apperr.ConflictError with the constraint name;
// the constraints are the final authority for dedup and slug uniqueness,
// the Exists checks are an optimization.
type ArticleStore interface {
	Create(ctx context.Context, article domain.Article) (uuid.UUID, error)
	ExistsByURL(ctx context.Context, url string) (bool, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
}

// SourceStore resolves sources with get-or-create semantics keyed by the
// external mediastack id. Concurrent calls with the same key yield the
// same row.
type SourceStore interface {
	GetOrCreate(ctx context.Context, source domain.Source) (domain.Source, error)
}

// CategoryStore resolves categories with get-or-create semantics keyed by
// slug.
type CategoryStore interface {
	GetOrCreate(ctx context.Context, category domain.Category) (domain.Category, error)
}

// FetchLogStore owns the fetch run audit log. Rows are created once at run
// start and finalized once at run end, never deleted.
type FetchLogStore interface {
	Create(ctx context.Context, run domain.FetchRun) error
	Finish(ctx context.Context, run domain.FetchRun) error
	ListRecent(ctx context.Context, limit int) ([]domain.FetchRun, error)
}

// ScheduleStore reads named parameter sets and keeps their run statistics.
type ScheduleStore interface {
	GetByName(ctx context.Context, name string) (domain.FetchSchedule, error)
	List(ctx context.Context) ([]domain.FetchSchedule, error)
	RecordRun(ctx context.Context, name string, succeeded bool, executionTime time.Duration) error
}
