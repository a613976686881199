package pg

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mpavlovic/newsstack/internal/domain"
)

type FetchLogStore struct {
	db *pgxpool.Pool
}

func NewFetchLogStore(pool *ConnectionPool) *FetchLogStore {
	return &FetchLogStore{db: pool.conn}
}

func (s *FetchLogStore) Create(ctx context.Context, run domain.FetchRun) error {
	params, err := json.Marshal(run.Parameters)
	if err != nil {
		return fmt.Errorf("failed to marshal run parameters: %w", err)
	}

	cmd := `
        INSERT INTO fetch_logs (id, endpoint, parameters, triggered_by, status, started_at, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7);
    `
	_, err = s.db.Exec(ctx, cmd,
		run.ID,
		run.Endpoint,
		params,
		run.TriggeredBy,
		run.Status,
		run.StartedAt,
		run.CreatedAt,
	)
	if err != nil {
		return wrapWriteErr("failed to insert fetch log", err)
	}
	return nil
}

func (s *FetchLogStore) Finish(ctx context.Context, run domain.FetchRun) error {
	cmd := `
        UPDATE fetch_logs SET
            status = $2,
            total_results = $3,
            fetched_articles = $4,
            new_articles = $5,
            duplicate_articles = $6,
            skipped_articles = $7,
            failed_articles = $8,
            execution_time_ms = $9,
            error_message = $10,
            http_status_code = $11,
            completed_at = $12
        WHERE id = $1;
    `
	tag, err := s.db.Exec(ctx, cmd,
		run.ID,
		run.Status,
		run.TotalResults,
		run.FetchedArticles,
		run.NewArticles,
		run.Duplicates,
		run.Skipped,
		run.Failed,
		run.ExecutionTime.Milliseconds(),
		run.ErrorMessage,
		run.HTTPStatusCode,
		run.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to finalize fetch log: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("fetch log %s not found", run.ID)
	}
	return nil
}

func (s *FetchLogStore) ListRecent(ctx context.Context, limit int) ([]domain.FetchRun, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
        SELECT id, endpoint, parameters, triggered_by, status, total_results,
               fetched_articles, new_articles, duplicate_articles, skipped_articles,
               failed_articles, execution_time_ms, error_message, http_status_code,
               started_at, completed_at, created_at
        FROM fetch_logs
        ORDER BY started_at DESC
        LIMIT $1;
    `
	rows, err := s.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list fetch logs: %w", err)
	}
	defer rows.Close()

	var runs []domain.FetchRun
	for rows.Next() {
		var (
			run      domain.FetchRun
			params   []byte
			execMs   int64
			finished *time.Time
		)
		err := rows.Scan(
			&run.ID,
			&run.Endpoint,
			&params,
			&run.TriggeredBy,
			&run.Status,
			&run.TotalResults,
			&run.FetchedArticles,
			&run.NewArticles,
			&run.Duplicates,
			&run.Skipped,
			&run.Failed,
			&execMs,
			&run.ErrorMessage,
			&run.HTTPStatusCode,
			&run.StartedAt,
			&finished,
			&run.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan fetch log: %w", err)
		}
		if len(params) > 0 {
			if err := json.Unmarshal(params, &run.Parameters); err != nil {
				return nil, fmt.Errorf("failed to unmarshal run parameters: %w", err)
			}
		}
		run.ExecutionTime = time.Duration(execMs) * time.Millisecond
		run.CompletedAt = finished
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
