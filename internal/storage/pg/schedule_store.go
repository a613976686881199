package pg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mpavlovic/newsstack/internal/domain"
	"github.com/mpavlovic/newsstack/internal/storage"
)

type ScheduleStore struct {
	db *pgxpool.Pool
}

func NewScheduleStore(pool *ConnectionPool) *ScheduleStore {
	return &ScheduleStore{db: pool.conn}
}

const scheduleColumns = `
    id, name, description, parameters, cron_expression, is_active, last_run_at,
    total_runs, successful_runs, failed_runs, average_execution_time_ms,
    created_at, updated_at
`

func (s *ScheduleStore) GetByName(ctx context.Context, name string) (domain.FetchSchedule, error) {
	row := s.db.QueryRow(ctx, `SELECT `+scheduleColumns+` FROM fetch_schedules WHERE name = $1`, name)

	sched, err := scanSchedule(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.FetchSchedule{}, storage.ErrNotFound
	}
	if err != nil {
		return domain.FetchSchedule{}, fmt.Errorf("failed to select schedule %q: %w", name, err)
	}
	return sched, nil
}

func (s *ScheduleStore) List(ctx context.Context) ([]domain.FetchSchedule, error) {
	rows, err := s.db.Query(ctx, `SELECT `+scheduleColumns+` FROM fetch_schedules ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}
	defer rows.Close()

	var out []domain.FetchSchedule
	for rows.Next() {
		sched, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan schedule: %w", err)
		}
		out = append(out, sched)
	}
	return out, rows.Err()
}

// RecordRun bumps the schedule counters and folds the run duration into
// the rolling average. All SET expressions read the pre-update row, so the
// average uses the old total_runs.
func (s *ScheduleStore) RecordRun(ctx context.Context, name string, succeeded bool, executionTime time.Duration) error {
	cmd := `
        UPDATE fetch_schedules SET
            total_runs = total_runs + 1,
            successful_runs = successful_runs + CASE WHEN $2 THEN 1 ELSE 0 END,
            failed_runs = failed_runs + CASE WHEN $2 THEN 0 ELSE 1 END,
            average_execution_time_ms = (average_execution_time_ms * total_runs + $3) / (total_runs + 1),
            last_run_at = now(),
            updated_at = now()
        WHERE name = $1;
    `
	tag, err := s.db.Exec(ctx, cmd, name, succeeded, executionTime.Milliseconds())
	if err != nil {
		return fmt.Errorf("failed to record schedule run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func scanSchedule(row pgx.Row) (domain.FetchSchedule, error) {
	var (
		sched  domain.FetchSchedule
		params []byte
		avgMs  int64
	)
	err := row.Scan(
		&sched.ID,
		&sched.Name,
		&sched.Description,
		&params,
		&sched.CronExpression,
		&sched.IsActive,
		&sched.LastRunAt,
		&sched.TotalRuns,
		&sched.SuccessfulRuns,
		&sched.FailedRuns,
		&avgMs,
		&sched.CreatedAt,
		&sched.UpdatedAt,
	)
	if err != nil {
		return domain.FetchSchedule{}, err
	}
	if len(params) > 0 {
		if err := json.Unmarshal(params, &sched.Parameters); err != nil {
			return domain.FetchSchedule{}, fmt.Errorf("failed to unmarshal schedule parameters: %w", err)
		}
	}
	sched.AvgExecutionTime = time.Duration(avgMs) * time.Millisecond
	return sched, nil
}
