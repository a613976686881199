package ingest

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mpavlovic/newsstack/internal/domain"
	"github.com/mpavlovic/newsstack/internal/storage"
)

// RunHandle identifies one run between Start and Finish.
type RunHandle struct {
	run domain.FetchRun
}

func (h *RunHandle) ID() uuid.UUID {
	return h.run.ID
}

// RunOutcome is everything Finish needs to finalize the log entry.
type RunOutcome struct {
	Status       domain.RunStatus
	TotalResults int
	Fetched      int
	New          int
	Duplicates   int
	Skipped      int
	Failed       int
	Err          error
	HTTPStatus   *int
}

// RunRecorder is pure bookkeeping around the fetch log. A failing log
// write is reported on the diagnostic log and never blocks or fails the
// ingestion run.
type RunRecorder struct {
	logs     storage.FetchLogStore
	endpoint string
}

func NewRunRecorder(logs storage.FetchLogStore, endpoint string) *RunRecorder {
	return &RunRecorder{
		logs:     logs,
		endpoint: endpoint,
	}
}

func (r *RunRecorder) Start(ctx context.Context, params map[string]string, triggeredBy string) *RunHandle {
	now := time.Now()
	run := domain.FetchRun{
		ID:          uuid.New(),
		Endpoint:    r.endpoint,
		Parameters:  params,
		TriggeredBy: triggeredBy,
		Status:      domain.StatusRunning,
		StartedAt:   now,
		CreatedAt:   now,
	}

	if err := r.logs.Create(ctx, run); err != nil {
		slog.Error("failed to create fetch log entry", "runId", run.ID, "error", err)
	}

	return &RunHandle{run: run}
}

// Finish writes the terminal state exactly once. It uses a detached
// context so a cancelled run still gets its accumulated counts recorded.
func (r *RunRecorder) Finish(ctx context.Context, h *RunHandle, out RunOutcome) domain.FetchRun {
	now := time.Now()
	run := h.run
	run.Status = out.Status
	run.TotalResults = out.TotalResults
	run.FetchedArticles = out.Fetched
	run.NewArticles = out.New
	run.Duplicates = out.Duplicates
	run.Skipped = out.Skipped
	run.Failed = out.Failed
	run.HTTPStatusCode = out.HTTPStatus
	run.CompletedAt = &now
	run.ExecutionTime = now.Sub(run.StartedAt)
	if out.Err != nil {
		run.ErrorMessage = out.Err.Error()
	}

	if err := r.logs.Finish(context.WithoutCancel(ctx), run); err != nil {
		slog.Error("failed to finalize fetch log entry", "runId", run.ID, "error", err)
	}

	h.run = run
	return run
}
