package domain

import (
	"time"

	"github.com/google/uuid"
)

// RunStatus is the lifecycle of one fetch run. A run is created as
// StatusRunning and finalized exactly once with one of the terminal states.
type RunStatus string

const (
	StatusRunning        RunStatus = "running"
	StatusSuccess        RunStatus = "success"
	StatusPartialSuccess RunStatus = "partial_success"
	StatusFailed         RunStatus = "failed"
	StatusRateLimited    RunStatus = "rate_limited"
)

// FetchRun is the audit record of one invocation of the ingestion pipeline.
// Never deleted; updated exactly once at run end.
type FetchRun struct {
	ID              uuid.UUID         `json:"id"`
	Endpoint        string            `json:"endpoint"`
	Parameters      map[string]string `json:"parameters"`
	TriggeredBy     string            `json:"triggeredBy"`
	Status          RunStatus         `json:"status"`
	TotalResults    int               `json:"totalResults"`
	FetchedArticles int               `json:"fetchedArticles"`
	NewArticles     int               `json:"newArticles"`
	Duplicates      int               `json:"duplicateArticles"`
	Skipped         int               `json:"skippedArticles"`
	Failed          int               `json:"failedArticles"`
	ExecutionTime   time.Duration     `json:"executionTimeMs"`
	ErrorMessage    string            `json:"errorMessage,omitempty"`
	HTTPStatusCode  *int              `json:"httpStatusCode,omitempty"`
	StartedAt       time.Time         `json:"startedAt"`
	CompletedAt     *time.Time        `json:"completedAt,omitempty"`
	CreatedAt       time.Time         `json:"createdAt"`
}

// RunSummary is the caller-visible outcome of a fetch run. Skipped counts
// both duplicates and records dropped by validation; callers that care about
// degraded runs must inspect the counts, not just the status.
type RunSummary struct {
	RunID     uuid.UUID `json:"runId"`
	Status    RunStatus `json:"status"`
	Fetched   int       `json:"fetched"`
	Processed int       `json:"processed"`
	Skipped   int       `json:"skipped"`
	Errored   int       `json:"errored"`
}
