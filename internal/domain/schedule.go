package domain

import (
	"time"

	"github.com/google/uuid"
)

// FetchSchedule is a named parameter set a run can be triggered with.
// The cron expression is stored for external schedulers and never
// evaluated here.
type FetchSchedule struct {
	ID               uuid.UUID         `json:"id"`
	Name             string            `json:"name"`
	Description      string            `json:"description,omitempty"`
	Parameters       map[string]string `json:"parameters"`
	CronExpression   string            `json:"cronExpression,omitempty"`
	IsActive         bool              `json:"isActive"`
	LastRunAt        *time.Time        `json:"lastRunAt,omitempty"`
	TotalRuns        int               `json:"totalRuns"`
	SuccessfulRuns   int               `json:"successfulRuns"`
	FailedRuns       int               `json:"failedRuns"`
	AvgExecutionTime time.Duration     `json:"averageExecutionTimeMs"`
	CreatedAt        time.Time         `json:"createdAt"`
	UpdatedAt        time.Time         `json:"updatedAt"`
}
