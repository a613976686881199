package router

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/mpavlovic/newsstack/internal/apperr"
	"github.com/mpavlovic/newsstack/internal/domain"
	"github.com/mpavlovic/newsstack/internal/mediastack"
	"github.com/mpavlovic/newsstack/internal/storage"
)

const (
	defaultRunsLimit = 20
	maxRunsLimit     = 100
)

// Runner triggers ingestion runs. Implemented by ingest.Orchestrator.
type Runner interface {
	RunFetch(ctx context.Context, params mediastack.Params) (*domain.RunSummary, error)
	RunSchedule(ctx context.Context, name string) (*domain.RunSummary, error)
}

type IngestRouter struct {
	e         *echo.Echo
	runner    Runner
	logs      storage.FetchLogStore
	schedules storage.ScheduleStore
}

func NewIngestRouter(e *echo.Echo, runner Runner, logs storage.FetchLogStore, schedules storage.ScheduleStore) *IngestRouter {
	return &IngestRouter{
		e:         e,
		runner:    runner,
		logs:      logs,
		schedules: schedules,
	}
}

func (r *IngestRouter) Bind() {
	v1 := r.e.Group("/api/v1")
	v1.POST("/fetch", r.fetchHandler)
	v1.GET("/runs", r.runsHandler)
	v1.GET("/schedules", r.schedulesHandler)
}

type fetchRequest struct {
	Schedule   string `json:"schedule"`
	Categories string `json:"categories"`
	Sources    string `json:"sources"`
	Countries  string `json:"countries"`
	Languages  string `json:"languages"`
	Date       string `json:"date"`
	Sort       string `json:"sort"`
	Limit      int    `json:"limit"`
	Offset     int    `json:"offset"`
}

// fetchHandler triggers a run synchronously and returns its summary. A
// non-empty schedule name wins over inline parameters.
func (r *IngestRouter) fetchHandler(c echo.Context) error {
	var req fetchRequest
	if err := c.Bind(&req); err != nil {
		return apperr.NewValidation("invalid request body")
	}

	var (
		summary *domain.RunSummary
		err     error
	)
	if req.Schedule != "" {
		summary, err = r.runner.RunSchedule(c.Request().Context(), req.Schedule)
	} else {
		summary, err = r.runner.RunFetch(c.Request().Context(), mediastack.Params{
			Categories: req.Categories,
			Sources:    req.Sources,
			Countries:  req.Countries,
			Languages:  req.Languages,
			Date:       req.Date,
			Sort:       req.Sort,
			Limit:      req.Limit,
			Offset:     req.Offset,
		})
	}
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, summary)
}

func (r *IngestRouter) runsHandler(c echo.Context) error {
	limit := defaultRunsLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return apperr.NewValidation("limit must be a positive number")
		}
		limit = min(n, maxRunsLimit)
	}

	runs, err := r.logs.ListRecent(c.Request().Context(), limit)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, runs)
}

func (r *IngestRouter) schedulesHandler(c echo.Context) error {
	schedules, err := r.schedules.List(c.Request().Context())
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, schedules)
}
