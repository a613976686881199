package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mpavlovic/newsstack/internal/apperr"
	"github.com/mpavlovic/newsstack/internal/domain"
	"github.com/mpavlovic/newsstack/internal/mediastack"
	"github.com/mpavlovic/newsstack/internal/storage"
)

const (
	defaultWorkers  = 4
	slugRetryLimit  = 3
	triggerManual   = "manual"
	triggerSchedule = "schedule"
)

// recordOutcome is the structured result of processing one raw record.
// The counters and the diagnostic log both consume it, keeping the
// decision logic free of I/O.
type recordOutcome int

const (
	outcomeNew recordOutcome = iota
	outcomeDuplicate
	outcomeSkipped
	outcomeFailed
)

type runCounters struct {
	added      atomic.Int64
	duplicates atomic.Int64
	skipped    atomic.Int64
	failed     atomic.Int64
}

func (c *runCounters) record(out recordOutcome) {
	switch out {
	case outcomeNew:
		c.added.Add(1)
	case outcomeDuplicate:
		c.duplicates.Add(1)
	case outcomeSkipped:
		c.skipped.Add(1)
	case outcomeFailed:
		c.failed.Add(1)
	}
}

// Orchestrator drives one fetch run: parameter build, one fetch client
// invocation (one page per run, paging is the caller's concern), per
// record dedup -> registry -> normalize -> persist, and the run log.
type Orchestrator struct {
	client     *mediastack.Client
	articles   storage.ArticleStore
	registry   *Registry
	normalizer *Normalizer
	recorder   *RunRecorder
	schedules  storage.ScheduleStore
	workers    int
}

type OrchestratorOption func(*Orchestrator)

// WithWorkers bounds the per-record worker pool. 1 means sequential.
func WithWorkers(n int) OrchestratorOption {
	return func(o *Orchestrator) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithScheduleStore enables RunSchedule.
func WithScheduleStore(s storage.ScheduleStore) OrchestratorOption {
	return func(o *Orchestrator) {
		o.schedules = s
	}
}

func NewOrchestrator(
	client *mediastack.Client,
	articles storage.ArticleStore,
	registry *Registry,
	recorder *RunRecorder,
	opts ...OrchestratorOption,
) *Orchestrator {
	o := &Orchestrator{
		client:     client,
		articles:   articles,
		registry:   registry,
		normalizer: NewNormalizer(articles),
		recorder:   recorder,
		workers:    defaultWorkers,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// RunFetch executes one fetch run with the given parameters. A fetch
// failure finalizes the run log and propagates; per-record failures are
// reflected only in the summary counts and the run status.
func (o *Orchestrator) RunFetch(ctx context.Context, params mediastack.Params) (*domain.RunSummary, error) {
	return o.run(ctx, params, triggerManual)
}

// RunSchedule executes a run with a named parameter set and updates the
// schedule's run statistics afterwards.
func (o *Orchestrator) RunSchedule(ctx context.Context, name string) (*domain.RunSummary, error) {
	if o.schedules == nil {
		return nil, fmt.Errorf("no schedule store configured")
	}

	sched, err := o.schedules.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.NewValidation(fmt.Sprintf("unknown fetch schedule %q", name))
		}
		return nil, err
	}
	if !sched.IsActive {
		return nil, apperr.NewValidation(fmt.Sprintf("fetch schedule %q is not active", name))
	}

	start := time.Now()
	summary, runErr := o.run(ctx, mediastack.ParamsFromMap(sched.Parameters), triggerSchedule+":"+name)

	if err := o.schedules.RecordRun(context.WithoutCancel(ctx), name, runErr == nil, time.Since(start)); err != nil {
		slog.Error("failed to record schedule run", "schedule", name, "error", err)
	}

	return summary, runErr
}

func (o *Orchestrator) run(ctx context.Context, params mediastack.Params, triggeredBy string) (*domain.RunSummary, error) {
	slog.Info("initiating news fetch", "params", params.Map(), "triggeredBy", triggeredBy)
	handle := o.recorder.Start(ctx, params.Map(), triggeredBy)

	batch, err := o.client.Fetch(ctx, params)
	if err != nil {
		status := domain.StatusFailed
		if apperr.IsRateLimited(err) {
			status = domain.StatusRateLimited
		}
		var httpStatus *int
		var he *apperr.HTTPError
		if errors.As(err, &he) {
			httpStatus = &he.Status
		}

		slog.Error("news fetch failed", "runId", handle.ID(), "error", err)
		run := o.recorder.Finish(ctx, handle, RunOutcome{
			Status:     status,
			Err:        err,
			HTTPStatus: httpStatus,
		})
		return &domain.RunSummary{RunID: run.ID, Status: run.Status}, err
	}

	counters := o.processBatch(ctx, batch)

	status := domain.StatusSuccess
	if counters.failed.Load() > 0 {
		status = domain.StatusPartialSuccess
	}

	run := o.recorder.Finish(ctx, handle, RunOutcome{
		Status:       status,
		TotalResults: batch.Pagination.Total,
		Fetched:      len(batch.Articles),
		New:          int(counters.added.Load()),
		Duplicates:   int(counters.duplicates.Load()),
		Skipped:      int(counters.skipped.Load()),
		Failed:       int(counters.failed.Load()),
	})

	summary := &domain.RunSummary{
		RunID:     run.ID,
		Status:    run.Status,
		Fetched:   run.FetchedArticles,
		Processed: run.NewArticles,
		Skipped:   run.Duplicates + run.Skipped,
		Errored:   run.Failed,
	}

	slog.Info("news fetch completed",
		"runId", run.ID,
		"status", run.Status,
		"fetched", summary.Fetched,
		"processed", summary.Processed,
		"skipped", summary.Skipped,
		"errored", summary.Errored,
		"duration", run.ExecutionTime,
	)
	return summary, nil
}

// processBatch runs the records through a bounded pool. Records are
// independent; the shared get-or-create and uniqueness paths are
// race-safe at the storage layer.
func (o *Orchestrator) processBatch(ctx context.Context, batch *mediastack.Batch) *runCounters {
	counters := &runCounters{}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)

	for _, raw := range batch.Articles {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			counters.record(o.processRecord(gctx, raw))
			return nil
		})
	}

	_ = g.Wait()
	return counters
}

func (o *Orchestrator) processRecord(ctx context.Context, raw mediastack.RawArticle) recordOutcome {
	// dedup gate, checked right before normalize/persist; the url unique
	// constraint remains the last line of defense
	exists, err := o.articles.ExistsByURL(ctx, raw.URL)
	if err != nil {
		slog.Error("failed to check for duplicate", "url", raw.URL, "title", raw.Title, "error", err)
		return outcomeFailed
	}
	if exists {
		slog.Debug("skipping duplicate article", "url", raw.URL)
		return outcomeDuplicate
	}

	source, err := o.registry.ResolveSource(ctx, raw)
	if err != nil {
		slog.Error("failed to resolve source", "url", raw.URL, "title", raw.Title, "error", err)
		return outcomeFailed
	}

	category, err := o.registry.ResolveCategory(ctx, raw.Category)
	if err != nil {
		slog.Error("failed to resolve category", "url", raw.URL, "title", raw.Title, "error", err)
		return outcomeFailed
	}

	article, err := o.normalizer.Normalize(ctx, raw, source, category)
	if err != nil {
		var ve *apperr.ValidationError
		if errors.As(err, &ve) {
			slog.Warn("skipping invalid article", "url", raw.URL, "title", raw.Title, "error", err)
			return outcomeSkipped
		}
		slog.Error("failed to normalize article", "url", raw.URL, "title", raw.Title, "error", err)
		return outcomeFailed
	}

	return o.persist(ctx, article, raw)
}

// persist inserts the article, treating a url conflict as a duplicate and
// a slug conflict as a regenerate-and-retry, bounded before the record is
// counted as failed.
func (o *Orchestrator) persist(ctx context.Context, article domain.Article, raw mediastack.RawArticle) recordOutcome {
	for attempt := 0; attempt <= slugRetryLimit; attempt++ {
		id, err := o.articles.Create(ctx, article)
		if err == nil {
			slog.Info("article ingested", "id", id, "url", article.URL, "slug", article.Slug)
			return outcomeNew
		}

		if apperr.IsConflict(err, "articles_url_key") {
			slog.Debug("lost insert race, article already ingested", "url", article.URL)
			return outcomeDuplicate
		}

		if apperr.IsConflict(err, "articles_slug_key") {
			newSlug, slugErr := o.normalizer.UniqueSlug(ctx, article.Title)
			if slugErr != nil {
				slog.Error("failed to regenerate slug", "url", article.URL, "title", raw.Title, "error", slugErr)
				return outcomeFailed
			}
			slog.Debug("slug collision, retrying with regenerated slug",
				"url", article.URL, "oldSlug", article.Slug, "newSlug", newSlug)
			article.Slug = newSlug
			continue
		}

		slog.Error("failed to persist article", "url", article.URL, "title", raw.Title, "error", err)
		return outcomeFailed
	}

	slog.Error("slug retries exhausted", "url", article.URL, "title", raw.Title)
	return outcomeFailed
}
