// Package in_mem holds in-memory store implementations used by the
// pipeline tests. They enforce the same unique constraints as the
// Postgres schema, returning apperr.ConflictError with the real
// constraint names, so conflict-handling paths behave like production.
package in_mem

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mpavlovic/newsstack/internal/apperr"
	"github.com/mpavlovic/newsstack/internal/domain"
	"github.com/mpavlovic/newsstack/internal/storage"
)

type InMemArticleStore struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]domain.Article
	byURL   map[string]uuid.UUID
	bySlug  map[string]uuid.UUID
	FailURL string // Create returns a plain error for this url, for error-path tests
}

func NewInMemArticleStore() *InMemArticleStore {
	return &InMemArticleStore{
		byID:   make(map[uuid.UUID]domain.Article),
		byURL:  make(map[string]uuid.UUID),
		bySlug: make(map[string]uuid.UUID),
	}
}

func (s *InMemArticleStore) Create(ctx context.Context, article domain.Article) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailURL != "" && article.URL == s.FailURL {
		return uuid.Nil, fmt.Errorf("simulated storage failure for %s", article.URL)
	}
	if _, ok := s.byURL[article.URL]; ok {
		return uuid.Nil, apperr.NewConflict("articles_url_key", fmt.Errorf("duplicate url %q", article.URL))
	}
	if _, ok := s.bySlug[article.Slug]; ok {
		return uuid.Nil, apperr.NewConflict("articles_slug_key", fmt.Errorf("duplicate slug %q", article.Slug))
	}

	if article.ID == uuid.Nil {
		article.ID = uuid.New()
	}
	if article.CreatedAt.IsZero() {
		article.CreatedAt = time.Now()
	}
	s.byID[article.ID] = article
	s.byURL[article.URL] = article.ID
	s.bySlug[article.Slug] = article.ID
	return article.ID, nil
}

func (s *InMemArticleStore) ExistsByURL(ctx context.Context, url string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byURL[url]
	return ok, nil
}

func (s *InMemArticleStore) SlugExists(ctx context.Context, slug string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.bySlug[slug]
	return ok, nil
}

func (s *InMemArticleStore) All() []domain.Article {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Article, 0, len(s.byID))
	for _, a := range s.byID {
		out = append(out, a)
	}
	return out
}

func (s *InMemArticleStore) GetByURL(url string) (domain.Article, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byURL[url]
	if !ok {
		return domain.Article{}, false
	}
	return s.byID[id], true
}

type InMemSourceStore struct {
	mu    sync.Mutex
	byKey map[string]domain.Source
}

func NewInMemSourceStore() *InMemSourceStore {
	return &InMemSourceStore{byKey: make(map[string]domain.Source)}
}

func (s *InMemSourceStore) GetOrCreate(ctx context.Context, source domain.Source) (domain.Source, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.byKey[source.MediastackID]; ok {
		return existing, nil
	}
	if source.ID == uuid.Nil {
		source.ID = uuid.New()
	}
	source.CreatedAt = time.Now()
	source.UpdatedAt = source.CreatedAt
	s.byKey[source.MediastackID] = source
	return source, nil
}

func (s *InMemSourceStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byKey)
}

type InMemCategoryStore struct {
	mu     sync.Mutex
	bySlug map[string]domain.Category
}

func NewInMemCategoryStore() *InMemCategoryStore {
	return &InMemCategoryStore{bySlug: make(map[string]domain.Category)}
}

func (s *InMemCategoryStore) GetOrCreate(ctx context.Context, category domain.Category) (domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.bySlug[category.Slug]; ok {
		return existing, nil
	}
	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}
	category.CreatedAt = time.Now()
	category.UpdatedAt = category.CreatedAt
	s.bySlug[category.Slug] = category
	return category, nil
}

func (s *InMemCategoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.bySlug)
}

type InMemFetchLogStore struct {
	mu         sync.Mutex
	runs       map[uuid.UUID]domain.FetchRun
	order      []uuid.UUID
	FailCreate bool
	FailFinish bool
}

func NewInMemFetchLogStore() *InMemFetchLogStore {
	return &InMemFetchLogStore{runs: make(map[uuid.UUID]domain.FetchRun)}
}

func (s *InMemFetchLogStore) Create(ctx context.Context, run domain.FetchRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailCreate {
		return fmt.Errorf("simulated fetch log create failure")
	}
	s.runs[run.ID] = run
	s.order = append(s.order, run.ID)
	return nil
}

func (s *InMemFetchLogStore) Finish(ctx context.Context, run domain.FetchRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailFinish {
		return fmt.Errorf("simulated fetch log finish failure")
	}
	if _, ok := s.runs[run.ID]; !ok {
		return fmt.Errorf("fetch log %s not found", run.ID)
	}
	s.runs[run.ID] = run
	return nil
}

func (s *InMemFetchLogStore) ListRecent(ctx context.Context, limit int) ([]domain.FetchRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 || limit > len(s.order) {
		limit = len(s.order)
	}
	out := make([]domain.FetchRun, 0, limit)
	for i := len(s.order) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.runs[s.order[i]])
	}
	return out, nil
}

func (s *InMemFetchLogStore) Get(id uuid.UUID) (domain.FetchRun, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[id]
	return run, ok
}

type InMemScheduleStore struct {
	mu     sync.Mutex
	byName map[string]domain.FetchSchedule
}

func NewInMemScheduleStore(schedules ...domain.FetchSchedule) *InMemScheduleStore {
	s := &InMemScheduleStore{byName: make(map[string]domain.FetchSchedule)}
	for _, sched := range schedules {
		s.byName[sched.Name] = sched
	}
	return s
}

func (s *InMemScheduleStore) GetByName(ctx context.Context, name string) (domain.FetchSchedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sched, ok := s.byName[name]
	if !ok {
		return domain.FetchSchedule{}, storage.ErrNotFound
	}
	return sched, nil
}

func (s *InMemScheduleStore) List(ctx context.Context) ([]domain.FetchSchedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.FetchSchedule, 0, len(s.byName))
	for _, sched := range s.byName {
		out = append(out, sched)
	}
	return out, nil
}

func (s *InMemScheduleStore) RecordRun(ctx context.Context, name string, succeeded bool, executionTime time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sched, ok := s.byName[name]
	if !ok {
		return storage.ErrNotFound
	}
	prevTotal := int64(sched.TotalRuns)
	sched.AvgExecutionTime = time.Duration(
		(sched.AvgExecutionTime.Milliseconds()*prevTotal+executionTime.Milliseconds())/(prevTotal+1),
	) * time.Millisecond
	sched.TotalRuns++
	if succeeded {
		sched.SuccessfulRuns++
	} else {
		sched.FailedRuns++
	}
	now := time.Now()
	sched.LastRunAt = &now
	s.byName[name] = sched
	return nil
}
