package pg

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"

	"github.com/mpavlovic/newsstack/internal/apperr"
	"github.com/mpavlovic/newsstack/internal/domain"
	"github.com/mpavlovic/newsstack/internal/storage"
	pkgtesting "github.com/mpavlovic/newsstack/pkg/testing"
)

var (
	testCtx  context.Context
	testPool *ConnectionPool
)

func TestMain(m *testing.M) {
	testCtx = context.Background()

	pg, err := pkgtesting.NewPGContainer(testCtx, pkgtesting.PGConfig{
		Database: "newsstack_test_db",
		Username: "test",
		Password: "test",
	})
	if err != nil {
		panic(err)
	}
	defer testcontainers.TerminateContainer(pg.Container)

	testPool, err = NewConnectionPool(testCtx, PoolConfig{ConnStr: pg.ConnString})
	if err != nil {
		panic(err)
	}
	defer testPool.Close()

	os.Exit(m.Run())
}

func truncateAll(t *testing.T) {
	t.Helper()
	_, err := testPool.GetConn().Exec(testCtx,
		"TRUNCATE TABLE articles, sources, categories, fetch_logs, fetch_schedules CASCADE")
	if err != nil {
		t.Fatalf("failed to truncate tables: %v", err)
	}
}

func testArticle(url, slug string) domain.Article {
	return domain.Article{
		Title:       "Test Article",
		Description: "body",
		Content:     "body",
		URL:         url,
		SourceName:  "CNN",
		Language:    "en",
		Country:     "us",
		PublishedAt: time.Date(2024, 8, 30, 10, 0, 0, 0, time.UTC),
		IsActive:    true,
		Slug:        slug,
	}
}

func TestArticleStore_CreateAndExists(t *testing.T) {
	truncateAll(t)
	store := NewArticleStore(testPool)

	id, err := store.Create(testCtx, testArticle("https://example.com/a", "test-article"))
	if err != nil {
		t.Fatalf("failed to create article: %v", err)
	}
	if id == uuid.Nil {
		t.Fatal("expected non-nil article id")
	}

	exists, err := store.ExistsByURL(testCtx, "https://example.com/a")
	if err != nil {
		t.Fatalf("failed to check url: %v", err)
	}
	if !exists {
		t.Error("expected url to exist")
	}

	exists, err = store.ExistsByURL(testCtx, "https://example.com/other")
	if err != nil {
		t.Fatalf("failed to check url: %v", err)
	}
	if exists {
		t.Error("expected url to not exist")
	}

	exists, err = store.SlugExists(testCtx, "test-article")
	if err != nil {
		t.Fatalf("failed to check slug: %v", err)
	}
	if !exists {
		t.Error("expected slug to exist")
	}
}

func TestArticleStore_URLConflict(t *testing.T) {
	truncateAll(t)
	store := NewArticleStore(testPool)

	if _, err := store.Create(testCtx, testArticle("https://example.com/a", "first")); err != nil {
		t.Fatalf("failed to create article: %v", err)
	}

	_, err := store.Create(testCtx, testArticle("https://example.com/a", "second"))
	if !apperr.IsConflict(err, "articles_url_key") {
		t.Fatalf("expected url conflict, got %v", err)
	}
}

func TestArticleStore_SlugConflict(t *testing.T) {
	truncateAll(t)
	store := NewArticleStore(testPool)

	if _, err := store.Create(testCtx, testArticle("https://example.com/a", "same-slug")); err != nil {
		t.Fatalf("failed to create article: %v", err)
	}

	_, err := store.Create(testCtx, testArticle("https://example.com/b", "same-slug"))
	if !apperr.IsConflict(err, "articles_slug_key") {
		t.Fatalf("expected slug conflict, got %v", err)
	}
}

func TestSourceStore_GetOrCreate(t *testing.T) {
	truncateAll(t)
	store := NewSourceStore(testPool)

	src := domain.Source{MediastackID: "cnn", Name: "CNN", IsActive: true}

	first, err := store.GetOrCreate(testCtx, src)
	if err != nil {
		t.Fatalf("failed to create source: %v", err)
	}
	second, err := store.GetOrCreate(testCtx, src)
	if err != nil {
		t.Fatalf("failed to resolve source: %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("expected same source row, got %s and %s", first.ID, second.ID)
	}
}

func TestSourceStore_GetOrCreate_Concurrent(t *testing.T) {
	truncateAll(t)
	store := NewSourceStore(testPool)

	const goroutines = 8
	ids := make([]uuid.UUID, goroutines)

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			src, err := store.GetOrCreate(testCtx, domain.Source{MediastackID: "bbc", Name: "BBC", IsActive: true})
			if err != nil {
				t.Errorf("failed to resolve source: %v", err)
				return
			}
			ids[i] = src.ID
		}(i)
	}
	wg.Wait()

	for i := 1; i < goroutines; i++ {
		if ids[i] != ids[0] {
			t.Fatalf("expected one source row, got %s and %s", ids[0], ids[i])
		}
	}
}

func TestCategoryStore_GetOrCreate(t *testing.T) {
	truncateAll(t)
	store := NewCategoryStore(testPool)

	first, err := store.GetOrCreate(testCtx, domain.Category{Slug: "technology", Name: "technology", IsActive: true})
	if err != nil {
		t.Fatalf("failed to create category: %v", err)
	}
	second, err := store.GetOrCreate(testCtx, domain.Category{Slug: "technology", Name: "technology", IsActive: true})
	if err != nil {
		t.Fatalf("failed to resolve category: %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("expected same category row, got %s and %s", first.ID, second.ID)
	}
}

func TestFetchLogStore_Lifecycle(t *testing.T) {
	truncateAll(t)
	store := NewFetchLogStore(testPool)

	run := domain.FetchRun{
		ID:          uuid.New(),
		Endpoint:    "http://a****1234@api.mediastack.com/v1/news",
		Parameters:  map[string]string{"categories": "technology"},
		TriggeredBy: "manual",
		Status:      domain.StatusRunning,
		StartedAt:   time.Now().UTC(),
	}
	if err := store.Create(testCtx, run); err != nil {
		t.Fatalf("failed to create fetch log: %v", err)
	}

	completed := time.Now().UTC()
	run.Status = domain.StatusSuccess
	run.TotalResults = 100
	run.FetchedArticles = 25
	run.NewArticles = 20
	run.Duplicates = 3
	run.Skipped = 2
	run.ExecutionTime = 1500 * time.Millisecond
	run.CompletedAt = &completed
	if err := store.Finish(testCtx, run); err != nil {
		t.Fatalf("failed to finish fetch log: %v", err)
	}

	runs, err := store.ListRecent(testCtx, 10)
	if err != nil {
		t.Fatalf("failed to list runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}

	got := runs[0]
	if got.Status != domain.StatusSuccess {
		t.Errorf("expected success status, got %s", got.Status)
	}
	if got.NewArticles != 20 || got.Duplicates != 3 || got.Skipped != 2 {
		t.Errorf("unexpected counters: %+v", got)
	}
	if got.Parameters["categories"] != "technology" {
		t.Errorf("expected parameters round trip, got %v", got.Parameters)
	}
	if got.CompletedAt == nil {
		t.Error("expected completed_at to be set")
	}
	if got.ExecutionTime != 1500*time.Millisecond {
		t.Errorf("expected 1500ms execution time, got %s", got.ExecutionTime)
	}
}

func TestFetchLogStore_FinishUnknownRun(t *testing.T) {
	truncateAll(t)
	store := NewFetchLogStore(testPool)

	err := store.Finish(testCtx, domain.FetchRun{ID: uuid.New(), Status: domain.StatusFailed})
	if err == nil {
		t.Fatal("expected error finishing unknown run")
	}
}

func seedSchedule(t *testing.T, name string, active bool) {
	t.Helper()
	_, err := testPool.GetConn().Exec(testCtx, `
		INSERT INTO fetch_schedules (id, name, parameters, is_active)
		VALUES ($1, $2, $3, $4)
	`, uuid.New(), name, map[string]string{"categories": "technology", "countries": "us"}, active)
	if err != nil {
		t.Fatalf("failed to seed schedule: %v", err)
	}
}

func TestScheduleStore_GetByName(t *testing.T) {
	truncateAll(t)
	store := NewScheduleStore(testPool)
	seedSchedule(t, "us-tech", true)

	sched, err := store.GetByName(testCtx, "us-tech")
	if err != nil {
		t.Fatalf("failed to get schedule: %v", err)
	}
	if sched.Parameters["categories"] != "technology" {
		t.Errorf("expected parameters round trip, got %v", sched.Parameters)
	}
	if !sched.IsActive {
		t.Error("expected schedule to be active")
	}

	_, err = store.GetByName(testCtx, "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestScheduleStore_RecordRun(t *testing.T) {
	truncateAll(t)
	store := NewScheduleStore(testPool)
	seedSchedule(t, "us-tech", true)

	if err := store.RecordRun(testCtx, "us-tech", true, 2*time.Second); err != nil {
		t.Fatalf("failed to record run: %v", err)
	}
	if err := store.RecordRun(testCtx, "us-tech", false, 4*time.Second); err != nil {
		t.Fatalf("failed to record run: %v", err)
	}

	sched, err := store.GetByName(testCtx, "us-tech")
	if err != nil {
		t.Fatalf("failed to get schedule: %v", err)
	}

	if sched.TotalRuns != 2 || sched.SuccessfulRuns != 1 || sched.FailedRuns != 1 {
		t.Errorf("unexpected run counters: %+v", sched)
	}
	if sched.AvgExecutionTime != 3*time.Second {
		t.Errorf("expected 3s rolling average, got %s", sched.AvgExecutionTime)
	}
	if sched.LastRunAt == nil {
		t.Error("expected last_run_at to be set")
	}
}

func TestScheduleStore_List(t *testing.T) {
	truncateAll(t)
	store := NewScheduleStore(testPool)
	seedSchedule(t, "us-tech", true)
	seedSchedule(t, "world-news", false)

	schedules, err := store.List(testCtx)
	if err != nil {
		t.Fatalf("failed to list schedules: %v", err)
	}
	if len(schedules) != 2 {
		t.Fatalf("expected 2 schedules, got %d", len(schedules))
	}
}
