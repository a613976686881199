package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/mpavlovic/newsstack/internal/domain"
	"github.com/mpavlovic/newsstack/internal/ingest"
	"github.com/mpavlovic/newsstack/internal/mediastack"
	"github.com/mpavlovic/newsstack/internal/storage/pg"
	"github.com/mpavlovic/newsstack/pkg/stringsutil"
)

type flags struct {
	categories string
	sources    string
	countries  string
	languages  string
	date       string
	sort       string
	limit      int
	offset     int
	schedule   string
	check      bool
}

func parseFlags() *flags {
	f := &flags{}
	flag.StringVar(&f.categories, "categories", "", "comma separated category list")
	flag.StringVar(&f.sources, "sources", "", "comma separated source list")
	flag.StringVar(&f.countries, "countries", "", "comma separated country codes")
	flag.StringVar(&f.languages, "languages", "", "comma separated language codes")
	flag.StringVar(&f.date, "date", "", "date or date range (YYYY-MM-DD[,YYYY-MM-DD])")
	flag.StringVar(&f.sort, "sort", "", "sort order (published_desc, published_asc, popularity)")
	flag.IntVar(&f.limit, "limit", 0, "max results per fetch")
	flag.IntVar(&f.offset, "offset", 0, "pagination offset")
	flag.StringVar(&f.schedule, "schedule", "", "run a named fetch schedule instead of inline parameters")
	flag.BoolVar(&f.check, "check", false, "verify API connectivity and exit")
	flag.Parse()
	return f
}

// normalizeCSV trims whitespace around entries so shell quoting slips
// don't end up as parameter values.
func normalizeCSV(s string) string {
	return strings.Join(stringsutil.SplitCSV(s), ",")
}

func (f *flags) params() mediastack.Params {
	return mediastack.Params{
		Categories: normalizeCSV(f.categories),
		Sources:    normalizeCSV(f.sources),
		Countries:  normalizeCSV(f.countries),
		Languages:  normalizeCSV(f.languages),
		Date:       f.date,
		Sort:       f.sort,
		Limit:      f.limit,
		Offset:     f.offset,
	}
}

func main() {
	slog.SetLogLoggerLevel(slog.LevelInfo)

	f := parseFlags()

	appSettings := NewAppConfig()
	cfg, err := appSettings.Load(!f.check)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client := mediastack.NewClient(cfg.Mediastack)

	if f.check {
		if err := client.TestConnection(ctx); err != nil {
			slog.Error("API connection check failed", "endpoint", cfg.Mediastack.MaskedEndpoint(), "error", err)
			os.Exit(1)
		}
		fmt.Println("API connection OK:", cfg.Mediastack.MaskedEndpoint())
		return
	}

	pool, err := pg.NewConnectionPool(ctx, pg.PoolConfig{ConnStr: cfg.DatabaseURL})
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	logs := pg.NewFetchLogStore(pool)
	recorder := ingest.NewRunRecorder(logs, cfg.Mediastack.MaskedEndpoint())
	orchestrator := ingest.NewOrchestrator(
		client,
		pg.NewArticleStore(pool),
		ingest.NewRegistry(pg.NewSourceStore(pool), pg.NewCategoryStore(pool)),
		recorder,
		ingest.WithScheduleStore(pg.NewScheduleStore(pool)),
	)

	var (
		summary *domain.RunSummary
		runErr  error
	)
	if f.schedule != "" {
		summary, runErr = orchestrator.RunSchedule(ctx, f.schedule)
	} else {
		summary, runErr = orchestrator.RunFetch(ctx, f.params())
	}

	if runErr != nil {
		slog.Error("fetch run failed", "error", runErr)
		os.Exit(1)
	}

	fmt.Printf("run %s: status=%s fetched=%d processed=%d skipped=%d errored=%d\n",
		summary.RunID, summary.Status, summary.Fetched, summary.Processed, summary.Skipped, summary.Errored)

	if summary.Status != domain.StatusSuccess {
		os.Exit(1)
	}
}
