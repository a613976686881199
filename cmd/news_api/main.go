package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/mpavlovic/newsstack/internal/ingest"
	"github.com/mpavlovic/newsstack/internal/mediastack"
	"github.com/mpavlovic/newsstack/internal/router"
	"github.com/mpavlovic/newsstack/internal/server"
	"github.com/mpavlovic/newsstack/internal/storage/pg"
	pkgserver "github.com/mpavlovic/newsstack/pkg/server"
)

func main() {
	slog.SetLogLoggerLevel(slog.LevelDebug)

	appSettings := NewAppConfig()
	cfg, err := appSettings.Load()
	if err != nil {
		slog.Error("Failed to load app configuration", "error", err)
		os.Exit(1)
	}

	sCfg, err := server.LoadConfig()
	if err != nil {
		slog.Error("Failed to load server config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pg.NewConnectionPool(ctx, pg.PoolConfig{ConnStr: cfg.DatabaseURL})
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	articles := pg.NewArticleStore(pool)
	sources := pg.NewSourceStore(pool)
	categories := pg.NewCategoryStore(pool)
	logs := pg.NewFetchLogStore(pool)
	schedules := pg.NewScheduleStore(pool)

	client := mediastack.NewClient(cfg.Mediastack)
	recorder := ingest.NewRunRecorder(logs, cfg.Mediastack.MaskedEndpoint())
	orchestrator := ingest.NewOrchestrator(
		client,
		articles,
		ingest.NewRegistry(sources, categories),
		recorder,
		ingest.WithScheduleStore(schedules),
	)

	s := server.New(sCfg).
		SetupHealthChecks("/health", pkgserver.NewPingHealthChecker(pool))

	router.NewIngestRouter(s.Echo, orchestrator, logs, schedules).Bind()

	slog.Info("Starting news API", "port", sCfg.Port, "endpoint", cfg.Mediastack.MaskedEndpoint())
	if err := s.Start(); err != nil {
		s.Echo.Logger.Error("Failed to start server: ", err)
		os.Exit(1)
	}
}
