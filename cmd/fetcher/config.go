package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/mpavlovic/newsstack/internal/mediastack"
	"github.com/mpavlovic/newsstack/pkg/config/env"
)

func NewAppConfig() *AppConfig {
	return &AppConfig{
		ENV: os.Getenv("ENV"),
	}
}

type AppConfig struct {
	ENV string
}

type FetcherConfig struct {
	DatabaseURL string
	Mediastack  mediastack.Config
}

func (as *AppConfig) Load(needsDB bool) (*FetcherConfig, error) {
	err := env.LoadDotEnv(as.ENV, "cmd/fetcher/.env")
	if err != nil {
		slog.Info("Skipping .env environment variables...", "error", err)
	}

	dbURL := os.Getenv("DATABASE_URL")
	if needsDB && dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	msCfg, err := mediastack.LoadConfig(os.Getenv("MEDIASTACK_CONFIG_PATH"))
	if err != nil {
		return nil, err
	}

	return &FetcherConfig{
		DatabaseURL: dbURL,
		Mediastack:  msCfg,
	}, nil
}
