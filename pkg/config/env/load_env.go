package env

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads environment variables from .env files. ENV_PATH
// overrides the default paths. Missing files are fatal only in local
// mode; deployed environments configure through the process env.
func LoadDotEnv(env string, defaultPaths ...string) error {
	paths := defaultPaths
	if os.Getenv("ENV_PATH") != "" {
		paths = []string{os.Getenv("ENV_PATH")}
	}

	err := godotenv.Load(paths...)
	if err != nil {
		if env == "local" || env == "" {
			slog.Error("Failed to load environment variables in local mode", "error", err)
			return err
		}
		slog.Debug("Skipping .env ...")
	}

	return nil
}
