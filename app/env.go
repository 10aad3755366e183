package app

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

// LoadDotEnv reads .env into the process environment outside production.
// Variables already set in the environment win.
func LoadDotEnv(logger *slog.Logger, path string) {
	if os.Getenv("ENV") == "production" {
		return
	}
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("failed to load env file", "path", path, "error", err)
		}
		return
	}
	logger.Debug("loaded env file", "path", path)
}
