package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	derrors "git.home.luguber.info/inful/mdsite/internal/foundation/errors"
	"git.home.luguber.info/inful/mdsite/internal/logfields"
)

// envFiles are loaded in order. Variables already set in the process
// environment, or by an earlier file, are not overwritten.
var envFiles = []string{".env", ".env.local"}

func loadEnvFiles() error {
	for _, name := range envFiles {
		if _, err := os.Stat(name); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(name); err != nil {
			return derrors.WrapError(err, derrors.CategoryConfig, "failed to load environment file").
				WithContext("path", name).
				Build()
		}
		slog.Debug("Loaded environment variables", logfields.Path(name))
	}
	return nil
}
