package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	ferrors "git.home.luguber.info/inful/nbdocs/internal/foundation/errors"
)

// Environment overrides, applied after the config file.
const (
	EnvLogLevel      = "NBDOCS_LOG_LEVEL"
	EnvFailurePolicy = "NBDOCS_FAILURE_POLICY"
)

var envFiles = []string{".env", ".env.local"}

// loadEnvFile loads the first .env/.env.local file found. Variables already
// present in the process environment are not overwritten.
func loadEnvFile() error {
	for _, path := range envFiles {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		return nil
	}
	return errors.New("no .env file found")
}

func applyEnvOverrides(cfg *Config) error {
	if raw := os.Getenv(EnvLogLevel); raw != "" {
		level, err := logLevelNormalizer.NormalizeWithError(raw)
		if err != nil {
			return ferrors.ConfigError("invalid " + EnvLogLevel).WithCause(err).Build()
		}
		cfg.Logging.Level = level
	}
	if raw := os.Getenv(EnvFailurePolicy); raw != "" {
		policy, err := failurePolicyNormalizer.NormalizeWithError(raw)
		if err != nil {
			return ferrors.ConfigError("invalid " + EnvFailurePolicy).WithCause(err).Build()
		}
		cfg.Build.FailurePolicy = policy
	}
	return nil
}
