package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/ThanhLuuv/user-management-backend/internal/flagx"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const defaultEnvFile = ".env"

// parseEnv overlays environment variables onto config. A dotenv file given
// with -env is loaded first and must exist; otherwise ./.env is loaded when
// present. Variables already set in the process environment win over the
// file. Fields whose variable is unset keep their current value.
func parseEnv(config *Config) error {
	if file := flagx.EnvFileFlags(); file != "" {
		if err := godotenv.Load(file); err != nil {
			return fmt.Errorf("load env file %s: %w", file, err)
		}
	} else if err := godotenv.Load(defaultEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load env file %s: %w", defaultEnvFile, err)
	}

	if err := env.Parse(config); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
