package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// DotEnvFile is the optional file read before the environment is parsed.
const DotEnvFile = ".env"

// Load parses environment variables into the provided struct.
// The struct should use `env` tags to define mappings. Values from an
// optional .env file in the working directory are applied first; variables
// already present in the environment are never overridden.
//
// Example:
//
//	type Config struct {
//	    Port     int    `env:"HTTP_PORT" envDefault:"8080"`
//	    LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
//	}
func Load(cfg any) error {
	return LoadFiles(cfg, DotEnvFile)
}

// LoadFiles is Load with an explicit list of dotenv files. Missing files are
// skipped; a file that exists but cannot be parsed is an error.
func LoadFiles(cfg any, files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load env file %s: %w", f, err)
		}
	}
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}
