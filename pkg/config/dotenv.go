// Package config loads .env files into the process environment so that
// secrets such as the Telegram token can live outside the YAML config.
package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
)

// DefaultEnvFile is read when no explicit path is given.
const DefaultEnvFile = ".env"

// LoadDotEnv reads key=value pairs from path into the environment. Variables
// already set in the environment win. An empty path reads DefaultEnvFile and
// tolerates its absence; an explicit path must exist.
func LoadDotEnv(path string) error {
	explicit := path != ""
	if !explicit {
		path = DefaultEnvFile
	}
	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}
