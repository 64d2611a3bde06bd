package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/knadh/koanf/parsers/dotenv"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultDotEnvPath is read from the working directory on start.
const DefaultDotEnvPath = ".env"

// LoadDotEnv exports the KEY=VALUE pairs of path into the process
// environment. Variables that are already set win, and a missing file is
// not an error.
func LoadDotEnv(path string) error {
	k := koanf.New("\x00")
	if err := k.Load(file.Provider(path), dotenv.Parser()); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}

	for _, key := range k.Keys() {
		if _, set := os.LookupEnv(key); set {
			continue
		}
		if err := os.Setenv(key, k.String(key)); err != nil {
			return fmt.Errorf("set %s: %w", key, err)
		}
	}
	return nil
}
