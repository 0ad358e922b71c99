package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	// ErrNilPointer is returned when a nil pointer is provided to Load.
	ErrNilPointer = errors.New("config: nil pointer provided")

	// ErrParsing is returned when environment variables cannot be parsed
	// into the config struct, including missing required values.
	ErrParsing = errors.New("config: failed to parse environment")
)

var loadDotEnv sync.Once

// Load populates v from the process environment. A .env file in the working
// directory is loaded once per process if present; a missing file is not an
// error.
func Load[T any](v *T) error {
	loadDotEnv.Do(func() {
		_ = godotenv.Load()
	})

	if v == nil {
		return ErrNilPointer
	}

	if err := env.Parse(v); err != nil {
		return errors.Join(ErrParsing, err)
	}
	return nil
}

// MustLoad works like Load but panics on failure. Intended for configuration
// the process cannot start without.
func MustLoad[T any](v *T) {
	if err := Load(v); err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
}
