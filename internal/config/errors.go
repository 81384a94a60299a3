package config

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig wraps every validation failure.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrLoadConfig wraps failures reading the file, env or flag layers.
	ErrLoadConfig = errors.New("load config failed")
	// ErrUnknownBackend is returned for a backend other than json or sqlite.
	ErrUnknownBackend = fmt.Errorf("%w: unknown backend", ErrInvalidConfig)
)
