package repository

import "errors"

// Sentinel kinds for storage errors.
var (
	ErrNotFound       = errors.New("not found")
	ErrCorrupt        = errors.New("stored data is corrupt")
	ErrInvalidKey     = errors.New("invalid group key")
	ErrUnknownBackend = errors.New("unknown storage backend")
)

// IsNotFound reports whether err marks an absent dataset.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
