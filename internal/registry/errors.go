package registry

import (
	"errors"
	"fmt"
)

// Registry errors.
var (
	// ErrDuplicateKey indicates two entries share a key.
	ErrDuplicateKey = errors.New("registry: duplicate key")

	// ErrEmptyKey indicates an entry without a key.
	ErrEmptyKey = errors.New("registry: empty key")

	// ErrInvalidEntry indicates an entry whose variant does not match its kind.
	ErrInvalidEntry = errors.New("registry: invalid entry")
)

// DuplicateKeyError names the key registered twice and both positions.
type DuplicateKeyError struct {
	Key    string
	First  int
	Second int
}

// Error implements the error interface.
func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("registry: duplicate key %q (entries %d and %d)", e.Key, e.First, e.Second)
}

// Is lets errors.Is match ErrDuplicateKey.
func (e *DuplicateKeyError) Is(target error) bool {
	return target == ErrDuplicateKey
}
