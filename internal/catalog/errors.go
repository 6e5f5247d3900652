package catalog

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when an id is not present in the catalog.
var ErrNotFound = errors.New("phantom not found")

// ConfigError reports a catalog source that is missing, unreadable or malformed.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("catalog %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }
