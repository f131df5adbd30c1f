package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

// ErrNotFound is returned by Get when no object exists at the key
var ErrNotFound = errors.New("object not found")

// Adapter defines the interface for storage backends
type Adapter interface {
	// Put stores data at the given key
	Put(ctx context.Context, key string, data io.Reader) error

	// Get retrieves data from the given key; missing keys yield ErrNotFound
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes data at the given key, missing keys are not an error
	Delete(ctx context.Context, key string) error

	// Exists checks if data exists at the given key
	Exists(ctx context.Context, key string) (bool, error)

	// List returns keys matching the given prefix
	List(ctx context.Context, prefix string) ([]string, error)

	// Close cleans up any resources
	Close() error
}

// CleanKey normalizes a slash separated key and rejects keys that would
// escape the storage root.
func CleanKey(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("empty storage key")
	}
	cleaned := path.Clean("/" + strings.ReplaceAll(key, "\\", "/"))
	cleaned = strings.TrimPrefix(cleaned, "/")
	if cleaned == "" || cleaned == "." {
		return "", fmt.Errorf("invalid storage key: %q", key)
	}
	for _, part := range strings.Split(key, "/") {
		if part == ".." {
			return "", fmt.Errorf("invalid storage key: %q", key)
		}
	}
	return cleaned, nil
}
