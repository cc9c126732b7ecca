// Package audio stores synthesized announcement audio. The cache layer
// addresses objects by key; backends only move bytes and mint URLs.
package audio

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no object exists under the requested key.
var ErrNotFound = errors.New("audio object not found")

// Store persists announcement audio objects.
type Store interface {
	// Put writes an object atomically under the given key.
	Put(ctx context.Context, key string, data []byte, contentType string) error
	// Get reads an object. Returns ErrNotFound when the key does not exist.
	Get(ctx context.Context, key string) ([]byte, error)
	// Exists reports whether an object exists under the key.
	Exists(ctx context.Context, key string) (bool, error)
	// Delete removes an object. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// URL returns a URL callers can fetch the object from. Backends with
	// presigning return a time-limited URL; others return a stable path.
	URL(ctx context.Context, key string) (string, error)
}
