// Package kvstorage defines the record-directory interface used for the
// immutable objects of an entity: diff batches and comments.
// Each key is one JSON file; a store never interprets the values.
package kvstorage

import (
	"context"
	"fmt"
	"strings"
)

// KVStore defines the interface for a directory of keyed records.
type KVStore interface {
	// Set stores a value for the given key.
	// If opts.FailIfExists is true and the key already exists, returns ErrAlreadyExists.
	// Otherwise, overwrites the existing value.
	Set(ctx context.Context, key string, value []byte, opts SetOptions) error

	// Get retrieves the value for the given key.
	// Returns ErrKeyNotFound if the key doesn't exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// List returns all keys in sorted order. A missing directory is empty.
	List(ctx context.Context) ([]string, error)
}

// SetOptions controls Set behavior.
type SetOptions struct {
	// FailIfExists causes Set to return ErrAlreadyExists if the key is already present.
	FailIfExists bool
}

// ValidateKey checks that a key is non-empty and cannot escape the directory.
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("key cannot be empty: %w", ErrInvalidKey)
	}
	if strings.ContainsAny(key, "/\\") || key == "." || key == ".." {
		return fmt.Errorf("key %q contains path separator: %w", key, ErrInvalidKey)
	}
	return nil
}
