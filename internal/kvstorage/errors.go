package kvstorage

import "errors"

var (
	// ErrKeyNotFound is returned when a key does not exist.
	ErrKeyNotFound = errors.New("key not found")

	// ErrAlreadyExists is returned when Set is called with FailIfExists
	// and the key already exists.
	ErrAlreadyExists = errors.New("key already exists")

	// ErrInvalidKey is returned for keys that are empty or contain a path separator.
	ErrInvalidKey = errors.New("invalid key")
)
