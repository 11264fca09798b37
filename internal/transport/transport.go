// Package transport moves named objects between two object stores.
//
// Paths handed to an Endpoint are slash-separated and relative to the
// replica's .issue directory, e.g. "objects/issues/ab/<id>/diff/<b>.json".
package transport

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var ErrNotExist = errors.New("object does not exist")

// Endpoint is one side of a transfer.
type Endpoint interface {
	// ReadFile returns the object at path, or ErrNotExist.
	ReadFile(ctx context.Context, path string) ([]byte, error)
	// WriteFile stores data at path, creating parents. Writing content
	// identical to what is already stored is a no-op.
	WriteFile(ctx context.Context, path string, data []byte) error
	// MkdirAll creates a directory; an existing directory is success.
	MkdirAll(ctx context.Context, path string) error
	// Exists reports whether an object is stored at path.
	Exists(ctx context.Context, path string) (bool, error)
	// Remove deletes the object at path; a missing object is success.
	Remove(ctx context.Context, path string) error
	String() string
}

// Copy transfers one object from src to dst.
func Copy(ctx context.Context, src, dst Endpoint, path string) error {
	data, err := src.ReadFile(ctx, path)
	if err != nil {
		return fmt.Errorf("reading %s from %s: %w", path, src, err)
	}
	if err := dst.WriteFile(ctx, path, data); err != nil {
		return fmt.Errorf("writing %s to %s: %w", path, dst, err)
	}
	return nil
}

// Open returns the endpoint addressed by url: s3://bucket/prefix for S3,
// a file:// URL or a plain path for a local replica.
func Open(ctx context.Context, url string, cfg S3Config) (Endpoint, error) {
	switch {
	case strings.HasPrefix(url, "s3://"):
		bucket, prefix, _ := strings.Cut(strings.TrimPrefix(url, "s3://"), "/")
		if bucket == "" {
			return nil, fmt.Errorf("invalid S3 url %q: missing bucket", url)
		}
		return NewS3(ctx, bucket, prefix, cfg)
	case strings.HasPrefix(url, "file://"):
		return NewFileSystem(strings.TrimPrefix(url, "file://")), nil
	case strings.Contains(url, "://"):
		return nil, fmt.Errorf("unsupported remote url %q", url)
	default:
		return NewFileSystem(url), nil
	}
}
