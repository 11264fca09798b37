package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidKey = errors.New("invalid config key")

// ValidateKey rejects keys with empty path segments.
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("key cannot be empty: %w", ErrInvalidKey)
	}
	if strings.Contains(key, "..") {
		return fmt.Errorf("%q: key contains empty segment: %w", key, ErrInvalidKey)
	}
	if strings.HasPrefix(key, ".") || strings.HasSuffix(key, ".") {
		return fmt.Errorf("%q: key cannot start or end with a dot: %w", key, ErrInvalidKey)
	}
	return nil
}

// Validate checks the values of known keys in s. It returns an error
// describing every invalid value found, or nil.
func Validate(s Store) error {
	var errs []string
	if v, ok := s.Get(KeyEventsLogSize); ok {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			errs = append(errs, fmt.Sprintf("%s: must be a positive integer, got %q", KeyEventsLogSize, v))
		}
	}
	if v, ok := s.Get(KeyCommentMarker); ok && v == "" {
		errs = append(errs, fmt.Sprintf("%s: cannot be empty", KeyCommentMarker))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("config validation failed:\n  %s", strings.Join(errs, "\n  "))
}

// EventsLogSize returns the configured shortlog capacity.
func EventsLogSize(s Store) int {
	if v, ok := s.Get(KeyEventsLogSize); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	n, _ := strconv.Atoi(DefaultEventsLog)
	return n
}
