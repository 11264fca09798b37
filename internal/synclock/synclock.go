// Package synclock provides an advisory mutex serializing pushes into one
// exchange replica, whose manifest each push reads, extends and writes
// back. The lock is a JSON object stored in the exchange itself.
package synclock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"issue-lite/internal/diff"
	"issue-lite/internal/transport"
)

// LockFile is the path of the lock object inside the exchange.
const LockFile = "locks/push.json"

// StaleAfter is the age past which a held lock is presumed abandoned
// and may be taken over.
const StaleAfter = 30 * time.Minute

// Lock is the content of the lock object.
type Lock struct {
	Holder   string  `json:"holder"`
	PID      int     `json:"pid"`
	Acquired float64 `json:"acquired"`
}

// ErrHeld is returned by Acquire when another replica is pushing.
var ErrHeld = errors.New("another push is in progress")

// ErrNotHolder is returned by Release when the lock belongs to someone
// else.
var ErrNotHolder = errors.New("push lock held by another process")

// HeldError describes the current holder.
type HeldError struct {
	Lock Lock
}

func (e *HeldError) Error() string {
	return fmt.Sprintf("%v: held by %s (pid %d) since %s", ErrHeld, e.Lock.Holder, e.Lock.PID,
		diff.Time(e.Lock.Acquired).Format(time.RFC3339))
}

func (e *HeldError) Unwrap() error { return ErrHeld }

// Holder identifies the current process.
func Holder() string {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	return fmt.Sprintf("%s:%d", host, os.Getpid())
}

// Check reads the lock object. Returns transport.ErrNotExist when the
// lock is free.
func Check(ctx context.Context, ep transport.Endpoint) (Lock, error) {
	data, err := ep.ReadFile(ctx, LockFile)
	if err != nil {
		return Lock{}, fmt.Errorf("reading push lock: %w", err)
	}
	var l Lock
	if err := json.Unmarshal(data, &l); err != nil {
		return Lock{}, fmt.Errorf("decoding push lock: %w", err)
	}
	return l, nil
}

// Acquire takes the lock for holder. A lock older than StaleAfter is
// taken over; any other held lock yields a *HeldError.
//
// Acquire is a check-then-write, not an atomic operation; two pushers
// starting within the same instant may both succeed.
func Acquire(ctx context.Context, ep transport.Endpoint, holder string, now time.Time) (Lock, error) {
	current, err := Check(ctx, ep)
	switch {
	case err == nil:
		if current.Holder != holder && now.Sub(diff.Time(current.Acquired)) < StaleAfter {
			return current, &HeldError{Lock: current}
		}
	case !errors.Is(err, transport.ErrNotExist):
		return Lock{}, err
	}

	l := Lock{Holder: holder, PID: os.Getpid(), Acquired: diff.Timestamp(now)}
	data, err := json.Marshal(l)
	if err != nil {
		return Lock{}, fmt.Errorf("encoding push lock: %w", err)
	}
	if err := ep.WriteFile(ctx, LockFile, data); err != nil {
		return Lock{}, fmt.Errorf("writing push lock: %w", err)
	}
	return l, nil
}

// Release frees the lock. The lock must be held by holder.
func Release(ctx context.Context, ep transport.Endpoint, holder string) error {
	current, err := Check(ctx, ep)
	if err != nil {
		return err
	}
	if current.Holder != holder {
		return fmt.Errorf("%w: %q, not %q", ErrNotHolder, current.Holder, holder)
	}
	if err := ep.Remove(ctx, LockFile); err != nil {
		return fmt.Errorf("releasing push lock: %w", err)
	}
	return nil
}
