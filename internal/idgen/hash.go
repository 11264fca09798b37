// Package idgen implements id generation for issue objects.
//
// Issue, diff batch and comment ids are lowercase hex BLAKE3-256 digests
// of the object's identifying fields plus a random nonce, so two writers
// on different replicas never produce the same id for different objects.
package idgen

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"
)

// Length is the number of hex characters in a generated id.
const Length = 64

// hashFields joins fields with a separator that cannot appear in a
// formatted float or an email address, then hashes the result.
func hashFields(fields ...string) string {
	sum := blake3.Sum256([]byte(strings.Join(fields, "\x1f")))
	return hex.EncodeToString(sum[:])
}

// nonce returns a fresh random value mixed into every id.
func nonce() string {
	return uuid.NewString()
}

func formatTimestamp(ts float64) string {
	return fmt.Sprintf("%.6f", ts)
}
