// Package idgen hands out entity ids.
//
// Ids are UUIDv7 strings: unique even when two records are created within
// the same millisecond, and still ordered by creation time.
package idgen

import (
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
)

// Generator returns a fresh, unique id on every call.
type Generator func() string

// New returns a UUIDv7 id, falling back to a random (v4) id if the clock
// sequence cannot be read.
func New() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// Sequence returns a deterministic generator yielding prefix-1, prefix-2, ...
// It is intended for tests.
func Sequence(prefix string) Generator {
	var n atomic.Int64
	return func() string {
		return prefix + "-" + strconv.FormatInt(n.Add(1), 10)
	}
}
