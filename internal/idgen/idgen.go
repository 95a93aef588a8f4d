package idgen

import (
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
)

// NewFunc returns a new identifier. Tests may replace it with Sequence.
var NewFunc = func() string { return uuid.New().String() }

// New returns a new globally unique identifier as string.
func New() string { return NewFunc() }

// Sequence returns a generator producing prefix-1, prefix-2, ...
func Sequence(prefix string) func() string {
	var n int64
	return func() string {
		return prefix + "-" + strconv.FormatInt(atomic.AddInt64(&n, 1), 10)
	}
}
