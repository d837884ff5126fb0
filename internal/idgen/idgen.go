// Package idgen generates the opaque identifiers of processes, threads and
// jobs.  Callers must not rely on their format.
package idgen

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// Generator produces identifiers; tests may replace it for determinism
var Generator = uuid.NewString

// New returns a new unique identifier
func New() string { return Generator() }

// Sequence returns a generator producing prefix-1, prefix-2 and so on
func Sequence(prefix string) func() string {
	var next atomic.Int64
	return func() string {
		return fmt.Sprintf("%v-%d", prefix, next.Add(1))
	}
}
