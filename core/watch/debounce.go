package watch

import (
	"time"

	"github.com/juju/ratelimit"
)

// Debouncer lets a change through only if at least interval has passed
// since the last change it let through.
type Debouncer struct {
	interval time.Duration
	clock    ratelimit.Clock
	bucket   *ratelimit.Bucket
}

// NewDebouncer creates a debouncer. A nil clock uses the system clock and a
// non-positive interval lets everything through.
func NewDebouncer(interval time.Duration, clock ratelimit.Clock) *Debouncer {
	return &Debouncer{interval: interval, clock: clock}
}

// Allow reports whether a change seen now should be acted on.
func (d *Debouncer) Allow() bool {
	if d.interval <= 0 {
		return true
	}
	if d.bucket != nil && d.bucket.TakeAvailable(1) == 0 {
		return false
	}
	// Restart the bucket so the next token is exactly one interval away.
	d.bucket = ratelimit.NewBucketWithClock(d.interval, 1, d.clock)
	d.bucket.TakeAvailable(1)
	return true
}
