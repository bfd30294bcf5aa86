package service

import (
	"time"

	"github.com/stemsi/gramtest-backend/internal/model"
)

// DefaultTimeBuffer is the grace period added to every time limit.
const DefaultTimeBuffer = 30 * time.Second

// TimeGuard decides whether an attempt ran out of time. There is no timer per attempt;
// expiry is evaluated on demand.
type TimeGuard struct {
	buffer time.Duration
	now    func() time.Time
}

// NewTimeGuard creates a TimeGuard. A negative buffer falls back to DefaultTimeBuffer.
func NewTimeGuard(buffer time.Duration) *TimeGuard {
	if buffer < 0 {
		buffer = DefaultTimeBuffer
	}
	return &TimeGuard{buffer: buffer, now: time.Now}
}

// Now returns the guard's clock.
func (g *TimeGuard) Now() time.Time { return g.now() }

// Elapsed returns the wall time since the attempt started.
func (g *TimeGuard) Elapsed(a *model.Attempt) time.Duration {
	return g.now().Sub(a.StartedAt)
}

// Expired reports whether the attempt is past its limit. A stored pause snapshot takes
// precedence: the attempt is expired once the remaining time is within the buffer.
// Without a snapshot, the attempt expires when elapsed time exceeds limit plus buffer.
// A zero limit never expires.
func (g *TimeGuard) Expired(a *model.Attempt, limit time.Duration) bool {
	if limit <= 0 {
		return false
	}
	if a.RemainingSeconds != nil {
		return float64(*a.RemainingSeconds) <= g.buffer.Seconds()
	}
	return g.Elapsed(a) > limit+g.buffer
}

// Remaining returns the seconds left, clamped at zero, or nil for unlimited tests.
func (g *TimeGuard) Remaining(a *model.Attempt, limit time.Duration) *float64 {
	if limit <= 0 {
		return nil
	}
	var left float64
	if a.RemainingSeconds != nil {
		left = float64(*a.RemainingSeconds)
	} else {
		left = (limit - g.Elapsed(a)).Seconds()
	}
	if left < 0 {
		left = 0
	}
	return &left
}
