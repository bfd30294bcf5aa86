package service

import (
	"testing"
	"time"

	"github.com/stemsi/gramtest-backend/internal/model"
)

func fixedGuard(buffer time.Duration, now time.Time) *TimeGuard {
	g := NewTimeGuard(buffer)
	g.now = func() time.Time { return now }
	return g
}

func TestTimeGuardRemainingBased(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	g := fixedGuard(30*time.Second, now)
	limit := 10 * time.Minute

	tests := []struct {
		remaining int
		expired   bool
	}{
		{25, true},
		{30, true},
		{31, false},
		{45, false},
		{0, true},
	}
	for _, tc := range tests {
		rs := tc.remaining
		// Started long ago: the snapshot decides, not elapsed time.
		a := &model.Attempt{StartedAt: now.Add(-time.Hour), RemainingSeconds: &rs}
		if got := g.Expired(a, limit); got != tc.expired {
			t.Errorf("remaining %ds: expired = %v, want %v", tc.remaining, got, tc.expired)
		}
	}
}

func TestTimeGuardElapsedBased(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	g := fixedGuard(30*time.Second, now)
	limit := 10 * time.Minute

	tests := []struct {
		name    string
		elapsed time.Duration
		expired bool
	}{
		{"fresh", time.Minute, false},
		{"at limit", limit, false},
		{"inside buffer", limit + 30*time.Second, false},
		{"past buffer", limit + 31*time.Second, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a := &model.Attempt{StartedAt: now.Add(-tc.elapsed)}
			if got := g.Expired(a, limit); got != tc.expired {
				t.Errorf("expired = %v, want %v", got, tc.expired)
			}
		})
	}
}

func TestTimeGuardUnlimited(t *testing.T) {
	now := time.Now()
	g := fixedGuard(30*time.Second, now)
	rs := 0
	a := &model.Attempt{StartedAt: now.Add(-48 * time.Hour), RemainingSeconds: &rs}
	if g.Expired(a, 0) {
		t.Error("zero limit must never expire")
	}
	if g.Remaining(a, 0) != nil {
		t.Error("zero limit has no remaining time")
	}
}

func TestTimeGuardRemaining(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	g := fixedGuard(30*time.Second, now)

	a := &model.Attempt{StartedAt: now.Add(-4 * time.Minute)}
	if got := g.Remaining(a, 5*time.Minute); got == nil || *got != 60 {
		t.Errorf("remaining = %v, want 60", got)
	}

	late := &model.Attempt{StartedAt: now.Add(-time.Hour)}
	if got := g.Remaining(late, 5*time.Minute); got == nil || *got != 0 {
		t.Errorf("remaining = %v, want clamped 0", got)
	}

	rs := 90
	paused := &model.Attempt{StartedAt: now.Add(-time.Hour), RemainingSeconds: &rs}
	if got := g.Remaining(paused, 5*time.Minute); got == nil || *got != 90 {
		t.Errorf("remaining = %v, want snapshot 90", got)
	}
}
