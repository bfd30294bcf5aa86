package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/gramtest-backend/internal/repository"
)

// AccessGate decides whether a student may start or resume a test.
type AccessGate interface {
	CanAccess(ctx context.Context, studentID int, testID int64) (bool, error)
}

// Denial reasons reported in logs.
const (
	denyTestNotFound = "test_not_found"
	denyInactive     = "inactive"
	denyWindow       = "outside_window"
	denyNotAssigned  = "not_assigned"
	denyLimit        = "attempt_limit"
)

// AssignmentGate admits a student when the test is active, open right now, assigned
// to the student's class and the student has attempts left.
type AssignmentGate struct {
	catalog     *TestCatalog
	assignments repository.AssignmentStore
	attempts    repository.AttemptStore
	now         func() time.Time
	log         zerolog.Logger
}

// NewAssignmentGate creates a new AssignmentGate.
func NewAssignmentGate(
	catalog *TestCatalog,
	assignments repository.AssignmentStore,
	attempts repository.AttemptStore,
	log zerolog.Logger,
) *AssignmentGate {
	return &AssignmentGate{
		catalog:     catalog,
		assignments: assignments,
		attempts:    attempts,
		now:         time.Now,
		log:         log.With().Str("component", "access_gate").Logger(),
	}
}

// CanAccess checks the rules in order and logs the first one that fails.
func (g *AssignmentGate) CanAccess(ctx context.Context, studentID int, testID int64) (bool, error) {
	reason, err := g.check(ctx, studentID, testID)
	if err != nil {
		return false, err
	}
	if reason != "" {
		g.log.Warn().
			Int("student_id", studentID).
			Int64("test_id", testID).
			Str("reason", reason).
			Msg("Test access denied")
		return false, nil
	}
	return true, nil
}

func (g *AssignmentGate) check(ctx context.Context, studentID int, testID int64) (string, error) {
	test, err := g.catalog.Test(ctx, testID)
	if err != nil {
		if errors.Is(err, ErrTestNotFound) {
			return denyTestNotFound, nil
		}
		return "", err
	}
	if !test.IsActive {
		return denyInactive, nil
	}
	if !test.OpenAt(g.now()) {
		return denyWindow, nil
	}

	assigned, err := g.assignments.IsAssigned(ctx, testID, studentID)
	if err != nil {
		return "", fmt.Errorf("check assignment: %w", err)
	}
	if !assigned {
		return denyNotAssigned, nil
	}

	if test.MaxAttempts > 0 {
		attempts, err := g.attempts.ListByStudentAndTest(ctx, studentID, testID)
		if err != nil {
			return "", fmt.Errorf("count attempts: %w", err)
		}
		completed := 0
		for _, a := range attempts {
			if a.IsCompleted {
				completed++
			}
		}
		if completed >= test.MaxAttempts {
			return denyLimit, nil
		}
	}
	return "", nil
}
