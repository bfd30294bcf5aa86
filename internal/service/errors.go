package service

import (
	"errors"
	"fmt"

	"github.com/stemsi/gramtest-backend/internal/model"
)

// Attempt engine errors.
var (
	ErrAttemptNotFound  = errors.New("attempt not found")
	ErrTestNotFound     = errors.New("test not found")
	ErrQuestionNotFound = errors.New("question does not belong to this test")
	ErrAccessDenied     = errors.New("test is not available to this student")
	ErrForbidden        = errors.New("attempt belongs to another student")
	ErrAttemptCompleted = errors.New("attempt is already completed")
	ErrTimeExpired      = errors.New("time limit exceeded")
)

// TimeExpiredError carries the attempt that was auto-completed because an answer
// arrived after the deadline. It matches ErrTimeExpired with errors.Is.
type TimeExpiredError struct {
	Attempt *model.Attempt
}

func (e *TimeExpiredError) Error() string {
	return fmt.Sprintf("attempt %d: %s", e.Attempt.ID, ErrTimeExpired)
}

func (e *TimeExpiredError) Unwrap() error { return ErrTimeExpired }
