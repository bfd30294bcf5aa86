package model

import "time"

// AttemptStatus enumerates attempt lifecycle states.
type AttemptStatus string

const (
	AttemptStatusInProgress AttemptStatus = "IN_PROGRESS"
	AttemptStatusCompleted  AttemptStatus = "COMPLETED"
)

// Attempt is one timed, gradable instance of a student taking a test.
type Attempt struct {
	ID            int64      `json:"id"`
	StudentID     int        `json:"student_id"`
	TestID        int64      `json:"test_id"`
	AttemptNumber int        `json:"attempt_number"`
	StartedAt     time.Time  `json:"started_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	Score         int        `json:"score"`
	MaxScore      int        `json:"max_score"`
	Percentage    float64    `json:"percentage"`
	Grade         int        `json:"grade,omitempty"`
	IsCompleted   bool       `json:"is_completed"`
	// RemainingSeconds is the snapshot stored when the client paused the attempt.
	RemainingSeconds *int `json:"remaining_seconds,omitempty"`
	AutoCompleted    bool `json:"auto_completed"`
}

// Status derives the lifecycle state.
func (a *Attempt) Status() AttemptStatus {
	if a.IsCompleted {
		return AttemptStatusCompleted
	}
	return AttemptStatusInProgress
}

// AttemptState is what a reloading client needs to continue an attempt.
type AttemptState struct {
	Attempt          Attempt              `json:"attempt"`
	Questions        []QuestionForStudent `json:"questions"`
	Answers          []Answer             `json:"answers"`
	RemainingSeconds *float64             `json:"remaining_seconds,omitempty"`
	Expired          bool                 `json:"expired"`
}

// PauseAttemptRequest stores the client's countdown when the attempt is paused.
type PauseAttemptRequest struct {
	RemainingSeconds *int `json:"remaining_seconds" binding:"required,min=0,max=86400"`
}
