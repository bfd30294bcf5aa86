package model

import "time"

// EventType names an attempt lifecycle transition.
type EventType string

const (
	EventAttemptStarted   EventType = "attempt_started"
	EventAttemptCompleted EventType = "attempt_completed"
)

// AttemptEvent is the fire-and-forget notification sent to activity observers.
type AttemptEvent struct {
	Type          EventType `json:"type"`
	AttemptID     int64     `json:"attempt_id"`
	StudentID     int       `json:"student_id"`
	TestID        int64     `json:"test_id"`
	AttemptNumber int       `json:"attempt_number"`
	Score         int       `json:"score"`
	MaxScore      int       `json:"max_score"`
	Percentage    float64   `json:"percentage"`
	Grade         int       `json:"grade,omitempty"`
	AutoCompleted bool      `json:"auto_completed"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// NewAttemptEvent snapshots an attempt into an event.
func NewAttemptEvent(t EventType, a *Attempt, at time.Time) AttemptEvent {
	return AttemptEvent{
		Type:          t,
		AttemptID:     a.ID,
		StudentID:     a.StudentID,
		TestID:        a.TestID,
		AttemptNumber: a.AttemptNumber,
		Score:         a.Score,
		MaxScore:      a.MaxScore,
		Percentage:    a.Percentage,
		Grade:         a.Grade,
		AutoCompleted: a.AutoCompleted,
		OccurredAt:    at.UTC(),
	}
}
