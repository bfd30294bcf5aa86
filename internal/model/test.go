package model

import "time"

// TestFormat enumerates the five question-and-answer shapes a test can use.
type TestFormat string

const (
	FormatSpelling      TestFormat = "SPELLING"
	FormatPunctuation   TestFormat = "PUNCTUATION"
	FormatOrthoepy      TestFormat = "ORTHOEPY"
	FormatRegularChoice TestFormat = "REGULAR_CHOICE"
	FormatNotParticle   TestFormat = "NOT_PARTICLE"
)

// Formats lists every supported format in a stable order.
var Formats = []TestFormat{
	FormatSpelling,
	FormatPunctuation,
	FormatOrthoepy,
	FormatRegularChoice,
	FormatNotParticle,
}

// Valid reports whether f is one of the supported formats.
func (f TestFormat) Valid() bool {
	for _, known := range Formats {
		if f == known {
			return true
		}
	}
	return false
}

// UsesQuestionPoints reports whether questions of this format carry their own point value.
// The remaining formats score one point per question.
func (f TestFormat) UsesQuestionPoints() bool {
	return f == FormatSpelling || f == FormatNotParticle
}

// Test is a teacher-authored test definition.
type Test struct {
	ID               int64      `json:"id"`
	Format           TestFormat `json:"format"`
	Title            string     `json:"title"`
	TeacherID        int        `json:"teacher_id"`
	TimeLimitMinutes int        `json:"time_limit_minutes"`
	MaxAttempts      int        `json:"max_attempts"`
	AvailableFrom    *time.Time `json:"available_from,omitempty"`
	AvailableUntil   *time.Time `json:"available_until,omitempty"`
	IsActive         bool       `json:"is_active"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// TimeLimit returns the configured limit as a duration. Zero means unlimited.
func (t *Test) TimeLimit() time.Duration {
	if t.TimeLimitMinutes <= 0 {
		return 0
	}
	return time.Duration(t.TimeLimitMinutes) * time.Minute
}

// OpenAt reports whether now falls inside the activation window.
func (t *Test) OpenAt(now time.Time) bool {
	if t.AvailableFrom != nil && now.Before(*t.AvailableFrom) {
		return false
	}
	if t.AvailableUntil != nil && now.After(*t.AvailableUntil) {
		return false
	}
	return true
}

// Assignment binds a test to a class of students.
type Assignment struct {
	ID      int64 `json:"id"`
	TestID  int64 `json:"test_id"`
	ClassID int   `json:"class_id"`
}
