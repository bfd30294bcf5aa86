package model

import "time"

// AnswerPayload is a student's raw input. Which fields matter depends on the test format:
// free text (Spelling, Punctuation, multiple choice ids, true/false, NotParticle),
// the "no letter needed" flag (Spelling), an integer index (Orthoepy) or a single
// option id (single choice).
type AnswerPayload struct {
	Text     string `json:"text,omitempty"`
	NoLetter bool   `json:"no_letter,omitempty"`
	Index    *int   `json:"index,omitempty"`
	OptionID *int64 `json:"option_id,omitempty"`
}

// Answer is the stored answer of one attempt to one question.
// IsCorrect and PointsAwarded are only set by evaluation.
type Answer struct {
	ID            int64         `json:"id"`
	AttemptID     int64         `json:"attempt_id"`
	QuestionID    int64         `json:"question_id"`
	Payload       AnswerPayload `json:"payload"`
	IsCorrect     bool          `json:"is_correct"`
	PointsAwarded int           `json:"points_awarded"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// SubmitAnswerRequest is the payload for saving one answer.
type SubmitAnswerRequest struct {
	Text     string `json:"text" binding:"omitempty,max=500,nomarkup"`
	NoLetter bool   `json:"no_letter"`
	Index    *int   `json:"index" binding:"omitempty,min=0,max=64"`
	OptionID *int64 `json:"option_id" binding:"omitempty,min=1"`
}

// Payload converts the request into the stored payload shape.
func (r *SubmitAnswerRequest) Payload() AnswerPayload {
	return AnswerPayload{
		Text:     r.Text,
		NoLetter: r.NoLetter,
		Index:    r.Index,
		OptionID: r.OptionID,
	}
}
