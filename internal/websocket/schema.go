package websocket

import (
	"github.com/stemsi/gramtest-backend/internal/model"
)

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAutosave  Action = "autosave"
	ActionHeartbeat Action = "heartbeat"
	ActionSubmit    Action = "submit"
	ActionPing      Action = "ping"
)

// RequestPayload is the single inbound message shape; which fields are read
// depends on Action.
type RequestPayload struct {
	Action Action `json:"action"`

	// autosave
	QuestionID int64                      `json:"question_id,omitempty"`
	Answer     *model.SubmitAnswerRequest `json:"answer,omitempty"`

	// heartbeat
	RemainingSeconds *int `json:"remaining_seconds,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError     Event = "error"
	EventSaved     Event = "saved"
	EventHeartbeat Event = "heartbeat"
	EventCompleted Event = "completed"
	EventExpired   Event = "expired"
	EventPong      Event = "pong"
)

type SavedResponse struct {
	Event      Event `json:"event"`
	QuestionID int64 `json:"question_id"`
}

type HeartbeatResponse struct {
	Event            Event    `json:"event"`
	RemainingSeconds *float64 `json:"remaining_seconds,omitempty"`
}

// CompletedResponse carries the final result. Event is "expired" when the
// time limit ended the attempt.
type CompletedResponse struct {
	Event   Event          `json:"event"`
	Attempt *model.Attempt `json:"attempt"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Code  string `json:"code"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
