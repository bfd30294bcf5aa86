package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/gramtest-backend/internal/middleware"
	"github.com/stemsi/gramtest-backend/internal/model"
	"github.com/stemsi/gramtest-backend/internal/notify"
	"github.com/stemsi/gramtest-backend/internal/response"
	"github.com/stemsi/gramtest-backend/internal/service"
)

const keepAliveInterval = 30 * time.Second

var pingPayload = []byte(`{"type":"ping"}`)

// TeacherHandler serves the teacher-side activity feed and maintenance endpoints.
type TeacherHandler struct {
	manager    *service.AttemptManager
	subscriber notify.Subscriber
	log        zerolog.Logger
}

// NewTeacherHandler creates a new TeacherHandler.
func NewTeacherHandler(manager *service.AttemptManager, subscriber notify.Subscriber, log zerolog.Logger) *TeacherHandler {
	return &TeacherHandler{
		manager:    manager,
		subscriber: subscriber,
		log:        log.With().Str("component", "teacher_handler").Logger(),
	}
}

// TestActivitySSE godoc
// GET /api/v1/teacher/tests/:test_id/activity
// Sends a snapshot of all attempts, then forwards lifecycle events as they happen.
func (h *TeacherHandler) TestActivitySSE(c *gin.Context) {
	testID, ok := paramID(c, "test_id")
	if !ok {
		return
	}
	reqCtx := c.Request.Context()

	// Subscribe before the snapshot so nothing between the two is lost.
	events, cancel, err := h.subscriber.Subscribe(reqCtx, testID)
	if err != nil {
		h.log.Error().Err(err).Int64("test_id", testID).Msg("Activity subscription failed")
		response.Fail(c, http.StatusServiceUnavailable, response.ErrInternal)
		return
	}
	defer cancel()

	attempts, err := h.manager.TestAttempts(reqCtx, testID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	c.SSEvent("message", gin.H{
		"type": "snapshot",
		"data": snapshotOf(attempts),
	})
	c.Writer.Flush()

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	h.log.Info().Int64("test_id", testID).Msg("Teacher attached to activity SSE")

	for {
		select {
		case <-reqCtx.Done():
			h.log.Info().Int64("test_id", testID).Msg("Teacher detached from activity SSE")
			return

		case msg, open := <-events:
			if !open {
				return
			}
			// Forward raw JSON directly, no deserialization needed
			c.Writer.Write([]byte("data: "))
			c.Writer.Write(msg)
			c.Writer.Write([]byte("\n\n"))
			c.Writer.Flush()

		case <-keepAlive.C:
			c.Writer.Write([]byte("data: "))
			c.Writer.Write(pingPayload)
			c.Writer.Write([]byte("\n\n"))
			c.Writer.Flush()
		}
	}
}

type activitySnapshot struct {
	InProgress int             `json:"in_progress"`
	Completed  int             `json:"completed"`
	Attempts   []model.Attempt `json:"attempts"`
}

func snapshotOf(attempts []model.Attempt) activitySnapshot {
	s := activitySnapshot{Attempts: attempts}
	for i := range attempts {
		if attempts[i].IsCompleted {
			s.Completed++
		} else {
			s.InProgress++
		}
	}
	return s
}

// RecomputeAttempt godoc
// POST /api/v1/teacher/attempts/:attempt_id/recompute
// Re-scores an attempt against the current answer key. Safe to repeat.
func (h *TeacherHandler) RecomputeAttempt(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	attemptID, ok := paramID(c, "attempt_id")
	if !ok {
		return
	}

	attempt, err := h.manager.RecomputeForTeacher(c.Request.Context(), claims.UserID, attemptID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	h.log.Info().
		Int("teacher_id", claims.UserID).
		Int64("attempt_id", attemptID).
		Int("score", attempt.Score).
		Msg("Attempt recomputed")
	response.Success(c, http.StatusOK, gin.H{"attempt": attempt})
}
