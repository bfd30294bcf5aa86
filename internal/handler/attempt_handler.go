package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/gramtest-backend/internal/metrics"
	"github.com/stemsi/gramtest-backend/internal/middleware"
	"github.com/stemsi/gramtest-backend/internal/model"
	"github.com/stemsi/gramtest-backend/internal/response"
	"github.com/stemsi/gramtest-backend/internal/service"
	"github.com/stemsi/gramtest-backend/internal/validator"
)

// AttemptHandler handles the student-facing attempt endpoints.
type AttemptHandler struct {
	manager *service.AttemptManager
	log     zerolog.Logger
}

// NewAttemptHandler creates a new AttemptHandler.
func NewAttemptHandler(manager *service.AttemptManager, log zerolog.Logger) *AttemptHandler {
	return &AttemptHandler{
		manager: manager,
		log:     log.With().Str("component", "attempt_handler").Logger(),
	}
}

// StartAttempt godoc
// POST /api/v1/student/tests/:test_id/attempts
// Opens a new attempt, or returns the live one (idempotent).
func (h *AttemptHandler) StartAttempt(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	testID, ok := paramID(c, "test_id")
	if !ok {
		return
	}

	attempt, err := h.manager.Start(c.Request.Context(), claims.UserID, testID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attempt": attempt})
}

// ListAttempts godoc
// GET /api/v1/student/tests/:test_id/attempts
func (h *AttemptHandler) ListAttempts(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	testID, ok := paramID(c, "test_id")
	if !ok {
		return
	}

	attempts, err := h.manager.GetAllResults(c.Request.Context(), claims.UserID, testID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attempts": attempts})
}

// CountAttempts godoc
// GET /api/v1/student/tests/:test_id/attempts/count
func (h *AttemptHandler) CountAttempts(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	testID, ok := paramID(c, "test_id")
	if !ok {
		return
	}

	count, err := h.manager.GetAttemptCount(c.Request.Context(), claims.UserID, testID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"count": count})
}

// BestAttempt godoc
// GET /api/v1/student/tests/:test_id/attempts/best
// The attempt is null until one is completed.
func (h *AttemptHandler) BestAttempt(c *gin.Context) {
	h.singleResult(c, h.manager.GetBestResult)
}

// LatestAttempt godoc
// GET /api/v1/student/tests/:test_id/attempts/latest
func (h *AttemptHandler) LatestAttempt(c *gin.Context) {
	h.singleResult(c, h.manager.GetLatestResult)
}

func (h *AttemptHandler) singleResult(c *gin.Context, get func(ctx context.Context, studentID int, testID int64) (*model.Attempt, error)) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	testID, ok := paramID(c, "test_id")
	if !ok {
		return
	}

	attempt, err := get(c.Request.Context(), claims.UserID, testID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attempt": attempt})
}

// GetAttemptState godoc
// GET /api/v1/student/attempts/:attempt_id
// Returns questions without answer keys, saved answers and the time left.
func (h *AttemptHandler) GetAttemptState(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	attemptID, ok := paramID(c, "attempt_id")
	if !ok {
		return
	}

	state, err := h.manager.GetState(c.Request.Context(), claims.UserID, attemptID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, state)
}

// SubmitAnswer godoc
// PUT /api/v1/student/attempts/:attempt_id/answers/:question_id
// Saves (or replaces) the answer to one question.
func (h *AttemptHandler) SubmitAnswer(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	attemptID, ok := paramID(c, "attempt_id")
	if !ok {
		return
	}
	questionID, ok := paramID(c, "question_id")
	if !ok {
		return
	}

	var req model.SubmitAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	answer, err := h.manager.SubmitAnswer(c.Request.Context(), claims.UserID, attemptID, questionID, req.Payload())
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	metrics.AnswersSaved.WithLabelValues("http").Inc()
	response.Success(c, http.StatusOK, gin.H{"answer": answerView(answer)})
}

// PauseAttempt godoc
// POST /api/v1/student/attempts/:attempt_id/pause
func (h *AttemptHandler) PauseAttempt(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	attemptID, ok := paramID(c, "attempt_id")
	if !ok {
		return
	}

	var req model.PauseAttemptRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	attempt, err := h.manager.Pause(c.Request.Context(), claims.UserID, attemptID, *req.RemainingSeconds)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attempt": attempt})
}

// CompleteAttempt godoc
// POST /api/v1/student/attempts/:attempt_id/complete
// Grades the attempt. Completing twice returns the stored result.
func (h *AttemptHandler) CompleteAttempt(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	attemptID, ok := paramID(c, "attempt_id")
	if !ok {
		return
	}

	attempt, err := h.manager.Complete(c.Request.Context(), claims.UserID, attemptID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attempt": attempt})
}

// savedAnswer is what a student sees after saving: the verdict is withheld until completion.
type savedAnswer struct {
	ID         int64               `json:"id"`
	QuestionID int64               `json:"question_id"`
	Payload    model.AnswerPayload `json:"payload"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

func answerView(a *model.Answer) savedAnswer {
	return savedAnswer{ID: a.ID, QuestionID: a.QuestionID, Payload: a.Payload, UpdatedAt: a.UpdatedAt}
}
