package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/gramtest-backend/internal/metrics"
	"github.com/stemsi/gramtest-backend/internal/middleware"
	"github.com/stemsi/gramtest-backend/internal/response"
	"github.com/stemsi/gramtest-backend/internal/service"
	"github.com/stemsi/gramtest-backend/internal/validator"
	ws "github.com/stemsi/gramtest-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams autosave, heartbeat and submit actions for one attempt.
type WSHandler struct {
	manager  *service.AttemptManager
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(manager *service.AttemptManager, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		manager:  manager,
		log:      log.With().Str("component", "ws_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// AttemptStream godoc
// WS /ws/v1/student/attempts/:attempt_id/stream?token=...
// Upgrades to WebSocket for autosave and heartbeats while the attempt is running.
func (h *WSHandler) AttemptStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	attemptID, ok := paramID(c, "attempt_id")
	if !ok {
		return
	}
	studentID := claims.UserID

	// Ownership is checked before the upgrade so the client gets a normal HTTP error.
	attempt, err := h.manager.GetAttempt(c.Request.Context(), studentID, attemptID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if attempt.IsCompleted {
		response.Fail(c, http.StatusConflict, response.ErrAttemptCompleted)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	metrics.ActiveStreams.Inc()
	defer metrics.ActiveStreams.Dec()

	wsLog := h.log.With().
		Int("student_id", studentID).
		Int64("attempt_id", attemptID).
		Logger()

	wsLog.Info().Msg("Student connected")

	ctx := c.Request.Context()
	for {
		var msg ws.RequestPayload
		err := ws.ReadJSON(conn, &msg)
		if err != nil {
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
				ws.WriteError(conn, string(response.ErrInvalidPayload), "malformed message")
				continue
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		var done bool
		switch msg.Action {
		case ws.ActionAutosave:
			done = h.handleAutosave(ctx, conn, wsLog, studentID, attemptID, &msg)
		case ws.ActionHeartbeat:
			done = h.handleHeartbeat(ctx, conn, wsLog, studentID, attemptID, &msg)
		case ws.ActionSubmit:
			done = h.handleSubmit(ctx, conn, wsLog, studentID, attemptID)
		case ws.ActionPing:
			ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
		default:
			wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			ws.WriteError(conn, string(response.ErrInvalidPayload), "unknown action: "+string(msg.Action))
		}
		if done {
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "attempt completed"),
				ws.CloseDeadline())
			return
		}
	}
}

// handleAutosave saves one answer. It reports true when the attempt has ended.
func (h *WSHandler) handleAutosave(ctx context.Context, conn *websocket.Conn, wsLog zerolog.Logger, studentID int, attemptID int64, msg *ws.RequestPayload) bool {
	if msg.QuestionID <= 0 || msg.Answer == nil {
		ws.WriteError(conn, string(response.ErrValidation), "question_id and answer are required")
		return false
	}
	if err := binding.Validator.ValidateStruct(msg.Answer); err != nil {
		ws.WriteError(conn, string(response.ErrValidation), joinFields(validator.TranslateErrors(err)))
		return false
	}

	_, err := h.manager.SubmitAnswer(ctx, studentID, attemptID, msg.QuestionID, msg.Answer.Payload())
	if err != nil {
		return h.writeFailure(conn, wsLog, err)
	}

	metrics.AnswersSaved.WithLabelValues("ws").Inc()
	ws.WriteTyped(conn, ws.SavedResponse{Event: ws.EventSaved, QuestionID: msg.QuestionID})
	return false
}

// handleHeartbeat stores the client countdown and echoes the authoritative time left.
func (h *WSHandler) handleHeartbeat(ctx context.Context, conn *websocket.Conn, wsLog zerolog.Logger, studentID int, attemptID int64, msg *ws.RequestPayload) bool {
	if msg.RemainingSeconds == nil {
		ws.WriteError(conn, string(response.ErrValidation), "remaining_seconds is required")
		return false
	}

	left, err := h.manager.Heartbeat(ctx, studentID, attemptID, *msg.RemainingSeconds)
	if err != nil {
		return h.writeFailure(conn, wsLog, err)
	}

	ws.WriteTyped(conn, ws.HeartbeatResponse{Event: ws.EventHeartbeat, RemainingSeconds: left})
	return false
}

// handleSubmit grades the attempt and sends the result.
func (h *WSHandler) handleSubmit(ctx context.Context, conn *websocket.Conn, wsLog zerolog.Logger, studentID int, attemptID int64) bool {
	attempt, err := h.manager.Complete(ctx, studentID, attemptID)
	if err != nil {
		return h.writeFailure(conn, wsLog, err)
	}

	wsLog.Info().
		Int("score", attempt.Score).
		Int("max_score", attempt.MaxScore).
		Int("grade", attempt.Grade).
		Msg("Attempt submitted over WebSocket")
	ws.WriteTyped(conn, ws.CompletedResponse{Event: ws.EventCompleted, Attempt: attempt})
	return true
}

// writeFailure reports a service error to the client. It reports true when the
// attempt is over and the stream should close.
func (h *WSHandler) writeFailure(conn *websocket.Conn, wsLog zerolog.Logger, err error) bool {
	var expired *service.TimeExpiredError
	if errors.As(err, &expired) {
		ws.WriteTyped(conn, ws.CompletedResponse{Event: ws.EventExpired, Attempt: expired.Attempt})
		return true
	}

	status, code := statusFor(err)
	if status == http.StatusInternalServerError {
		wsLog.Error().Err(err).Msg("Stream action failed")
	}
	ws.WriteError(conn, string(code), response.GetMessage(code))
	return errors.Is(err, service.ErrAttemptCompleted)
}

func joinFields(fields map[string]string) string {
	parts := make([]string, 0, len(fields))
	for _, msg := range fields {
		parts = append(parts, msg)
	}
	sort.Strings(parts)
	return strings.Join(parts, "; ")
}
