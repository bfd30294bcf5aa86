package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/gramtest-backend/internal/response"
	"github.com/stemsi/gramtest-backend/internal/service"
)

// statusFor maps service sentinels to an HTTP status and error code.
func statusFor(err error) (int, response.ErrCode) {
	switch {
	case errors.Is(err, service.ErrTimeExpired):
		return http.StatusConflict, response.ErrTimeExpired
	case errors.Is(err, service.ErrAttemptCompleted):
		return http.StatusConflict, response.ErrAttemptCompleted
	case errors.Is(err, service.ErrAttemptNotFound):
		return http.StatusNotFound, response.ErrAttemptNotFound
	case errors.Is(err, service.ErrTestNotFound):
		return http.StatusNotFound, response.ErrTestNotFound
	case errors.Is(err, service.ErrQuestionNotFound):
		return http.StatusNotFound, response.ErrQuestionNotFound
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, response.ErrForbidden
	case errors.Is(err, service.ErrAccessDenied):
		return http.StatusForbidden, response.ErrAccessDenied
	default:
		return http.StatusInternalServerError, response.ErrInternal
	}
}

// respondError writes the envelope for a service error. A late submission still
// returns the auto-completed attempt so the client can show the result.
func respondError(c *gin.Context, log zerolog.Logger, err error) {
	status, code := statusFor(err)

	var expired *service.TimeExpiredError
	if errors.As(err, &expired) {
		response.FailWithData(c, status, code, gin.H{"attempt": expired.Attempt})
		return
	}

	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.FullPath()).Msg("Request failed")
	}
	response.Fail(c, status, code)
}

// paramID parses a positive int64 route parameter.
func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return 0, false
	}
	return id, true
}
