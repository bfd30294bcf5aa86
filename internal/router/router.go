package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stemsi/gramtest-backend/internal/config"
	"github.com/stemsi/gramtest-backend/internal/handler"
	"github.com/stemsi/gramtest-backend/internal/middleware"
	"github.com/stemsi/gramtest-backend/internal/response"
	"github.com/stemsi/gramtest-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Attempt *handler.AttemptHandler
	WS      *handler.WSHandler
	Teacher *handler.TeacherHandler
}

// Deps are the non-handler collaborators routes need.
type Deps struct {
	Auth    *service.AuthService
	Catalog middleware.TestLookup
	// AnswerLimiter throttles answer writes per student. Nil disables throttling.
	AnswerLimiter *middleware.RateLimiter
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(deps Deps, handlers *Handlers, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.Metrics())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	var answerLimit gin.HandlerFunc = func(c *gin.Context) { c.Next() }
	if deps.AnswerLimiter != nil {
		answerLimit = deps.AnswerLimiter.Middleware()
	}

	// ─── 1. Student Group (JWT) ────────────────────────────────────────
	studentAPI := router.Group("/api/v1/student")
	studentAPI.Use(middleware.RequireStudentJWT(deps.Auth), middleware.NoStore(), middleware.Brotli())
	{
		studentAPI.POST("/tests/:test_id/attempts", handlers.Attempt.StartAttempt)
		studentAPI.GET("/tests/:test_id/attempts", handlers.Attempt.ListAttempts)
		studentAPI.GET("/tests/:test_id/attempts/count", handlers.Attempt.CountAttempts)
		studentAPI.GET("/tests/:test_id/attempts/best", handlers.Attempt.BestAttempt)
		studentAPI.GET("/tests/:test_id/attempts/latest", handlers.Attempt.LatestAttempt)

		studentAPI.GET("/attempts/:attempt_id", handlers.Attempt.GetAttemptState)
		studentAPI.PUT("/attempts/:attempt_id/answers/:question_id", answerLimit, handlers.Attempt.SubmitAnswer)
		studentAPI.POST("/attempts/:attempt_id/pause", handlers.Attempt.PauseAttempt)
		studentAPI.POST("/attempts/:attempt_id/complete", handlers.Attempt.CompleteAttempt)
	}

	// ─── 2. WebSocket Group (Student WS Auth) ──────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireStudentWSAuth(deps.Auth))
	{
		ws.GET("/student/attempts/:attempt_id/stream", handlers.WS.AttemptStream)
	}

	// ─── 3. Teacher Group (JWT + ownership) ────────────────────────────
	teacherAPI := router.Group("/api/v1/teacher")
	teacherAPI.Use(middleware.RequireTeacherJWT(deps.Auth))
	{
		teacherAPI.GET("/tests/:test_id/activity",
			middleware.RequireTestOwner(deps.Catalog, "test_id"),
			handlers.Teacher.TestActivitySSE,
		)
		// Ownership of the attempt's test is checked by the service.
		teacherAPI.POST("/attempts/:attempt_id/recompute", handlers.Teacher.RecomputeAttempt)
	}

	return router
}
