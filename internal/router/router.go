package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/examportal/backend/internal/config"
	"github.com/examportal/backend/internal/handler"
	"github.com/examportal/backend/internal/middleware"
	"github.com/examportal/backend/internal/response"
	"github.com/examportal/backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth *handler.AuthHandler
	Exam *handler.ExamHandler
	WS   *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
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
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Apply brotli middleware globally.
	router.Use(middleware.Brotli())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for auth routes (30 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/register", handlers.Auth.Register)
		auth.POST("/login", handlers.Auth.Login)
		auth.GET("/me", middleware.RequireAuth(authService), handlers.Auth.Me)
	}

	// ─── 2. Exam Group (JWT) ───────────────────────────────────────────
	examAPI := router.Group("/api/v1/exams")
	examAPI.Use(middleware.RequireAuth(authService))
	{
		examAPI.GET("", handlers.Exam.ListExams)
		examAPI.GET("/:exam_id/questions", handlers.Exam.GetQuestions)
		examAPI.POST("/:exam_id/submissions", handlers.Exam.SubmitExam)
	}

	// ─── 3. WebSocket Group (JWT via ?token) ───────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireAuth(authService))
	{
		ws.GET("/exams/:exam_id/results", handlers.WS.ResultsStream)
	}

	return router
}
