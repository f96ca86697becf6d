package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/examportal/backend/internal/config"
	"github.com/examportal/backend/internal/database"
	"github.com/examportal/backend/internal/handler"
	"github.com/examportal/backend/internal/logger"
	"github.com/examportal/backend/internal/repository"
	"github.com/examportal/backend/internal/router"
	"github.com/examportal/backend/internal/service"
	"github.com/examportal/backend/internal/validator"
	"github.com/examportal/backend/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting Exam Portal API")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	userRepo := repository.NewUserRepository(pool)
	examRepo := repository.NewExamRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	submissionRepo := repository.NewSubmissionRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg)
	userService := service.NewUserService(userRepo)
	examService := service.NewExamService(examRepo, questionRepo, rdb, log)
	deliveryService := service.NewDeliveryService(examService, examService, log)
	scoringService := service.NewScoringService(
		examService,
		examService,
		submissionRepo,
		service.NewRedisResultPublisher(rdb),
		log,
	)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth: handler.NewAuthHandler(authService, userService),
		Exam: handler.NewExamHandler(examService, deliveryService, scoringService),
		WS:   handler.NewWSHandler(rdb, examService, log, cfg.AllowedOrigins),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	// The warm worker performs the startup warm pass itself, so the fast
	// lane is populated before meaningful traffic arrives.
	workerCtx, workerCancel := context.WithCancel(context.Background())

	warmWorker := worker.NewCacheWarmWorker(examService, cfg.CacheWarmTick, log)
	relayWorker := worker.NewResultRelayWorker(rdb, log)

	go warmWorker.Start(workerCtx)
	go relayWorker.Start(workerCtx)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop background workers and wait for the relay queue to drain.
	workerCancel()
	time.Sleep(2 * time.Second)

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
