package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/examportal/backend/internal/service"
)

// CacheWarmWorker keeps the Redis fast lane (exam pools + answer keys)
// in sync with PostgreSQL. Exams are administered out of band, so the
// cache is refreshed on a fixed interval rather than on a publish event.
type CacheWarmWorker struct {
	examService *service.ExamService
	interval    time.Duration
	log         zerolog.Logger
}

func NewCacheWarmWorker(examService *service.ExamService, interval time.Duration, log zerolog.Logger) *CacheWarmWorker {
	return &CacheWarmWorker{
		examService: examService,
		interval:    interval,
		log:         log.With().Str("component", "cache_warm_worker").Logger(),
	}
}

// Start runs an immediate warm pass, then one per interval until the
// context is cancelled.
func (w *CacheWarmWorker) Start(ctx context.Context) {
	w.log.Info().Dur("interval", w.interval).Msg("CacheWarmWorker started")

	if err := w.examService.WarmAllCaches(ctx); err != nil {
		w.log.Warn().Err(err).Msg("Initial cache warm failed")
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("CacheWarmWorker stopped")
			return
		case <-ticker.C:
			if err := w.examService.WarmAllCaches(ctx); err != nil {
				w.log.Warn().Err(err).Msg("Periodic cache warm failed")
			}
		}
	}
}
