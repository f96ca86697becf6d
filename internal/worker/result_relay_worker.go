package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/examportal/backend/internal/config"
	"github.com/examportal/backend/internal/model"
)

const RelayPollTimeout = 1 * time.Second

// ResultRelayWorker drains the submission events queue and fans each
// event out to the exam's live results pub/sub channel, with an audit
// line per event. Queue + relay decouples scoring latency from any
// number of connected result streams.
type ResultRelayWorker struct {
	rdb *redis.Client
	log zerolog.Logger
}

func NewResultRelayWorker(rdb *redis.Client, log zerolog.Logger) *ResultRelayWorker {
	return &ResultRelayWorker{
		rdb: rdb,
		log: log.With().Str("component", "result_relay_worker").Logger(),
	}
}

func (w *ResultRelayWorker) Start(ctx context.Context) {
	w.log.Info().Msg("ResultRelayWorker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("ResultRelayWorker stopped")
			return
		default:
			item, err := w.rdb.BLPop(ctx, RelayPollTimeout, config.WorkerKey.SubmissionEventsQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			var ev model.SubmissionEvent
			if err := json.Unmarshal([]byte(item[1]), &ev); err != nil {
				w.log.Error().Err(err).Msg("Invalid JSON payload, dropping event")
				continue
			}

			w.relay(ctx, item[1], &ev)
		}
	}
}

func (w *ResultRelayWorker) relay(ctx context.Context, raw string, ev *model.SubmissionEvent) {
	channel := config.CacheKey.ExamResultsChannel(ev.ExamID)
	if err := w.rdb.Publish(ctx, channel, raw).Err(); err != nil {
		w.log.Error().Err(err).Msg("Publish failed, requeueing")
		w.rdb.RPush(ctx, config.WorkerKey.SubmissionEventsQueue, raw)
		return
	}

	w.log.Info().
		Int64("user_id", ev.UserID).
		Int64("exam_id", ev.ExamID).
		Int("score", ev.Score).
		Int("percentage", ev.Percentage).
		Int("total", ev.Total).
		Msg("Submission relayed")
}
