package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/examportal/backend/internal/config"
	"github.com/examportal/backend/internal/model"
)

// RedisResultPublisher pushes submission events onto the Redis worker
// queue consumed by the result relay worker.
type RedisResultPublisher struct {
	rdb *redis.Client
}

// NewRedisResultPublisher creates a new RedisResultPublisher.
func NewRedisResultPublisher(rdb *redis.Client) *RedisResultPublisher {
	return &RedisResultPublisher{rdb: rdb}
}

// PublishResult enqueues a submission event.
func (p *RedisResultPublisher) PublishResult(ctx context.Context, ev model.SubmissionEvent) error {
	raw, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return p.rdb.RPush(ctx, config.WorkerKey.SubmissionEventsQueue, raw).Err()
}
