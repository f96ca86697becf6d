package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/examportal/backend/internal/config"
	"github.com/examportal/backend/internal/model"
	"github.com/examportal/backend/internal/repository"
)

// Domain errors.
var (
	ErrExamNotFound = errors.New("exam not found")
	ErrNoQuestions  = errors.New("exam has no questions")
)

// examPoolPayload is the Redis-cached question pool for one exam, with
// correct answers stripped. The answer key lives in a separate hash.
type examPoolPayload struct {
	Exam      model.ExamHeader         `json:"exam"`
	Questions []model.DeliveryQuestion `json:"questions"`
}

// ExamService handles exam reads, the per-user listing projection, and
// the Redis fast lane (pool payload + answer-key hash).
type ExamService struct {
	examRepo     *repository.ExamRepository
	questionRepo *repository.QuestionRepository
	rdb          *redis.Client
	log          zerolog.Logger
}

// NewExamService creates a new ExamService.
func NewExamService(
	examRepo *repository.ExamRepository,
	questionRepo *repository.QuestionRepository,
	rdb *redis.Client,
	log zerolog.Logger,
) *ExamService {
	return &ExamService{
		examRepo:     examRepo,
		questionRepo: questionRepo,
		rdb:          rdb,
		log:          log.With().Str("component", "exam_service").Logger(),
	}
}

// GetByID retrieves an exam by id, mapping missing rows to ErrExamNotFound.
func (s *ExamService) GetByID(ctx context.Context, id int64) (*model.Exam, error) {
	exam, err := s.examRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("get exam: %w", err)
	}
	return exam, nil
}

// ListForUser returns all exams with the user's completion status overlay.
func (s *ExamService) ListForUser(ctx context.Context, userID int64) ([]model.ExamListing, error) {
	listings, err := s.examRepo.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list exams: %w", err)
	}
	if listings == nil {
		listings = []model.ExamListing{}
	}
	return listings, nil
}

// WarmExamCache loads an exam's stripped question pool and answer key
// from PostgreSQL into Redis. Core cache-warming logic shared by the
// warm worker and the on-miss self-heal path.
func (s *ExamService) WarmExamCache(ctx context.Context, exam *model.Exam) error {
	questions, err := s.questionRepo.ListByExam(ctx, exam.ID)
	if err != nil {
		return fmt.Errorf("list questions: %w", err)
	}
	if len(questions) == 0 {
		return ErrNoQuestions
	}

	payload := examPoolPayload{
		Exam: model.ExamHeader{
			ID:              exam.ID,
			Title:           exam.Title,
			DurationMinutes: exam.DurationMinutes,
		},
		Questions: make([]model.DeliveryQuestion, len(questions)),
	}
	answerKey := make(map[string]interface{}, len(questions))
	for i := range questions {
		payload.Questions[i] = questions[i].Delivery()
		answerKey[strconv.FormatInt(questions[i].ID, 10)] = questions[i].CorrectOption
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal pool payload: %w", err)
	}

	// Cache both atomically via pipeline.
	pipe := s.rdb.Pipeline()
	pipe.Set(ctx, config.CacheKey.ExamPoolKey(exam.ID), payloadJSON, 0)
	pipe.Del(ctx, config.CacheKey.ExamAnswerKey(exam.ID))
	pipe.HSet(ctx, config.CacheKey.ExamAnswerKey(exam.ID), answerKey)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache to redis: %w", err)
	}

	s.log.Debug().
		Int64("exam_id", exam.ID).
		Int("questions", len(questions)).
		Msg("Cache warmed")
	return nil
}

// WarmAllCaches loads every exam's pool and answer key into Redis.
// Called on startup and periodically by the cache warm worker.
func (s *ExamService) WarmAllCaches(ctx context.Context) error {
	exams, err := s.examRepo.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("list exams: %w", err)
	}

	warmed := 0
	for i := range exams {
		if err := s.WarmExamCache(ctx, &exams[i]); err != nil {
			s.log.Warn().
				Err(err).
				Int64("exam_id", exams[i].ID).
				Msg("Failed to warm exam, skipping")
			continue
		}
		warmed++
	}

	s.log.Info().
		Int("warmed", warmed).
		Int("total", len(exams)).
		Msg("Cache warm pass complete")
	return nil
}

// QuestionPool returns the stripped question pool for an exam, preferring
// the Redis payload and falling back to PostgreSQL on a miss. The cache
// is re-warmed on a miss so the next request hits the fast lane.
func (s *ExamService) QuestionPool(ctx context.Context, exam *model.Exam) ([]model.DeliveryQuestion, error) {
	data, err := s.rdb.Get(ctx, config.CacheKey.ExamPoolKey(exam.ID)).Bytes()
	if err == nil {
		var payload examPoolPayload
		if err := json.Unmarshal(data, &payload); err == nil {
			return payload.Questions, nil
		}
		s.log.Warn().Int64("exam_id", exam.ID).Msg("Corrupt pool payload in cache, falling back to database")
	} else if !errors.Is(err, redis.Nil) {
		s.log.Warn().Err(err).Int64("exam_id", exam.ID).Msg("Redis pool read failed, falling back to database")
	}

	questions, err := s.questionRepo.ListByExam(ctx, exam.ID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}

	pool := make([]model.DeliveryQuestion, len(questions))
	for i := range questions {
		pool[i] = questions[i].Delivery()
	}

	// Self-heal so the next request is served from Redis.
	if err := s.WarmExamCache(ctx, exam); err != nil && !errors.Is(err, ErrNoQuestions) {
		s.log.Warn().Err(err).Int64("exam_id", exam.ID).Msg("Cache self-heal failed")
	}

	return pool, nil
}

// CorrectOptions returns the authoritative correct option for each of the
// submitted question ids that belongs to the exam's pool. Foreign ids are
// absent from the result. Reads the Redis answer-key hash first and falls
// back to PostgreSQL when the hash is missing or unreadable.
func (s *ExamService) CorrectOptions(ctx context.Context, examID int64, ids []int64) (map[int64]int, error) {
	stored, err := s.rdb.HGetAll(ctx, config.CacheKey.ExamAnswerKey(examID)).Result()
	if err == nil && len(stored) > 0 {
		key := make(map[int64]int, len(ids))
		for _, id := range ids {
			raw, ok := stored[strconv.FormatInt(id, 10)]
			if !ok {
				continue
			}
			correct, convErr := strconv.Atoi(raw)
			if convErr != nil {
				return nil, fmt.Errorf("corrupt answer key entry for question %d: %w", id, convErr)
			}
			key[id] = correct
		}
		return key, nil
	}
	if err != nil {
		s.log.Warn().Err(err).Int64("exam_id", examID).Msg("Redis answer key read failed, falling back to database")
	}

	key, err := s.questionRepo.CorrectOptions(ctx, examID, ids)
	if err != nil {
		return nil, fmt.Errorf("load answer key: %w", err)
	}
	return key, nil
}
