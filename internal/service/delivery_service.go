package service

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/rs/zerolog"

	"github.com/examportal/backend/internal/model"
)

// ExamSource resolves exam headers. *ExamService satisfies it.
type ExamSource interface {
	GetByID(ctx context.Context, id int64) (*model.Exam, error)
}

// PoolSource provides the stripped question pool for an exam.
// *ExamService satisfies it.
type PoolSource interface {
	QuestionPool(ctx context.Context, exam *model.Exam) ([]model.DeliveryQuestion, error)
}

// DeliveryService is the question selector: it draws the randomized,
// fixed-size question subset served for one exam-taking attempt.
type DeliveryService struct {
	exams ExamSource
	pool  PoolSource
	log   zerolog.Logger
}

// NewDeliveryService creates a new DeliveryService.
func NewDeliveryService(exams ExamSource, pool PoolSource, log zerolog.Logger) *DeliveryService {
	return &DeliveryService{
		exams: exams,
		pool:  pool,
		log:   log.With().Str("component", "delivery_service").Logger(),
	}
}

// SelectQuestions draws a fresh randomized subset of the exam's question
// pool sized min(exam.QuestionCount, pool size), with no duplicates and
// correct answers stripped. Read-only: nothing is marked in progress and
// no ordering is persisted; two calls may and should differ.
// Returns ErrExamNotFound for an unknown exam id.
func (s *DeliveryService) SelectQuestions(ctx context.Context, examID int64) (*model.ExamPaper, error) {
	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		return nil, err
	}

	pool, err := s.pool.QuestionPool(ctx, exam)
	if err != nil {
		return nil, fmt.Errorf("question pool: %w", err)
	}

	// Degrade gracefully: a pool smaller than the configured count
	// delivers everything it has.
	count := exam.QuestionCount
	if count > len(pool) {
		count = len(pool)
	}

	selected := make([]model.DeliveryQuestion, 0, count)
	for _, idx := range rand.Perm(len(pool))[:count] {
		selected = append(selected, pool[idx])
	}

	s.log.Debug().
		Int64("exam_id", examID).
		Int("pool", len(pool)).
		Int("delivered", count).
		Msg("Question subset selected")

	return &model.ExamPaper{
		Exam: model.ExamHeader{
			ID:              exam.ID,
			Title:           exam.Title,
			DurationMinutes: exam.DurationMinutes,
		},
		Questions: selected,
	}, nil
}
