package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/examportal/backend/internal/model"
)

// ErrEmptyAnswers is returned when a submission carries no answer
// entries at all. An all-null answer set is still accepted.
var ErrEmptyAnswers = errors.New("no answers provided")

// AnswerKeySource resolves the authoritative correct options for the
// submitted question ids. *ExamService satisfies it.
type AnswerKeySource interface {
	CorrectOptions(ctx context.Context, examID int64, ids []int64) (map[int64]int, error)
}

// SubmissionStore persists scored attempts. *repository.SubmissionRepository
// satisfies it.
type SubmissionStore interface {
	Upsert(ctx context.Context, s *model.Submission) error
}

// ResultPublisher emits a submission event after scoring. Publishing is
// best effort and never fails the submission itself.
type ResultPublisher interface {
	PublishResult(ctx context.Context, ev model.SubmissionEvent) error
}

// ScoringService computes the authoritative score for one submitted
// attempt and persists exactly one record per (user, exam).
type ScoringService struct {
	exams  ExamSource
	keys   AnswerKeySource
	store  SubmissionStore
	events ResultPublisher
	log    zerolog.Logger
}

// NewScoringService creates a new ScoringService. events may be nil when
// no live results stream is wired (tests, CLI tooling).
func NewScoringService(
	exams ExamSource,
	keys AnswerKeySource,
	store SubmissionStore,
	events ResultPublisher,
	log zerolog.Logger,
) *ScoringService {
	return &ScoringService{
		exams:  exams,
		keys:   keys,
		store:  store,
		events: events,
		log:    log.With().Str("component", "scoring_service").Logger(),
	}
}

// Score grades the submitted answers against the exam's answer key and
// upserts the submission row for (userID, examID).
//
// Policy, deliberately mirroring the listing contract:
//   - one point per answer whose selection exactly equals the correct
//     option; nil (unanswered) selections never match;
//   - answers referencing question ids outside the exam's pool are
//     excluded from the correctness check rather than rejected;
//   - total is the number of submitted answers, not the exam's
//     configured question count, so omissions are not penalized;
//   - percentage is round-half-up of score/total*100.
func (s *ScoringService) Score(ctx context.Context, userID, examID int64, answers []model.Answer, durationSeconds int) (*model.SubmissionResult, error) {
	if len(answers) == 0 {
		return nil, ErrEmptyAnswers
	}

	if _, err := s.exams.GetByID(ctx, examID); err != nil {
		return nil, err
	}

	ids := make([]int64, len(answers))
	for i, a := range answers {
		ids[i] = a.QuestionID
	}

	key, err := s.keys.CorrectOptions(ctx, examID, ids)
	if err != nil {
		return nil, fmt.Errorf("answer key: %w", err)
	}

	score := 0
	for _, a := range answers {
		if a.SelectedOption == nil {
			continue
		}
		if correct, ok := key[a.QuestionID]; ok && correct == *a.SelectedOption {
			score++
		}
	}

	total := len(answers)
	percentage := int(math.Round(float64(score) / float64(total) * 100))

	submission := &model.Submission{
		UserID:          userID,
		ExamID:          examID,
		Score:           score,
		Total:           total,
		Percentage:      percentage,
		DurationSeconds: durationSeconds,
	}

	if err := s.store.Upsert(ctx, submission); err != nil {
		return nil, fmt.Errorf("persist submission: %w", err)
	}

	s.log.Info().
		Int64("user_id", userID).
		Int64("exam_id", examID).
		Int("score", score).
		Int("total", total).
		Int("percentage", percentage).
		Msg("Submission scored")

	if s.events != nil {
		ev := model.SubmissionEvent{
			UserID:      userID,
			ExamID:      examID,
			Score:       score,
			Percentage:  percentage,
			Total:       total,
			SubmittedAt: submission.SubmittedAt,
		}
		if err := s.events.PublishResult(ctx, ev); err != nil {
			s.log.Warn().Err(err).Msg("Failed to publish submission event")
		}
	}

	return &model.SubmissionResult{
		Score:      score,
		Percentage: percentage,
		Total:      total,
	}, nil
}
