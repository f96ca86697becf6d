package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/examportal/backend/internal/model"
)

// SubmissionRepository handles scored-attempt persistence.
type SubmissionRepository struct {
	pool *pgxpool.Pool
}

// NewSubmissionRepository creates a new SubmissionRepository.
func NewSubmissionRepository(pool *pgxpool.Pool) *SubmissionRepository {
	return &SubmissionRepository{pool: pool}
}

// Upsert inserts or replaces the submission for (user, exam) in a single
// atomic statement. The unique index on (user_id, exam_id) guarantees at
// most one row per pair even under concurrent submissions; the last
// write wins and the timestamp is refreshed on every overwrite.
func (r *SubmissionRepository) Upsert(ctx context.Context, s *model.Submission) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO exam_submissions (user_id, exam_id, score_value, total_questions, percentage, duration_seconds, submitted_at)
		 VALUES ($1, $2, $3, $4, $5, $6, NOW())
		 ON CONFLICT (user_id, exam_id) DO UPDATE SET
		   score_value      = EXCLUDED.score_value,
		   total_questions  = EXCLUDED.total_questions,
		   percentage       = EXCLUDED.percentage,
		   duration_seconds = EXCLUDED.duration_seconds,
		   submitted_at     = NOW()
		 RETURNING submitted_at`,
		s.UserID, s.ExamID, s.Score, s.Total, s.Percentage, s.DurationSeconds,
	).Scan(&s.SubmittedAt)
}

// GetByUserAndExam retrieves the stored submission for (user, exam).
func (r *SubmissionRepository) GetByUserAndExam(ctx context.Context, userID, examID int64) (*model.Submission, error) {
	s := &model.Submission{}
	err := r.pool.QueryRow(ctx,
		`SELECT user_id, exam_id, score_value, total_questions, percentage, duration_seconds, submitted_at
		 FROM exam_submissions WHERE user_id = $1 AND exam_id = $2`,
		userID, examID,
	).Scan(&s.UserID, &s.ExamID, &s.Score, &s.Total, &s.Percentage, &s.DurationSeconds, &s.SubmittedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}
