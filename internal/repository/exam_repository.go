package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/examportal/backend/internal/model"
)

// ExamRepository handles exam data access.
type ExamRepository struct {
	pool *pgxpool.Pool
}

// NewExamRepository creates a new ExamRepository.
func NewExamRepository(pool *pgxpool.Pool) *ExamRepository {
	return &ExamRepository{pool: pool}
}

// GetByID retrieves an exam by id.
func (r *ExamRepository) GetByID(ctx context.Context, id int64) (*model.Exam, error) {
	e := &model.Exam{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, title, subject, duration_minutes, question_count, created_at
		 FROM exams WHERE id = $1`, id,
	).Scan(&e.ID, &e.Title, &e.Subject, &e.DurationMinutes, &e.QuestionCount, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// ListAll returns every exam, ordered by id. Used for cache warming.
func (r *ExamRepository) ListAll(ctx context.Context) ([]model.Exam, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, title, subject, duration_minutes, question_count, created_at
		 FROM exams ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exams []model.Exam
	for rows.Next() {
		var e model.Exam
		if err := rows.Scan(&e.ID, &e.Title, &e.Subject, &e.DurationMinutes, &e.QuestionCount, &e.CreatedAt); err != nil {
			return nil, err
		}
		exams = append(exams, e)
	}
	return exams, rows.Err()
}

// ListForUser returns every exam overlaid with the user's submission
// state. An exam with no submission row is "available"; one with a row
// is "completed" and carries the last recorded percentage and timestamp.
func (r *ExamRepository) ListForUser(ctx context.Context, userID int64) ([]model.ExamListing, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT e.id, e.title, e.subject, e.duration_minutes, e.question_count,
		        s.percentage, s.submitted_at
		 FROM exams e
		 LEFT JOIN exam_submissions s ON s.exam_id = e.id AND s.user_id = $1
		 ORDER BY e.id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var listings []model.ExamListing
	for rows.Next() {
		var l model.ExamListing
		if err := rows.Scan(&l.ID, &l.Title, &l.Subject, &l.DurationMinutes, &l.QuestionCount,
			&l.Score, &l.SubmittedAt); err != nil {
			return nil, err
		}
		if l.Score == nil {
			l.Status = model.ExamStatusAvailable
		} else {
			l.Status = model.ExamStatusCompleted
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}
