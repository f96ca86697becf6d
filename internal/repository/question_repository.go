package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/examportal/backend/internal/model"
)

// QuestionRepository handles question data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// ListByExam retrieves the full question pool for an exam, including the
// correct option. Callers delivering questions to clients must strip it.
func (r *QuestionRepository) ListByExam(ctx context.Context, examID int64) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, exam_id, question_text, option_a, option_b, option_c, option_d, correct_option
		 FROM exam_questions WHERE exam_id = $1
		 ORDER BY id`, examID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.ExamID, &q.QuestionText,
			&q.Options[0], &q.Options[1], &q.Options[2], &q.Options[3],
			&q.CorrectOption); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// CorrectOptions returns the authoritative correct option per question id
// for the given exam, restricted to the supplied ids. Ids that do not
// belong to the exam's pool are simply absent from the result.
func (r *QuestionRepository) CorrectOptions(ctx context.Context, examID int64, ids []int64) (map[int64]int, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, correct_option
		 FROM exam_questions
		 WHERE exam_id = $1 AND id = ANY($2)`, examID, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	key := make(map[int64]int, len(ids))
	for rows.Next() {
		var id int64
		var correct int
		if err := rows.Scan(&id, &correct); err != nil {
			return nil, err
		}
		key[id] = correct
	}
	return key, rows.Err()
}
