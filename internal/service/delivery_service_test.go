package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/examportal/backend/internal/model"
)

type fakeExamSource struct {
	exams map[int64]*model.Exam
}

func (f *fakeExamSource) GetByID(_ context.Context, id int64) (*model.Exam, error) {
	exam, ok := f.exams[id]
	if !ok {
		return nil, ErrExamNotFound
	}
	return exam, nil
}

type fakePoolSource struct {
	pool []model.DeliveryQuestion
	err  error
}

func (f *fakePoolSource) QuestionPool(_ context.Context, _ *model.Exam) ([]model.DeliveryQuestion, error) {
	return f.pool, f.err
}

func makePool(n int) []model.DeliveryQuestion {
	pool := make([]model.DeliveryQuestion, n)
	for i := range pool {
		pool[i] = model.DeliveryQuestion{
			ID:       int64(i + 1),
			Question: "q",
			Options:  [4]string{"a", "b", "c", "d"},
		}
	}
	return pool
}

func TestSelectQuestionsSize(t *testing.T) {
	tests := []struct {
		name      string
		poolSize  int
		count     int
		wantCount int
	}{
		{"pool larger than count", 20, 5, 5},
		{"pool equals count", 5, 5, 5},
		{"pool smaller than count", 3, 10, 3},
		{"empty pool", 0, 10, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exams := &fakeExamSource{exams: map[int64]*model.Exam{
				1: {ID: 1, Title: "Algebra", DurationMinutes: 30, QuestionCount: tt.count},
			}}
			pool := &fakePoolSource{pool: makePool(tt.poolSize)}
			svc := NewDeliveryService(exams, pool, zerolog.Nop())

			paper, err := svc.SelectQuestions(context.Background(), 1)
			if err != nil {
				t.Fatalf("SelectQuestions: %v", err)
			}
			if len(paper.Questions) != tt.wantCount {
				t.Errorf("delivered %d questions, want %d", len(paper.Questions), tt.wantCount)
			}

			seen := make(map[int64]bool, len(paper.Questions))
			for _, q := range paper.Questions {
				if seen[q.ID] {
					t.Errorf("question %d delivered twice", q.ID)
				}
				seen[q.ID] = true
			}
		})
	}
}

func TestSelectQuestionsHeader(t *testing.T) {
	exams := &fakeExamSource{exams: map[int64]*model.Exam{
		1: {ID: 1, Title: "Algebra", DurationMinutes: 45, QuestionCount: 2},
	}}
	svc := NewDeliveryService(exams, &fakePoolSource{pool: makePool(4)}, zerolog.Nop())

	paper, err := svc.SelectQuestions(context.Background(), 1)
	if err != nil {
		t.Fatalf("SelectQuestions: %v", err)
	}
	if paper.Exam.ID != 1 || paper.Exam.Title != "Algebra" || paper.Exam.DurationMinutes != 45 {
		t.Errorf("header = %+v, want exam fields carried through", paper.Exam)
	}
}

func TestSelectQuestionsUnknownExam(t *testing.T) {
	svc := NewDeliveryService(&fakeExamSource{}, &fakePoolSource{}, zerolog.Nop())

	_, err := svc.SelectQuestions(context.Background(), 99)
	if !errors.Is(err, ErrExamNotFound) {
		t.Errorf("err = %v, want ErrExamNotFound", err)
	}
}

func TestSelectQuestionsPoolError(t *testing.T) {
	exams := &fakeExamSource{exams: map[int64]*model.Exam{
		1: {ID: 1, QuestionCount: 5},
	}}
	pool := &fakePoolSource{err: errors.New("redis down")}
	svc := NewDeliveryService(exams, pool, zerolog.Nop())

	if _, err := svc.SelectQuestions(context.Background(), 1); err == nil {
		t.Error("expected pool error to propagate")
	}
}
