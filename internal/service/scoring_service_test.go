package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/examportal/backend/internal/model"
)

type fakeAnswerKey struct {
	key map[int64]int
	err error
}

func (f *fakeAnswerKey) CorrectOptions(_ context.Context, _ int64, ids []int64) (map[int64]int, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[int64]int, len(ids))
	for _, id := range ids {
		if correct, ok := f.key[id]; ok {
			out[id] = correct
		}
	}
	return out, nil
}

type fakeSubmissionStore struct {
	upserts []*model.Submission
	err     error
}

func (f *fakeSubmissionStore) Upsert(_ context.Context, s *model.Submission) error {
	if f.err != nil {
		return f.err
	}
	f.upserts = append(f.upserts, s)
	return nil
}

type fakePublisher struct {
	events []model.SubmissionEvent
	err    error
}

func (f *fakePublisher) PublishResult(_ context.Context, ev model.SubmissionEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, ev)
	return nil
}

func intPtr(v int) *int { return &v }

func newScoringFixture(key map[int64]int) (*ScoringService, *fakeSubmissionStore, *fakePublisher) {
	exams := &fakeExamSource{exams: map[int64]*model.Exam{
		1: {ID: 1, Title: "Algebra", QuestionCount: 10},
	}}
	store := &fakeSubmissionStore{}
	pub := &fakePublisher{}
	svc := NewScoringService(exams, &fakeAnswerKey{key: key}, store, pub, zerolog.Nop())
	return svc, store, pub
}

func TestScore(t *testing.T) {
	key := map[int64]int{101: 1, 102: 2}

	tests := []struct {
		name    string
		answers []model.Answer
		want    model.SubmissionResult
	}{
		{
			name: "one correct one wrong",
			answers: []model.Answer{
				{QuestionID: 101, SelectedOption: intPtr(1)},
				{QuestionID: 102, SelectedOption: intPtr(0)},
			},
			want: model.SubmissionResult{Score: 1, Percentage: 50, Total: 2},
		},
		{
			name: "all correct",
			answers: []model.Answer{
				{QuestionID: 101, SelectedOption: intPtr(1)},
				{QuestionID: 102, SelectedOption: intPtr(2)},
			},
			want: model.SubmissionResult{Score: 2, Percentage: 100, Total: 2},
		},
		{
			name:    "single null answer",
			answers: []model.Answer{{QuestionID: 101, SelectedOption: nil}},
			want:    model.SubmissionResult{Score: 0, Percentage: 0, Total: 1},
		},
		{
			name: "all nulls",
			answers: []model.Answer{
				{QuestionID: 101, SelectedOption: nil},
				{QuestionID: 102, SelectedOption: nil},
			},
			want: model.SubmissionResult{Score: 0, Percentage: 0, Total: 2},
		},
		{
			name: "foreign question id excluded not rejected",
			answers: []model.Answer{
				{QuestionID: 101, SelectedOption: intPtr(1)},
				{QuestionID: 999, SelectedOption: intPtr(1)},
			},
			want: model.SubmissionResult{Score: 1, Percentage: 50, Total: 2},
		},
		{
			name: "percentage rounds half up",
			answers: []model.Answer{
				{QuestionID: 101, SelectedOption: intPtr(1)},
				{QuestionID: 102, SelectedOption: intPtr(0)},
				{QuestionID: 998, SelectedOption: nil},
			},
			// 1/3 → 33.33 → 33
			want: model.SubmissionResult{Score: 1, Percentage: 33, Total: 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store, _ := newScoringFixture(key)

			got, err := svc.Score(context.Background(), 5, 1, tt.answers, 120)
			if err != nil {
				t.Fatalf("Score: %v", err)
			}
			if *got != tt.want {
				t.Errorf("result = %+v, want %+v", *got, tt.want)
			}

			if len(store.upserts) != 1 {
				t.Fatalf("upserts = %d, want 1", len(store.upserts))
			}
			sub := store.upserts[0]
			if sub.UserID != 5 || sub.ExamID != 1 {
				t.Errorf("submission keyed (%d, %d), want (5, 1)", sub.UserID, sub.ExamID)
			}
			if sub.Score != tt.want.Score || sub.Total != tt.want.Total || sub.Percentage != tt.want.Percentage {
				t.Errorf("persisted %+v, want %+v", sub, tt.want)
			}
			if sub.DurationSeconds != 120 {
				t.Errorf("duration = %d, want 120", sub.DurationSeconds)
			}
		})
	}
}

func TestScoreEmptyAnswers(t *testing.T) {
	svc, store, _ := newScoringFixture(map[int64]int{101: 1})

	for _, answers := range [][]model.Answer{nil, {}} {
		if _, err := svc.Score(context.Background(), 5, 1, answers, 0); !errors.Is(err, ErrEmptyAnswers) {
			t.Errorf("Score(%v) = %v, want ErrEmptyAnswers", answers, err)
		}
	}
	if len(store.upserts) != 0 {
		t.Errorf("upserts = %d, want none for empty submissions", len(store.upserts))
	}
}

func TestScoreUnknownExam(t *testing.T) {
	svc, _, _ := newScoringFixture(nil)

	answers := []model.Answer{{QuestionID: 101, SelectedOption: intPtr(1)}}
	if _, err := svc.Score(context.Background(), 5, 99, answers, 0); !errors.Is(err, ErrExamNotFound) {
		t.Errorf("err = %v, want ErrExamNotFound", err)
	}
}

func TestScoreResubmissionOverwrites(t *testing.T) {
	svc, store, _ := newScoringFixture(map[int64]int{101: 1})

	first := []model.Answer{{QuestionID: 101, SelectedOption: intPtr(1)}}
	if _, err := svc.Score(context.Background(), 5, 1, first, 30); err != nil {
		t.Fatalf("first Score: %v", err)
	}

	second := []model.Answer{{QuestionID: 101, SelectedOption: intPtr(0)}}
	got, err := svc.Score(context.Background(), 5, 1, second, 45)
	if err != nil {
		t.Fatalf("second Score: %v", err)
	}
	if got.Score != 0 || got.Percentage != 0 {
		t.Errorf("resubmission result = %+v, want zero score", got)
	}

	// Both attempts hit the same (user, exam) key; the store's upsert is
	// what collapses them to one row.
	if len(store.upserts) != 2 {
		t.Fatalf("upserts = %d, want 2", len(store.upserts))
	}
	for _, sub := range store.upserts {
		if sub.UserID != 5 || sub.ExamID != 1 {
			t.Errorf("submission keyed (%d, %d), want (5, 1)", sub.UserID, sub.ExamID)
		}
	}
}

func TestScorePersistFailure(t *testing.T) {
	exams := &fakeExamSource{exams: map[int64]*model.Exam{1: {ID: 1}}}
	store := &fakeSubmissionStore{err: errors.New("db down")}
	svc := NewScoringService(exams, &fakeAnswerKey{key: map[int64]int{101: 1}}, store, nil, zerolog.Nop())

	answers := []model.Answer{{QuestionID: 101, SelectedOption: intPtr(1)}}
	if _, err := svc.Score(context.Background(), 5, 1, answers, 0); err == nil {
		t.Error("expected persistence error to propagate")
	}
}

func TestScorePublishesEvent(t *testing.T) {
	svc, _, pub := newScoringFixture(map[int64]int{101: 1})

	answers := []model.Answer{{QuestionID: 101, SelectedOption: intPtr(1)}}
	if _, err := svc.Score(context.Background(), 5, 1, answers, 0); err != nil {
		t.Fatalf("Score: %v", err)
	}

	if len(pub.events) != 1 {
		t.Fatalf("events = %d, want 1", len(pub.events))
	}
	ev := pub.events[0]
	if ev.UserID != 5 || ev.ExamID != 1 || ev.Score != 1 || ev.Percentage != 100 {
		t.Errorf("event = %+v, want scored attempt", ev)
	}
}

func TestScorePublishFailureIsBestEffort(t *testing.T) {
	exams := &fakeExamSource{exams: map[int64]*model.Exam{1: {ID: 1}}}
	store := &fakeSubmissionStore{}
	pub := &fakePublisher{err: errors.New("redis down")}
	svc := NewScoringService(exams, &fakeAnswerKey{key: map[int64]int{101: 1}}, store, pub, zerolog.Nop())

	answers := []model.Answer{{QuestionID: 101, SelectedOption: intPtr(1)}}
	result, err := svc.Score(context.Background(), 5, 1, answers, 0)
	if err != nil {
		t.Fatalf("Score must not fail on publish error: %v", err)
	}
	if result.Score != 1 {
		t.Errorf("score = %d, want 1", result.Score)
	}
	if len(store.upserts) != 1 {
		t.Errorf("upserts = %d, want 1", len(store.upserts))
	}
}
