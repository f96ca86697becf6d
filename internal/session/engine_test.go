package session

import (
	"context"
	"errors"
	"testing"

	"github.com/examportal/backend/internal/model"
)

type fakeSubmitter struct {
	calls    int
	examID   int64
	answers  []model.Answer
	duration int
	result   *model.SubmissionResult
	err      error
}

func (f *fakeSubmitter) Submit(_ context.Context, examID int64, answers []model.Answer, durationSeconds int) (*model.SubmissionResult, error) {
	f.calls++
	f.examID = examID
	f.answers = answers
	f.duration = durationSeconds
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func testPaper(minutes, questions int) *model.ExamPaper {
	paper := &model.ExamPaper{
		Exam: model.ExamHeader{ID: 7, Title: "Algebra", DurationMinutes: minutes},
	}
	for i := 0; i < questions; i++ {
		paper.Questions = append(paper.Questions, model.DeliveryQuestion{
			ID:       int64(100 + i),
			Question: "q",
			Options:  [4]string{"a", "b", "c", "d"},
		})
	}
	return paper
}

func loadedEngine(t *testing.T, sub Submitter, minutes, questions int) *Engine {
	t.Helper()
	eng := New(7, sub, NopTicker)
	if err := eng.Load(testPaper(minutes, questions)); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return eng
}

func TestLoadTransitions(t *testing.T) {
	eng := New(7, &fakeSubmitter{}, NopTicker)

	if got := eng.Snapshot().State; got != StateLoading {
		t.Fatalf("initial state = %v, want %v", got, StateLoading)
	}
	if err := eng.SelectAnswer(0, 1); !errors.Is(err, ErrLocked) {
		t.Errorf("SelectAnswer before load = %v, want ErrLocked", err)
	}

	if err := eng.Load(testPaper(10, 3)); err != nil {
		t.Fatalf("Load: %v", err)
	}
	snap := eng.Snapshot()
	if snap.State != StateInProgress {
		t.Errorf("state = %v, want %v", snap.State, StateInProgress)
	}
	if snap.Remaining != 600 {
		t.Errorf("remaining = %d, want 600", snap.Remaining)
	}

	if err := eng.Load(testPaper(10, 3)); !errors.Is(err, ErrNotLoading) {
		t.Errorf("second Load = %v, want ErrNotLoading", err)
	}
}

func TestFailLoad(t *testing.T) {
	eng := New(7, &fakeSubmitter{}, NopTicker)
	cause := errors.New("network down")

	if err := eng.FailLoad(cause); err != nil {
		t.Fatalf("FailLoad: %v", err)
	}
	snap := eng.Snapshot()
	if snap.State != StateErrored {
		t.Errorf("state = %v, want %v", snap.State, StateErrored)
	}
	if !errors.Is(snap.Err, cause) {
		t.Errorf("snapshot err = %v, want %v", snap.Err, cause)
	}
}

func TestSelectAnswerBounds(t *testing.T) {
	eng := loadedEngine(t, &fakeSubmitter{}, 10, 3)

	tests := []struct {
		name    string
		index   int
		option  int
		wantErr error
	}{
		{"valid", 0, 2, nil},
		{"overwrite", 0, 3, nil},
		{"negative index", -1, 0, ErrBadQuestion},
		{"index past end", 3, 0, ErrBadQuestion},
		{"negative option", 1, -1, ErrBadOption},
		{"option past end", 1, 4, ErrBadOption},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := eng.SelectAnswer(tt.index, tt.option); !errors.Is(err, tt.wantErr) {
				t.Errorf("SelectAnswer(%d, %d) = %v, want %v", tt.index, tt.option, err, tt.wantErr)
			}
		})
	}

	if got := eng.Snapshot().Answers[0]; got != 3 {
		t.Errorf("answer[0] = %d, want 3 after overwrite", got)
	}
	if got := eng.AnsweredCount(); got != 1 {
		t.Errorf("AnsweredCount = %d, want 1", got)
	}
}

func TestNavigationClamps(t *testing.T) {
	eng := loadedEngine(t, &fakeSubmitter{}, 10, 3)

	if err := eng.Navigate(99); err != nil {
		t.Fatalf("Navigate: %v", err)
	}
	if got := eng.Snapshot().Current; got != 2 {
		t.Errorf("current = %d, want 2", got)
	}

	if err := eng.Advance(-99); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if got := eng.Snapshot().Current; got != 0 {
		t.Errorf("current = %d, want 0", got)
	}

	if err := eng.Advance(1); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if got := eng.Snapshot().Current; got != 1 {
		t.Errorf("current = %d, want 1", got)
	}
}

func TestToggleFlag(t *testing.T) {
	eng := loadedEngine(t, &fakeSubmitter{}, 10, 3)

	if err := eng.ToggleFlag(1); err != nil {
		t.Fatalf("ToggleFlag: %v", err)
	}
	if got := eng.Snapshot().Flagged; len(got) != 1 || got[0] != 1 {
		t.Errorf("flagged = %v, want [1]", got)
	}

	if err := eng.ToggleFlag(1); err != nil {
		t.Fatalf("ToggleFlag: %v", err)
	}
	if got := eng.Snapshot().Flagged; len(got) != 0 {
		t.Errorf("flagged = %v, want empty after second toggle", got)
	}
}

func TestSubmitPayload(t *testing.T) {
	sub := &fakeSubmitter{result: &model.SubmissionResult{Score: 1, Percentage: 33, Total: 3}}
	eng := loadedEngine(t, sub, 10, 3)

	if err := eng.SelectAnswer(0, 2); err != nil {
		t.Fatalf("SelectAnswer: %v", err)
	}
	eng.Tick()
	eng.Tick()

	result, err := eng.Submit(context.Background())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if result.Score != 1 {
		t.Errorf("score = %d, want 1", result.Score)
	}

	if sub.examID != 7 {
		t.Errorf("exam id = %d, want 7", sub.examID)
	}
	if len(sub.answers) != 3 {
		t.Fatalf("payload answers = %d, want one per delivered question", len(sub.answers))
	}
	if sub.answers[0].SelectedOption == nil || *sub.answers[0].SelectedOption != 2 {
		t.Errorf("answer 0 = %v, want selection 2", sub.answers[0].SelectedOption)
	}
	if sub.answers[1].SelectedOption != nil {
		t.Errorf("answer 1 = %v, want explicit null", *sub.answers[1].SelectedOption)
	}
	if sub.duration != 2 {
		t.Errorf("duration = %d, want 2 elapsed seconds", sub.duration)
	}

	snap := eng.Snapshot()
	if snap.State != StateCompleted {
		t.Errorf("state = %v, want %v", snap.State, StateCompleted)
	}
	if snap.Result == nil || snap.Result.Percentage != 33 {
		t.Errorf("snapshot result = %+v, want server result verbatim", snap.Result)
	}
}

func TestNoMutationAfterSubmit(t *testing.T) {
	eng := loadedEngine(t, &fakeSubmitter{result: &model.SubmissionResult{}}, 10, 3)

	if _, err := eng.Submit(context.Background()); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if err := eng.SelectAnswer(0, 1); !errors.Is(err, ErrLocked) {
		t.Errorf("SelectAnswer after submit = %v, want ErrLocked", err)
	}
	if err := eng.Navigate(1); !errors.Is(err, ErrLocked) {
		t.Errorf("Navigate after submit = %v, want ErrLocked", err)
	}
	if err := eng.ToggleFlag(0); !errors.Is(err, ErrLocked) {
		t.Errorf("ToggleFlag after submit = %v, want ErrLocked", err)
	}
	if _, err := eng.Submit(context.Background()); !errors.Is(err, ErrNotInProgress) {
		t.Errorf("second Submit = %v, want ErrNotInProgress", err)
	}
}

func TestTickToZeroSubmitsOnce(t *testing.T) {
	sub := &fakeSubmitter{result: &model.SubmissionResult{}}
	eng := New(7, sub, NopTicker)

	// 1 minute = 60 ticks to expiry.
	if err := eng.Load(testPaper(1, 2)); err != nil {
		t.Fatalf("Load: %v", err)
	}

	for i := 0; i < 120; i++ {
		eng.Tick()
	}

	if sub.calls != 1 {
		t.Fatalf("submit calls = %d, want exactly 1", sub.calls)
	}
	if got := eng.Snapshot().State; got != StateCompleted {
		t.Errorf("state = %v, want %v", got, StateCompleted)
	}
	if sub.duration != 60 {
		t.Errorf("duration = %d, want full 60 seconds", sub.duration)
	}
}

func TestFailedSubmitPreservesAnswers(t *testing.T) {
	sub := &fakeSubmitter{err: errors.New("connection refused")}
	eng := loadedEngine(t, sub, 10, 3)

	if err := eng.SelectAnswer(0, 1); err != nil {
		t.Fatalf("SelectAnswer: %v", err)
	}
	if err := eng.SelectAnswer(2, 3); err != nil {
		t.Fatalf("SelectAnswer: %v", err)
	}

	if _, err := eng.Submit(context.Background()); err == nil {
		t.Fatal("Submit should surface the transport error")
	}

	snap := eng.Snapshot()
	if snap.State != StateInProgress {
		t.Fatalf("state = %v, want %v for retry", snap.State, StateInProgress)
	}
	if len(snap.Answers) != 2 || snap.Answers[0] != 1 || snap.Answers[2] != 3 {
		t.Errorf("answers = %v, want preserved {0:1 2:3}", snap.Answers)
	}

	// Retry succeeds with the same answers.
	sub.err = nil
	sub.result = &model.SubmissionResult{Score: 2, Percentage: 67, Total: 3}
	result, err := eng.Submit(context.Background())
	if err != nil {
		t.Fatalf("retry Submit: %v", err)
	}
	if result.Score != 2 {
		t.Errorf("retry score = %d, want 2", result.Score)
	}
	if sub.calls != 2 {
		t.Errorf("submit calls = %d, want 2", sub.calls)
	}
}

func TestTimeoutSubmitFailureStaysAtZero(t *testing.T) {
	sub := &fakeSubmitter{err: errors.New("connection refused")}
	eng := New(7, sub, NopTicker)
	if err := eng.Load(testPaper(1, 1)); err != nil {
		t.Fatalf("Load: %v", err)
	}

	for i := 0; i < 60; i++ {
		eng.Tick()
	}
	if sub.calls != 1 {
		t.Fatalf("submit calls = %d, want 1", sub.calls)
	}

	// Failed auto-submit: back in progress, frozen at zero, no further
	// ticks fire another submit.
	snap := eng.Snapshot()
	if snap.State != StateInProgress {
		t.Fatalf("state = %v, want %v", snap.State, StateInProgress)
	}
	if snap.Remaining != 0 {
		t.Errorf("remaining = %d, want 0", snap.Remaining)
	}
	eng.Tick()
	eng.Tick()
	if sub.calls != 1 {
		t.Errorf("submit calls after stray ticks = %d, want still 1", sub.calls)
	}

	// Manual retry is still possible.
	sub.err = nil
	sub.result = &model.SubmissionResult{}
	if _, err := eng.Submit(context.Background()); err != nil {
		t.Fatalf("retry Submit: %v", err)
	}
	if got := eng.Snapshot().State; got != StateCompleted {
		t.Errorf("state = %v, want %v", got, StateCompleted)
	}
}

func TestSnapshotIsolation(t *testing.T) {
	eng := loadedEngine(t, &fakeSubmitter{}, 10, 3)
	if err := eng.SelectAnswer(0, 1); err != nil {
		t.Fatalf("SelectAnswer: %v", err)
	}

	snap := eng.Snapshot()
	snap.Answers[0] = 3
	snap.Answers[1] = 2

	if got := eng.Snapshot().Answers; len(got) != 1 || got[0] != 1 {
		t.Errorf("answers = %v, mutated through a snapshot", got)
	}
}
