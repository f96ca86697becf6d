// Package session implements the client-side state machine for one
// exam-taking attempt: countdown clock, current-question pointer, answer
// map, flag set, and the submit transition. The engine computes nothing
// authoritative: the score it exposes after completion is whatever the
// server returned.
package session

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/examportal/backend/internal/model"
)

// State enumerates the lifecycle of an exam attempt.
type State string

const (
	StateLoading    State = "LOADING"
	StateInProgress State = "IN_PROGRESS"
	StateSubmitting State = "SUBMITTING"
	StateCompleted  State = "COMPLETED"
	StateErrored    State = "ERRORED"
)

// Engine errors.
var (
	ErrNotLoading    = errors.New("session is not loading")
	ErrLocked        = errors.New("session is no longer accepting changes")
	ErrBadOption     = errors.New("option index out of range")
	ErrBadQuestion   = errors.New("question index out of range")
	ErrNotInProgress = errors.New("session is not in progress")
)

// Submitter delivers the answer payload to the server and returns the
// authoritative scoring result.
type Submitter interface {
	Submit(ctx context.Context, examID int64, answers []model.Answer, durationSeconds int) (*model.SubmissionResult, error)
}

// Snapshot is an immutable view of the session state. All reads go
// through snapshots; internal maps are copied so a caller can never
// mutate engine state through one.
type Snapshot struct {
	State     State
	Current   int
	Remaining int
	Answers   map[int]int
	Flagged   []int
	Result    *model.SubmissionResult
	Err       error
}

// Engine is the state machine for a single exam attempt. It is owned by
// one session; methods are safe for the tick goroutine and the UI
// goroutine to interleave.
type Engine struct {
	mu        sync.Mutex
	examID    int64
	submitter Submitter
	ticker    TickerFunc
	cancel    func()

	state     State
	paper     *model.ExamPaper
	total     int // duration in seconds
	remaining int
	current   int
	answers   map[int]int
	flagged   map[int]bool
	result    *model.SubmissionResult
	loadErr   error
}

// New creates an engine in the Loading state. ticker may be nil, in
// which case a time.Ticker-backed clock is used.
func New(examID int64, submitter Submitter, ticker TickerFunc) *Engine {
	if ticker == nil {
		ticker = DefaultTicker
	}
	return &Engine{
		examID:    examID,
		submitter: submitter,
		ticker:    ticker,
		state:     StateLoading,
		answers:   make(map[int]int),
		flagged:   make(map[int]bool),
	}
}

// Load transitions Loading → InProgress with the delivered paper and
// starts the countdown clock.
func (e *Engine) Load(paper *model.ExamPaper) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateLoading {
		return ErrNotLoading
	}

	e.paper = paper
	e.total = paper.Exam.DurationMinutes * 60
	e.remaining = e.total
	e.state = StateInProgress
	e.armClockLocked()
	return nil
}

// FailLoad transitions Loading → Errored, recording the load failure.
func (e *Engine) FailLoad(err error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateLoading {
		return ErrNotLoading
	}
	e.loadErr = err
	e.state = StateErrored
	return nil
}

// SelectAnswer records option for the question at index. Overwriting a
// prior answer is allowed any number of times.
func (e *Engine) SelectAnswer(index, option int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateInProgress {
		return ErrLocked
	}
	if index < 0 || index >= len(e.paper.Questions) {
		return ErrBadQuestion
	}
	if option < 0 || option > 3 {
		return ErrBadOption
	}
	e.answers[index] = option
	return nil
}

// ToggleFlag toggles the review flag for the question at index. Flags
// are a local aid only and never leave the client.
func (e *Engine) ToggleFlag(index int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateInProgress {
		return ErrLocked
	}
	if index < 0 || index >= len(e.paper.Questions) {
		return ErrBadQuestion
	}
	if e.flagged[index] {
		delete(e.flagged, index)
	} else {
		e.flagged[index] = true
	}
	return nil
}

// Navigate moves the pointer to index, clamped to the delivery bounds.
func (e *Engine) Navigate(index int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateInProgress {
		return ErrLocked
	}
	e.current = clamp(index, 0, len(e.paper.Questions)-1)
	return nil
}

// Advance moves the pointer by delta, clamped. It never wraps.
func (e *Engine) Advance(delta int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateInProgress {
		return ErrLocked
	}
	e.current = clamp(e.current+delta, 0, len(e.paper.Questions)-1)
	return nil
}

// Tick decrements the countdown by one second. At zero it triggers the
// same submit path as a manual submit, exactly once; ticks outside
// InProgress (stray callbacks after cancellation) are no-ops.
func (e *Engine) Tick() {
	e.mu.Lock()
	if e.state != StateInProgress || e.remaining <= 0 {
		e.mu.Unlock()
		return
	}
	e.remaining--
	expired := e.remaining == 0
	e.mu.Unlock()

	if expired {
		// Auto-submit carries no confirmation step.
		_, _ = e.Submit(context.Background())
	}
}

// Len returns the number of delivered questions, zero before Load.
func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.paper == nil {
		return 0
	}
	return len(e.paper.Questions)
}

// AnsweredCount reports how many questions currently have an answer.
// Used by the confirmation step ("answered X of N").
func (e *Engine) AnsweredCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.answers)
}

// Question returns the delivered question at index.
func (e *Engine) Question(index int) (model.DeliveryQuestion, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.paper == nil || index < 0 || index >= len(e.paper.Questions) {
		return model.DeliveryQuestion{}, false
	}
	return e.paper.Questions[index], true
}

// Submit runs the submit transition: InProgress → Submitting, server
// call, then Completed on success. On failure the engine returns to
// InProgress with all answers intact; the clock is re-armed only if time
// remains, so a timeout-triggered submit stays frozen at zero awaiting a
// retry. The payload is fixed at the moment Submitting begins; nothing
// can alter it afterwards.
func (e *Engine) Submit(ctx context.Context) (*model.SubmissionResult, error) {
	e.mu.Lock()
	if e.state != StateInProgress {
		e.mu.Unlock()
		return nil, ErrNotInProgress
	}
	e.state = StateSubmitting
	e.stopClockLocked()

	// One entry per delivered question; unanswered ones are explicit nulls.
	answers := make([]model.Answer, len(e.paper.Questions))
	for i, q := range e.paper.Questions {
		answers[i] = model.Answer{QuestionID: q.ID}
		if opt, ok := e.answers[i]; ok {
			v := opt
			answers[i].SelectedOption = &v
		}
	}
	elapsed := e.total - e.remaining
	e.mu.Unlock()

	result, err := e.submitter.Submit(ctx, e.examID, answers, elapsed)

	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil {
		e.state = StateInProgress
		if e.remaining > 0 {
			e.armClockLocked()
		}
		return nil, err
	}
	e.state = StateCompleted
	e.result = result
	return result, nil
}

// Close cancels the countdown clock. Called on navigation away; local
// state is discarded with no server call.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopClockLocked()
}

// Snapshot returns an immutable copy of the current state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	answers := make(map[int]int, len(e.answers))
	for k, v := range e.answers {
		answers[k] = v
	}
	flagged := make([]int, 0, len(e.flagged))
	for idx := range e.flagged {
		flagged = append(flagged, idx)
	}
	sort.Ints(flagged)

	return Snapshot{
		State:     e.state,
		Current:   e.current,
		Remaining: e.remaining,
		Answers:   answers,
		Flagged:   flagged,
		Result:    e.result,
		Err:       e.loadErr,
	}
}

// armClockLocked starts the countdown callback. At most one clock exists
// per session: any previous handle is cancelled first.
func (e *Engine) armClockLocked() {
	e.stopClockLocked()
	e.cancel = e.ticker(e.Tick)
}

func (e *Engine) stopClockLocked() {
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
