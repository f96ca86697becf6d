package model

import "time"

// Answer is one submitted (question, selection) pair. SelectedOption is
// nil when the question was left unanswered; nil never matches any
// correct option.
type Answer struct {
	QuestionID     int64 `json:"questionId" binding:"required"`
	SelectedOption *int  `json:"selectedOption" binding:"omitempty,min=0,max=3"`
}

// SubmitRequest is the payload for submitting an exam attempt.
type SubmitRequest struct {
	// Answer-set emptiness is policed by the scoring service, not binding.
	Answers         []Answer `json:"answers" binding:"dive"`
	DurationSeconds int      `json:"durationSeconds" binding:"min=0"`
}

// SubmissionResult is the authoritative scoring outcome returned to the
// client and rendered verbatim.
type SubmissionResult struct {
	Score      int `json:"score"`
	Percentage int `json:"percentage"`
	Total      int `json:"total"`
}

// Submission is the persisted record of a scored attempt. At most one
// row exists per (UserID, ExamID); resubmission overwrites every field.
type Submission struct {
	UserID          int64     `json:"user_id"`
	ExamID          int64     `json:"exam_id"`
	Score           int       `json:"score"`
	Total           int       `json:"total"`
	Percentage      int       `json:"percentage"`
	DurationSeconds int       `json:"duration_seconds"`
	SubmittedAt     time.Time `json:"submitted_at"`
}

// SubmissionEvent is queued after every successful scoring and relayed
// to the per-exam live results channel.
type SubmissionEvent struct {
	UserID      int64     `json:"user_id"`
	ExamID      int64     `json:"exam_id"`
	Score       int       `json:"score"`
	Percentage  int       `json:"percentage"`
	Total       int       `json:"total"`
	SubmittedAt time.Time `json:"submitted_at"`
}
