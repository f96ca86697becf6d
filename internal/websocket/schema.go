package websocket

import "github.com/examportal/backend/internal/model"

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError      Event = "error"
	EventSubscribed Event = "subscribed"
	EventSubmission Event = "submission"
)

// SubscribedResponse confirms the stream is live for an exam.
type SubscribedResponse struct {
	Event  Event `json:"event"`
	ExamID int64 `json:"exam_id"`
}

// SubmissionResponse carries one freshly scored submission.
type SubmissionResponse struct {
	Event      Event                 `json:"event"`
	Submission model.SubmissionEvent `json:"submission"`
}

// ErrorResponse reports a stream-level failure before closing.
type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}
