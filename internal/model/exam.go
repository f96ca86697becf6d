package model

import "time"

// Exam represents an exam definition. Exams are immutable after creation
// and administered out of band (migrations / seed tooling).
type Exam struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	Subject         string    `json:"subject"`
	DurationMinutes int       `json:"duration_minutes"`
	QuestionCount   int       `json:"question_count"`
	CreatedAt       time.Time `json:"created_at"`
}

// ExamStatus is the per-user state of an exam in the listing.
type ExamStatus string

const (
	ExamStatusAvailable ExamStatus = "available"
	ExamStatusCompleted ExamStatus = "completed"
)

// ExamListing is an exam overlaid with the requesting user's submission
// state. Score and SubmittedAt are set only when Status is completed.
type ExamListing struct {
	ID              int64      `json:"id"`
	Title           string     `json:"title"`
	Subject         string     `json:"subject"`
	DurationMinutes int        `json:"duration"`
	QuestionCount   int        `json:"questions"`
	Status          ExamStatus `json:"status"`
	Score           *int       `json:"score,omitempty"`
	SubmittedAt     *time.Time `json:"submitted_at,omitempty"`
}

// ExamPaper is the payload served for one exam-taking attempt: the exam
// header plus a randomized question subset with correct answers stripped.
type ExamPaper struct {
	Exam      ExamHeader         `json:"exam"`
	Questions []DeliveryQuestion `json:"questions"`
}

// ExamHeader is the subset of exam fields the taking client needs.
type ExamHeader struct {
	ID              int64  `json:"id"`
	Title           string `json:"title"`
	DurationMinutes int    `json:"durationMinutes"`
}

// DeliveryQuestion is a question as delivered to the client: prompt and
// options only, never the correct option index.
type DeliveryQuestion struct {
	ID       int64     `json:"id"`
	Question string    `json:"question"`
	Options  [4]string `json:"options"`
}
