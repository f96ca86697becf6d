package model

// Question is the server-side representation of an exam question,
// including the authoritative correct option. It must never be
// serialized to an exam-taking client; use DeliveryQuestion instead.
type Question struct {
	ID            int64
	ExamID        int64
	QuestionText  string
	Options       [4]string
	CorrectOption int // 0–3
}

// Delivery converts a Question to its client-safe form.
func (q *Question) Delivery() DeliveryQuestion {
	return DeliveryQuestion{
		ID:       q.ID,
		Question: q.QuestionText,
		Options:  q.Options,
	}
}
