package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrEmailTaken         ErrCode = "EMAIL_ALREADY_REGISTERED"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrTokenExpired       ErrCode = "TOKEN_EXPIRED"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Exam-specific ─────────────────────────────────────────────────
	ErrExamNotFound ErrCode = "EXAM_NOT_FOUND"
	ErrNoQuestions  ErrCode = "NO_QUESTIONS"
	ErrEmptyAnswers ErrCode = "EMPTY_ANSWER_SET"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	case ErrInvalidCredentials:
		return "Invalid credentials."
	case ErrEmailTaken:
		return "Email already registered."
	case ErrTokenRequired:
		return "Missing authorization token."
	case ErrTokenInvalid:
		return "Invalid or expired token."
	case ErrTokenExpired:
		return "Authentication token has expired."
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid id format."
	case ErrInvalidPayload:
		return "Invalid request payload."
	case ErrNotFound:
		return "Resource not found."
	case ErrConflict:
		return "Resource already exists."
	case ErrExamNotFound:
		return "Exam not found."
	case ErrNoQuestions:
		return "This exam has no questions."
	case ErrEmptyAnswers:
		return "No answers provided."
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
