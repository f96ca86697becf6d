package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/examportal/backend/internal/middleware"
	"github.com/examportal/backend/internal/model"
	"github.com/examportal/backend/internal/response"
	"github.com/examportal/backend/internal/service"
	"github.com/examportal/backend/internal/validator"
)

// ExamHandler handles exam listing, question delivery, and submission.
type ExamHandler struct {
	examService     *service.ExamService
	deliveryService *service.DeliveryService
	scoringService  *service.ScoringService
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(
	examService *service.ExamService,
	deliveryService *service.DeliveryService,
	scoringService *service.ScoringService,
) *ExamHandler {
	return &ExamHandler{
		examService:     examService,
		deliveryService: deliveryService,
		scoringService:  scoringService,
	}
}

// ListExams godoc
// GET /api/v1/exams
// Returns all exams with the requesting user's completion status.
func (h *ExamHandler) ListExams(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	exams, err := h.examService.ListForUser(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"exams": exams})
}

// GetQuestions godoc
// GET /api/v1/exams/:exam_id/questions
// Returns a fresh randomized question subset for one attempt. Correct
// answers never appear in the payload.
func (h *ExamHandler) GetQuestions(c *gin.Context) {
	examID, err := strconv.ParseInt(c.Param("exam_id"), 10, 64)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	paper, err := h.deliveryService.SelectQuestions(c.Request.Context(), examID)
	if err != nil {
		if errors.Is(err, service.ErrExamNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrExamNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, paper)
}

// SubmitExam godoc
// POST /api/v1/exams/:exam_id/submissions
// Scores the submitted answers server-side and upserts the result;
// resubmitting overwrites the previous attempt.
func (h *ExamHandler) SubmitExam(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	examID, err := strconv.ParseInt(c.Param("exam_id"), 10, 64)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.SubmitRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.scoringService.Score(c.Request.Context(), claims.UserID, examID, req.Answers, req.DurationSeconds)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyAnswers):
			response.Fail(c, http.StatusBadRequest, response.ErrEmptyAnswers)
		case errors.Is(err, service.ErrExamNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrExamNotFound)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusCreated, result)
}
