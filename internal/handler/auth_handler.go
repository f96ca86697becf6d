package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"

	"github.com/examportal/backend/internal/middleware"
	"github.com/examportal/backend/internal/model"
	"github.com/examportal/backend/internal/response"
	"github.com/examportal/backend/internal/service"
	"github.com/examportal/backend/internal/validator"
)

// AuthHandler handles registration, login, and profile endpoints.
type AuthHandler struct {
	authService *service.AuthService
	userService *service.UserService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *service.AuthService, userService *service.UserService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		userService: userService,
	}
}

// Register godoc
// POST /api/v1/auth/register
// Creates an account and returns a JWT; 409 if the email is taken.
func (h *AuthHandler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	hash, err := h.authService.HashPassword(req.Password)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	user := &model.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
	}
	if err := h.userService.Create(c.Request.Context(), user); err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			response.Fail(c, http.StatusConflict, response.ErrEmailTaken)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	token, err := h.authService.GenerateToken(user.ID, user.Name, user.Email)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, model.AuthResponse{
		Token: token,
		User:  user.Public(),
	})
}

// Login godoc
// POST /api/v1/auth/login
// Validates email + password, returns JWT.
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	user, err := h.userService.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
		return
	}

	if err := h.authService.CheckPassword(user.PasswordHash, req.Password); err != nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
		return
	}

	token, err := h.authService.GenerateToken(user.ID, user.Name, user.Email)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, model.AuthResponse{
		Token: token,
		User:  user.Public(),
	})
}

// Me godoc
// GET /api/v1/auth/me
// Returns the profile of the currently authenticated user.
func (h *AuthHandler) Me(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	user, err := h.userService.GetByID(c.Request.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"user": user.Public()})
}
