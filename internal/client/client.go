// Package client is a thin HTTP client for the exam portal API. It is
// used by the terminal taking client and by end-to-end tests.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/examportal/backend/internal/model"
	"github.com/examportal/backend/internal/response"
)

// Client talks to a running exam portal server. It is safe for
// concurrent use once the token is set.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New creates a Client pointed at baseURL, e.g. "http://localhost:4000".
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// SetToken sets the bearer token used on authenticated requests.
func (c *Client) SetToken(token string) { c.token = token }

// Token returns the current bearer token.
func (c *Client) Token() string { return c.token }

// APIError is a non-2xx response decoded from the server envelope.
type APIError struct {
	StatusCode int
	Code       response.ErrCode
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s (%s)", e.StatusCode, e.Message, e.Code)
}

type envelope struct {
	Data  json.RawMessage     `json:"data"`
	Error *response.ErrorBody `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("decode response (%d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		if env.Error != nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
		}
		return apiErr
	}

	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode data: %w", err)
		}
	}
	return nil
}

// Register creates an account and stores the returned token.
func (c *Client) Register(ctx context.Context, name, email, password string) (*model.AuthResponse, error) {
	var auth model.AuthResponse
	req := model.RegisterRequest{Name: name, Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/register", req, &auth); err != nil {
		return nil, err
	}
	c.token = auth.Token
	return &auth, nil
}

// Login authenticates and stores the returned token.
func (c *Client) Login(ctx context.Context, email, password string) (*model.AuthResponse, error) {
	var auth model.AuthResponse
	req := model.LoginRequest{Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", req, &auth); err != nil {
		return nil, err
	}
	c.token = auth.Token
	return &auth, nil
}

// Me returns the authenticated user's profile.
func (c *Client) Me(ctx context.Context) (*model.PublicUser, error) {
	var data struct {
		User model.PublicUser `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/auth/me", nil, &data); err != nil {
		return nil, err
	}
	return &data.User, nil
}

// ListExams returns every exam overlaid with the user's submission state.
func (c *Client) ListExams(ctx context.Context) ([]model.ExamListing, error) {
	var data struct {
		Exams []model.ExamListing `json:"exams"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/exams", nil, &data); err != nil {
		return nil, err
	}
	return data.Exams, nil
}

// FetchExamPaper returns the exam header and a freshly selected question
// set for one attempt.
func (c *Client) FetchExamPaper(ctx context.Context, examID int64) (*model.ExamPaper, error) {
	var paper model.ExamPaper
	path := fmt.Sprintf("/api/v1/exams/%d/questions", examID)
	if err := c.do(ctx, http.MethodGet, path, nil, &paper); err != nil {
		return nil, err
	}
	return &paper, nil
}

// Submit posts the answer payload and returns the authoritative scoring
// result. It satisfies session.Submitter.
func (c *Client) Submit(ctx context.Context, examID int64, answers []model.Answer, durationSeconds int) (*model.SubmissionResult, error) {
	var result model.SubmissionResult
	req := model.SubmitRequest{Answers: answers, DurationSeconds: durationSeconds}
	path := fmt.Sprintf("/api/v1/exams/%d/submissions", examID)
	if err := c.do(ctx, http.MethodPost, path, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
