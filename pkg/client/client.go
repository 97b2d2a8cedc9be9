package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/hirehub/interview-engine/internal/models"
)

// Client is a Go SDK for the interview-engine API
type Client struct {
	baseURL    string
	userID     string
	role       string
	httpClient *http.Client
}

// Option configures the client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the client timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new interview-engine client acting as the given
// party. The identity travels in the X-User-ID / X-User-Role headers.
func NewClient(baseURL, userID string, role models.Role, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		userID:  userID,
		role:    string(role),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// ListRoomsOptions contains options for listing rooms
type ListRoomsOptions struct {
	RecruiterID string
	ApplicantID string
	Status      string
	Limit       int
	Offset      int
}

// CreateScheduleRequest proposes candidate interview times
func (c *Client) CreateScheduleRequest(ctx context.Context, req models.CreateScheduleRequest) (*models.ScheduleRequest, error) {
	var out models.ScheduleRequest
	if err := c.do(ctx, "POST", "/api/v1/schedule-requests", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetScheduleRequestByCode fetches a request by its opaque code
func (c *Client) GetScheduleRequestByCode(ctx context.Context, code string) (*models.ScheduleRequest, error) {
	var out models.ScheduleRequest
	if err := c.do(ctx, "GET", "/api/v1/schedule-requests/code/"+url.PathEscape(code), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SelectSlot claims one proposed slot, returning the committed room
func (c *Client) SelectSlot(ctx context.Context, requestID, slotID string) (*models.RoomView, error) {
	var out models.RoomView
	path := fmt.Sprintf("/api/v1/schedule-requests/%s/select", requestID)
	if err := c.do(ctx, "POST", path, models.SelectSlotRequest{SlotID: slotID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CancelScheduleRequest withdraws a pending request
func (c *Client) CancelScheduleRequest(ctx context.Context, requestID string) error {
	path := fmt.Sprintf("/api/v1/schedule-requests/%s/cancel", requestID)
	return c.do(ctx, "POST", path, nil, nil)
}

// CreateRoom creates a room directly, without negotiation
func (c *Client) CreateRoom(ctx context.Context, req models.CreateRoomRequest) (*models.RoomView, error) {
	var out models.RoomView
	if err := c.do(ctx, "POST", "/api/v1/rooms", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetRoom retrieves a room by ID
func (c *Client) GetRoom(ctx context.Context, id string) (*models.RoomView, error) {
	var out models.RoomView
	if err := c.do(ctx, "GET", "/api/v1/rooms/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetRoomByCode retrieves a room by its join code
func (c *Client) GetRoomByCode(ctx context.Context, code string) (*models.RoomView, error) {
	var out models.RoomView
	if err := c.do(ctx, "GET", "/api/v1/rooms/code/"+url.PathEscape(code), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListRooms retrieves rooms matching the given options
func (c *Client) ListRooms(ctx context.Context, opts ListRoomsOptions) ([]models.RoomView, error) {
	q := url.Values{}
	if opts.RecruiterID != "" {
		q.Set("recruiter_id", opts.RecruiterID)
	}
	if opts.ApplicantID != "" {
		q.Set("applicant_id", opts.ApplicantID)
	}
	if opts.Status != "" {
		q.Set("status", opts.Status)
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Offset > 0 {
		q.Set("offset", strconv.Itoa(opts.Offset))
	}

	path := "/api/v1/rooms"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out struct {
		Rooms []models.RoomView `json:"rooms"`
		Total int               `json:"total"`
	}
	if err := c.do(ctx, "GET", path, nil, &out); err != nil {
		return nil, err
	}
	return out.Rooms, nil
}

// EndRoom finishes a room; ending a finished room is a no-op
func (c *Client) EndRoom(ctx context.Context, id string) (*models.RoomView, error) {
	var out models.RoomView
	path := fmt.Sprintf("/api/v1/rooms/%s/end", id)
	if err := c.do(ctx, "POST", path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CancelRoom cancels a room that has not finished
func (c *Client) CancelRoom(ctx context.Context, id string) (*models.RoomView, error) {
	var out models.RoomView
	path := fmt.Sprintf("/api/v1/rooms/%s/cancel", id)
	if err := c.do(ctx, "POST", path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SendMessage posts a message to the room transcript without a
// websocket connection
func (c *Client) SendMessage(ctx context.Context, roomID string, req models.SendMessageRequest) (*models.InterviewMessage, error) {
	var msg models.InterviewMessage
	path := fmt.Sprintf("/api/v1/rooms/%s/messages", roomID)
	if err := c.do(ctx, "POST", path, req, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// ListMessages retrieves the room transcript in sequence order
func (c *Client) ListMessages(ctx context.Context, roomID string) ([]*models.InterviewMessage, error) {
	var out struct {
		Messages []*models.InterviewMessage `json:"messages"`
		Total    int                        `json:"total"`
	}
	path := fmt.Sprintf("/api/v1/rooms/%s/messages", roomID)
	if err := c.do(ctx, "GET", path, nil, &out); err != nil {
		return nil, err
	}
	return out.Messages, nil
}

// ListQuestions retrieves a room's questions with the running pass rate
func (c *Client) ListQuestions(ctx context.Context, roomID string) (*models.QuestionListResponse, error) {
	var out models.QuestionListResponse
	path := fmt.Sprintf("/api/v1/rooms/%s/questions", roomID)
	if err := c.do(ctx, "GET", path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AnswerQuestion records the applicant's answer to a question
func (c *Client) AnswerQuestion(ctx context.Context, questionID, text string) (*models.InterviewQuestion, error) {
	var out models.InterviewQuestion
	path := fmt.Sprintf("/api/v1/questions/%s/answer", questionID)
	if err := c.do(ctx, "POST", path, models.AnswerQuestionRequest{Text: text}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// EvaluateQuestion records the recruiter's verdict on an answer
func (c *Client) EvaluateQuestion(ctx context.Context, questionID string, outcome models.QuestionEvaluation) (*models.InterviewQuestion, error) {
	var out models.InterviewQuestion
	path := fmt.Sprintf("/api/v1/questions/%s/evaluate", questionID)
	if err := c.do(ctx, "POST", path, models.EvaluateQuestionRequest{Outcome: outcome}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SaveDraftResult upserts the draft result for a room
func (c *Client) SaveDraftResult(ctx context.Context, roomID string, req models.SaveResultRequest) (*models.InterviewResult, error) {
	var out models.InterviewResult
	path := fmt.Sprintf("/api/v1/rooms/%s/result/draft", roomID)
	if err := c.do(ctx, "PUT", path, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitResult finalizes the result for a room; a second submit fails
func (c *Client) SubmitResult(ctx context.Context, roomID string, req models.SaveResultRequest) (*models.InterviewResult, error) {
	var out models.InterviewResult
	path := fmt.Sprintf("/api/v1/rooms/%s/result/submit", roomID)
	if err := c.do(ctx, "POST", path, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetResult retrieves the result for a room
func (c *Client) GetResult(ctx context.Context, roomID string) (*models.InterviewResult, error) {
	var out models.InterviewResult
	path := fmt.Sprintf("/api/v1/rooms/%s/result", roomID)
	if err := c.do(ctx, "GET", path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health checks if the service is healthy
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, "GET", "/health", nil, nil)
}

// do performs a request and decodes the standard response envelope.
// A nil out discards the data payload.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", c.userID)
	req.Header.Set("X-User-Role", c.role)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var result struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}

	if err := json.Unmarshal(respBody, &result); err != nil {
		return fmt.Errorf("failed to unmarshal response (HTTP %d): %w", resp.StatusCode, err)
	}

	if !result.Success {
		if result.Error != nil {
			return fmt.Errorf("API error: %s - %s", result.Error.Code, result.Error.Message)
		}
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	if out != nil && len(result.Data) > 0 {
		if err := json.Unmarshal(result.Data, out); err != nil {
			return fmt.Errorf("failed to unmarshal response data: %w", err)
		}
	}

	return nil
}
