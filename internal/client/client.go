// Package client is the HTTP client for the focusroom backend.
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
	"strings"
	"time"

	"focusroom/backend/internal/model"
)

const defaultTimeout = 15 * time.Second

// APIError is a non-2xx response decoded from the server's error envelope.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client

	// streamClient has no overall timeout; streams stay open indefinitely.
	streamClient *http.Client
	retryDelay   time.Duration
	maxDelay     time.Duration
}

type AuthResult struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

func New(baseURL, token string) *Client {
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		token:        token,
		httpClient:   &http.Client{Timeout: defaultTimeout},
		streamClient: &http.Client{},
		retryDelay:   time.Second,
		maxDelay:     30 * time.Second,
	}
}

// WithToken returns a copy of the client that authenticates with token.
func (c *Client) WithToken(token string) *Client {
	copied := *c
	copied.token = token
	return &copied
}

func (c *Client) Register(ctx context.Context, email, password, displayName string) (*AuthResult, error) {
	var result AuthResult
	err := c.do(ctx, http.MethodPost, "/api/auth/register", map[string]string{
		"email":       email,
		"password":    password,
		"displayName": displayName,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	var result AuthResult
	err := c.do(ctx, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) Me(ctx context.Context) (*model.User, error) {
	var envelope struct {
		User model.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &envelope); err != nil {
		return nil, err
	}
	return &envelope.User, nil
}

type snapshotEnvelope struct {
	Snapshot model.ActiveTimerSnapshot `json:"snapshot"`
}

func (c *Client) GetActiveTimer(ctx context.Context) (model.ActiveTimerSnapshot, error) {
	var envelope snapshotEnvelope
	err := c.do(ctx, http.MethodGet, "/api/timer/active", nil, &envelope)
	return envelope.Snapshot, err
}

func (c *Client) PutActiveTimer(ctx context.Context, record model.ActiveTimerRecord) (model.ActiveTimerSnapshot, error) {
	var envelope snapshotEnvelope
	err := c.do(ctx, http.MethodPut, "/api/timer/active", record, &envelope)
	return envelope.Snapshot, err
}

func (c *Client) DeleteActiveTimer(ctx context.Context) (model.ActiveTimerSnapshot, error) {
	var envelope snapshotEnvelope
	err := c.do(ctx, http.MethodDelete, "/api/timer/active", nil, &envelope)
	return envelope.Snapshot, err
}

// RecordSession logs a completion. Replays of the same session id are
// accepted by the server without creating a duplicate.
func (c *Client) RecordSession(ctx context.Context, completion model.Completion) (*model.FocusSession, error) {
	var envelope struct {
		Session model.FocusSession `json:"session"`
	}
	err := c.do(ctx, http.MethodPost, "/api/sessions", map[string]interface{}{
		"id":              completion.SessionID,
		"mode":            completion.Mode,
		"subject":         completion.Subject,
		"durationMinutes": completion.DurationMinutes,
		"completedAt":     completion.CompletedAt,
	}, &envelope)
	if err != nil {
		return nil, err
	}
	return &envelope.Session, nil
}

func (c *Client) History(ctx context.Context, limit int) ([]model.FocusSession, error) {
	var envelope struct {
		Sessions []model.FocusSession `json:"sessions"`
	}
	path := "/api/sessions?" + url.Values{"limit": {strconv.Itoa(limit)}}.Encode()
	err := c.do(ctx, http.MethodGet, path, nil, &envelope)
	return envelope.Sessions, err
}

func (c *Client) Stats(ctx context.Context, days int) (*model.SessionStats, error) {
	var envelope struct {
		Stats model.SessionStats `json:"stats"`
	}
	path := "/api/sessions/stats?" + url.Values{"days": {strconv.Itoa(days)}}.Encode()
	if err := c.do(ctx, http.MethodGet, path, nil, &envelope); err != nil {
		return nil, err
	}
	return &envelope.Stats, nil
}

func (c *Client) Leaderboard(ctx context.Context, days, limit int) ([]model.LeaderboardEntry, error) {
	var envelope struct {
		Leaderboard []model.LeaderboardEntry `json:"leaderboard"`
	}
	path := "/api/leaderboard?" + url.Values{
		"days":  {strconv.Itoa(days)},
		"limit": {strconv.Itoa(limit)},
	}.Encode()
	err := c.do(ctx, http.MethodGet, path, nil, &envelope)
	return envelope.Leaderboard, err
}

func (c *Client) newRequest(ctx context.Context, method, path string, body interface{}) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	var envelope struct {
		Error *APIError `json:"error"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if json.Unmarshal(raw, &envelope) == nil && envelope.Error != nil {
		apiErr.Code = envelope.Error.Code
		apiErr.Message = envelope.Error.Message
	}
	return apiErr
}
