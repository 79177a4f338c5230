package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// APIClient handles HTTP communication with the backend
type APIClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewAPIClient creates a new API client
func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL: baseURL + "/api/v1",
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Response types matching backend

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

type Profile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type Task struct {
	ID        string     `json:"id"`
	Text      string     `json:"text"`
	Completed bool       `json:"completed"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

// Credentials identifies a simulated user
type Credentials struct {
	Email    string
	Password string
}

// NewCredentials returns a unique email under domain with a fixed password
func NewCredentials(prefix, domain string) Credentials {
	return Credentials{
		Email:    fmt.Sprintf("%s+%s@%s", prefix, uuid.NewString()[:8], domain),
		Password: "simulator-password",
	}
}

// Register creates a new user account
func (c *APIClient) Register(ctx context.Context, creds Credentials) (*TokenPair, error) {
	var pair TokenPair
	err := c.do(ctx, http.MethodPost, "/auth/register", map[string]string{
		"email":    creds.Email,
		"password": creds.Password,
	}, "", http.StatusCreated, &pair)
	if err != nil {
		return nil, fmt.Errorf("register %s: %w", creds.Email, err)
	}
	return &pair, nil
}

// Login exchanges credentials for a token pair
func (c *APIClient) Login(ctx context.Context, creds Credentials) (*TokenPair, error) {
	var pair TokenPair
	err := c.do(ctx, http.MethodPost, "/auth/login", map[string]string{
		"email":    creds.Email,
		"password": creds.Password,
	}, "", http.StatusOK, &pair)
	if err != nil {
		return nil, fmt.Errorf("login %s: %w", creds.Email, err)
	}
	return &pair, nil
}

// Refresh mints a new access token
func (c *APIClient) Refresh(ctx context.Context, refreshToken string) (string, error) {
	var result struct {
		AccessToken string `json:"access_token"`
	}
	err := c.do(ctx, http.MethodPost, "/auth/refresh", map[string]string{
		"refresh_token": refreshToken,
	}, "", http.StatusOK, &result)
	if err != nil {
		return "", fmt.Errorf("refresh: %w", err)
	}
	return result.AccessToken, nil
}

// Profile fetches the caller's profile
func (c *APIClient) Profile(ctx context.Context, token string) (*Profile, error) {
	var profile Profile
	if err := c.do(ctx, http.MethodGet, "/auth/profile", nil, token, http.StatusOK, &profile); err != nil {
		return nil, fmt.Errorf("profile: %w", err)
	}
	return &profile, nil
}

// CreateTask adds a task for the caller
func (c *APIClient) CreateTask(ctx context.Context, token, text string) (*Task, error) {
	var task Task
	err := c.do(ctx, http.MethodPost, "/tasks", map[string]interface{}{"text": text}, token, http.StatusCreated, &task)
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return &task, nil
}

// ListTasks returns the caller's tasks
func (c *APIClient) ListTasks(ctx context.Context, token string) ([]Task, error) {
	var tasks []Task
	if err := c.do(ctx, http.MethodGet, "/tasks", nil, token, http.StatusOK, &tasks); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// ToggleTask flips a task's completed flag
func (c *APIClient) ToggleTask(ctx context.Context, token, id string) (*Task, error) {
	var task Task
	if err := c.do(ctx, http.MethodPatch, "/tasks/"+id+"/toggle", nil, token, http.StatusOK, &task); err != nil {
		return nil, fmt.Errorf("toggle task %s: %w", id, err)
	}
	return &task, nil
}

// DeleteTask removes a task
func (c *APIClient) DeleteTask(ctx context.Context, token, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/tasks/"+id, nil, token, http.StatusOK, nil); err != nil {
		return fmt.Errorf("delete task %s: %w", id, err)
	}
	return nil
}

// Status performs a request and returns only the status code
func (c *APIClient) Status(ctx context.Context, method, path, token string) (int, error) {
	resp, err := c.request(ctx, method, path, nil, token)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

func (c *APIClient) do(ctx context.Context, method, path string, body interface{}, token string, wantStatus int, out interface{}) error {
	resp, err := c.request(ctx, method, path, body, token)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *APIClient) request(ctx context.Context, method, path string, body interface{}, token string) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal body: %w", err)
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return c.httpClient.Do(req)
}
