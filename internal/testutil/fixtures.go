package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/dom/todo-api/internal/domain"
	"github.com/dom/todo-api/internal/repository"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// UserBuilder creates test users with a builder pattern
type UserBuilder struct {
	email    string
	password string
}

// NewUserBuilder creates a new UserBuilder with default values
func NewUserBuilder() *UserBuilder {
	return &UserBuilder{
		email:    fmt.Sprintf("user_%s@example.com", uuid.New().String()[:8]),
		password: "testpassword123",
	}
}

// WithEmail sets the email
func (b *UserBuilder) WithEmail(email string) *UserBuilder {
	b.email = email
	return b
}

// WithPassword sets the password
func (b *UserBuilder) WithPassword(password string) *UserBuilder {
	b.password = password
	return b
}

// Build stores the user through repo and returns it with the raw password
func (b *UserBuilder) Build(t *testing.T, repo repository.UserRepository) (*domain.User, string) {
	t.Helper()

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(b.password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &domain.User{
		ID:           uuid.New(),
		Email:        b.email,
		PasswordHash: string(hashedPassword),
		CreatedAt:    time.Now().UTC(),
	}

	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return user, b.password
}

// AuthResponse matches the register and login response
type AuthResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// BuildAndAuthenticate registers the user via the API and returns its tokens
func (b *UserBuilder) BuildAndAuthenticate(t *testing.T, ts *TestServer) AuthResponse {
	t.Helper()

	resp := PostJSON(t, ts.APIURL("/auth/register"), map[string]string{
		"email":    b.email,
		"password": b.password,
	}, "")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("unexpected status code: %d: %s", resp.StatusCode, body)
	}

	var authResp AuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&authResp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	return authResp
}

// TaskBuilder creates test tasks with a builder pattern
type TaskBuilder struct {
	owner     *domain.User
	text      string
	completed bool
	createdAt time.Time
}

// NewTaskBuilder creates a task owned by owner
func NewTaskBuilder(owner *domain.User) *TaskBuilder {
	return &TaskBuilder{
		owner:     owner,
		text:      fmt.Sprintf("task %s", uuid.New().String()[:8]),
		createdAt: time.Now().UTC().Truncate(time.Millisecond),
	}
}

// WithText sets the task text
func (b *TaskBuilder) WithText(text string) *TaskBuilder {
	b.text = text
	return b
}

// WithCompleted sets the completed flag
func (b *TaskBuilder) WithCompleted(completed bool) *TaskBuilder {
	b.completed = completed
	return b
}

// WithCreatedAt sets the creation timestamp
func (b *TaskBuilder) WithCreatedAt(createdAt time.Time) *TaskBuilder {
	b.createdAt = createdAt.UTC().Truncate(time.Millisecond)
	return b
}

// Build stores the task through repo
func (b *TaskBuilder) Build(t *testing.T, repo repository.TaskRepository) *domain.Task {
	t.Helper()

	task := &domain.Task{
		ID:        uuid.New(),
		OwnerID:   b.owner.ID,
		Text:      b.text,
		Completed: b.completed,
		CreatedAt: b.createdAt,
	}

	if err := repo.Create(context.Background(), task); err != nil {
		t.Fatalf("failed to create task: %v", err)
	}

	return task
}

// PostJSON sends body as JSON with an optional bearer token
func PostJSON(t *testing.T, url string, body interface{}, token string) *http.Response {
	t.Helper()
	return DoJSON(t, http.MethodPost, url, body, token)
}

// DoJSON sends an HTTP request with an optional JSON body and bearer token
func DoJSON(t *testing.T, method, url string, body interface{}, token string) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, url, err)
	}
	return resp
}
