package repository

import (
	"context"
	"errors"
	"time"

	"github.com/dom/todo-api/internal/domain"
	"github.com/google/uuid"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrDuplicateEmail = errors.New("email already exists")
)

// UserRepository is the credential store. Create must reject duplicate
// emails with ErrDuplicateEmail, enforced by the store itself.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// TaskRepository scopes every lookup and mutation to ownerID. A task owned
// by someone else is reported as ErrNotFound.
type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) error
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Task, error)
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Task, error)
	Update(ctx context.Context, ownerID, id uuid.UUID, changes domain.TaskChanges) (*domain.Task, error)
	Toggle(ctx context.Context, ownerID, id uuid.UUID, at time.Time) (*domain.Task, error)
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
}

type Repositories struct {
	User UserRepository
	Task TaskRepository
}
