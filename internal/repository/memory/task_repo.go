package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dom/todo-api/internal/domain"
	"github.com/dom/todo-api/internal/repository"
	"github.com/google/uuid"
)

type TaskRepository struct {
	mu    sync.RWMutex
	tasks map[uuid.UUID]*domain.Task
}

func NewTaskRepository() *TaskRepository {
	return &TaskRepository{tasks: make(map[uuid.UUID]*domain.Task)}
}

func (r *TaskRepository) Create(ctx context.Context, task *domain.Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}
	r.tasks[task.ID] = cloneTask(task)
	return nil
}

func (r *TaskRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	tasks := make([]*domain.Task, 0)
	for _, task := range r.tasks {
		if task.OwnerID == ownerID {
			tasks = append(tasks, cloneTask(task))
		}
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})
	return tasks, nil
}

func (r *TaskRepository) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	task, ok := r.owned(ownerID, id)
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneTask(task), nil
}

func (r *TaskRepository) Update(ctx context.Context, ownerID, id uuid.UUID, changes domain.TaskChanges) (*domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	task, ok := r.owned(ownerID, id)
	if !ok {
		return nil, repository.ErrNotFound
	}
	if changes.Text != nil {
		task.Text = *changes.Text
	}
	if changes.Completed != nil {
		task.Completed = *changes.Completed
	}
	updatedAt := changes.UpdatedAt
	task.UpdatedAt = &updatedAt
	return cloneTask(task), nil
}

func (r *TaskRepository) Toggle(ctx context.Context, ownerID, id uuid.UUID, at time.Time) (*domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	task, ok := r.owned(ownerID, id)
	if !ok {
		return nil, repository.ErrNotFound
	}
	task.Completed = !task.Completed
	task.UpdatedAt = &at
	return cloneTask(task), nil
}

func (r *TaskRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.owned(ownerID, id); !ok {
		return repository.ErrNotFound
	}
	delete(r.tasks, id)
	return nil
}

// owned must be called with r.mu held.
func (r *TaskRepository) owned(ownerID, id uuid.UUID) (*domain.Task, bool) {
	task, ok := r.tasks[id]
	if !ok || task.OwnerID != ownerID {
		return nil, false
	}
	return task, true
}

func cloneTask(task *domain.Task) *domain.Task {
	c := *task
	if task.UpdatedAt != nil {
		updatedAt := *task.UpdatedAt
		c.UpdatedAt = &updatedAt
	}
	return &c
}
