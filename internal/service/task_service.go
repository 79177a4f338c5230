package service

import (
	"context"
	"errors"
	"time"

	"github.com/dom/todo-api/internal/domain"
	"github.com/dom/todo-api/internal/repository"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/google/uuid"
)

// TaskEventPublisher receives task changes after they are persisted.
type TaskEventPublisher interface {
	PublishTaskEvent(ownerID uuid.UUID, event domain.TaskEvent)
}

type TaskService struct {
	tasks  repository.TaskRepository
	events TaskEventPublisher
	now    func() time.Time
}

func NewTaskService(tasks repository.TaskRepository, events TaskEventPublisher) *TaskService {
	return &TaskService{
		tasks:  tasks,
		events: events,
		now:    time.Now,
	}
}

type CreateTaskInput struct {
	Text      string
	Completed bool
}

func (i CreateTaskInput) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.Text, validation.Required, validation.Length(domain.TaskTextMinLength, domain.TaskTextMaxLength)),
	)
}

type UpdateTaskInput struct {
	Text      *string
	Completed *bool
}

func (i UpdateTaskInput) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.Text, validation.NilOrNotEmpty, validation.Length(domain.TaskTextMinLength, domain.TaskTextMaxLength)),
	)
}

func (s *TaskService) Create(ctx context.Context, ownerID uuid.UUID, input CreateTaskInput) (*domain.Task, error) {
	if err := input.Validate(); err != nil {
		return nil, domain.Validation(err.Error(), err)
	}

	task := &domain.Task{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Text:      input.Text,
		Completed: input.Completed,
		CreatedAt: s.now().UTC(),
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, domain.Internal(err)
	}

	s.publish(ownerID, domain.TaskEventCreated, task.ID, task)
	return task, nil
}

// List returns the owner's tasks, newest first.
func (s *TaskService) List(ctx context.Context, ownerID uuid.UUID) ([]*domain.Task, error) {
	tasks, err := s.tasks.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, domain.Internal(err)
	}
	if tasks == nil {
		tasks = []*domain.Task{}
	}
	return tasks, nil
}

func (s *TaskService) Get(ctx context.Context, ownerID uuid.UUID, taskID string) (*domain.Task, error) {
	id, err := parseTaskID(taskID)
	if err != nil {
		return nil, err
	}

	task, err := s.tasks.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, translateTaskErr(err)
	}
	return task, nil
}

func (s *TaskService) Update(ctx context.Context, ownerID uuid.UUID, taskID string, input UpdateTaskInput) (*domain.Task, error) {
	id, err := parseTaskID(taskID)
	if err != nil {
		return nil, err
	}
	if err := input.Validate(); err != nil {
		return nil, domain.Validation(err.Error(), err)
	}

	task, err := s.tasks.Update(ctx, ownerID, id, domain.TaskChanges{
		Text:      input.Text,
		Completed: input.Completed,
		UpdatedAt: s.now().UTC(),
	})
	if err != nil {
		return nil, translateTaskErr(err)
	}

	s.publish(ownerID, domain.TaskEventUpdated, task.ID, task)
	return task, nil
}

func (s *TaskService) Toggle(ctx context.Context, ownerID uuid.UUID, taskID string) (*domain.Task, error) {
	id, err := parseTaskID(taskID)
	if err != nil {
		return nil, err
	}

	task, err := s.tasks.Toggle(ctx, ownerID, id, s.now().UTC())
	if err != nil {
		return nil, translateTaskErr(err)
	}

	s.publish(ownerID, domain.TaskEventUpdated, task.ID, task)
	return task, nil
}

func (s *TaskService) Delete(ctx context.Context, ownerID uuid.UUID, taskID string) error {
	id, err := parseTaskID(taskID)
	if err != nil {
		return err
	}

	if err := s.tasks.Delete(ctx, ownerID, id); err != nil {
		return translateTaskErr(err)
	}

	s.publish(ownerID, domain.TaskEventDeleted, id, nil)
	return nil
}

func (s *TaskService) publish(ownerID uuid.UUID, eventType domain.TaskEventType, id uuid.UUID, task *domain.Task) {
	if s.events == nil {
		return
	}
	s.events.PublishTaskEvent(ownerID, domain.TaskEvent{Type: eventType, TaskID: id, Task: task})
}

func parseTaskID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, domain.ErrInvalidTaskID.Wrap(err)
	}
	return id, nil
}

func translateTaskErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return domain.ErrTaskNotFound
	}
	return domain.Internal(err)
}
