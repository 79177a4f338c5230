package service_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/dom/todo-api/internal/domain"
	"github.com/dom/todo-api/internal/repository/memory"
	"github.com/dom/todo-api/internal/service"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type publishedEvent struct {
	ownerID uuid.UUID
	event   domain.TaskEvent
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) PublishTaskEvent(ownerID uuid.UUID, event domain.TaskEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{ownerID: ownerID, event: event})
}

func (p *recordingPublisher) last(t *testing.T) publishedEvent {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	require.NotEmpty(t, p.events, "no events published")
	return p.events[len(p.events)-1]
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func newTaskService() (*service.TaskService, *recordingPublisher) {
	events := &recordingPublisher{}
	return service.NewTaskService(memory.NewTaskRepository(), events), events
}

func TestTaskService_Create(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()

	tests := []struct {
		name     string
		input    service.CreateTaskInput
		wantKind domain.Kind
	}{
		{name: "plain task", input: service.CreateTaskInput{Text: "buy milk"}},
		{name: "already completed", input: service.CreateTaskInput{Text: "done thing", Completed: true}},
		{name: "max length text", input: service.CreateTaskInput{Text: strings.Repeat("a", domain.TaskTextMaxLength)}},
		{name: "empty text", input: service.CreateTaskInput{Text: ""}, wantKind: domain.KindValidation},
		{name: "text too long", input: service.CreateTaskInput{Text: strings.Repeat("a", domain.TaskTextMaxLength+1)}, wantKind: domain.KindValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, events := newTaskService()

			task, err := svc.Create(ctx, owner, tt.input)

			if tt.wantKind != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantKind, domain.KindOf(err))
				assert.Zero(t, events.count())
				return
			}

			require.NoError(t, err)
			assert.NotEqual(t, uuid.Nil, task.ID)
			assert.Equal(t, owner, task.OwnerID)
			assert.Equal(t, tt.input.Text, task.Text)
			assert.Equal(t, tt.input.Completed, task.Completed)
			assert.False(t, task.CreatedAt.IsZero())
			assert.Nil(t, task.UpdatedAt)

			published := events.last(t)
			assert.Equal(t, owner, published.ownerID)
			assert.Equal(t, domain.TaskEventCreated, published.event.Type)
			assert.Equal(t, task.ID, published.event.TaskID)
		})
	}
}

func TestTaskService_ListIsScopedToOwner(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTaskService()
	alice, bob := uuid.New(), uuid.New()

	empty, err := svc.List(ctx, alice)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	first, err := svc.Create(ctx, alice, service.CreateTaskInput{Text: "first"})
	require.NoError(t, err)
	second, err := svc.Create(ctx, alice, service.CreateTaskInput{Text: "second"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, bob, service.CreateTaskInput{Text: "bob's"})
	require.NoError(t, err)

	tasks, err := svc.List(ctx, alice)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	ids := []uuid.UUID{tasks[0].ID, tasks[1].ID}
	assert.ElementsMatch(t, []uuid.UUID{first.ID, second.ID}, ids)
	assert.False(t, tasks[0].CreatedAt.Before(tasks[1].CreatedAt), "tasks should be newest first")

	bobTasks, err := svc.List(ctx, bob)
	require.NoError(t, err)
	assert.Len(t, bobTasks, 1)
}

func TestTaskService_Get(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTaskService()
	owner, stranger := uuid.New(), uuid.New()

	task, err := svc.Create(ctx, owner, service.CreateTaskInput{Text: "read book"})
	require.NoError(t, err)

	tests := []struct {
		name    string
		ownerID uuid.UUID
		taskID  string
		wantErr error
	}{
		{name: "own task", ownerID: owner, taskID: task.ID.String()},
		{name: "other owner's task", ownerID: stranger, taskID: task.ID.String(), wantErr: domain.ErrTaskNotFound},
		{name: "unknown id", ownerID: owner, taskID: uuid.NewString(), wantErr: domain.ErrTaskNotFound},
		{name: "malformed id", ownerID: owner, taskID: "not-a-uuid", wantErr: domain.ErrInvalidTaskID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Get(ctx, tt.ownerID, tt.taskID)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, task.Text, got.Text)
		})
	}
}

func TestTaskService_Update(t *testing.T) {
	ctx := context.Background()
	svc, events := newTaskService()
	owner := uuid.New()

	task, err := svc.Create(ctx, owner, service.CreateTaskInput{Text: "draft"})
	require.NoError(t, err)

	t.Run("text only", func(t *testing.T) {
		updated, err := svc.Update(ctx, owner, task.ID.String(), service.UpdateTaskInput{Text: strPtr("final")})
		require.NoError(t, err)
		assert.Equal(t, "final", updated.Text)
		assert.False(t, updated.Completed)
		require.NotNil(t, updated.UpdatedAt)
		assert.Equal(t, task.CreatedAt, updated.CreatedAt)

		published := events.last(t)
		assert.Equal(t, domain.TaskEventUpdated, published.event.Type)
		assert.Equal(t, "final", published.event.Task.Text)
	})

	t.Run("completed only", func(t *testing.T) {
		updated, err := svc.Update(ctx, owner, task.ID.String(), service.UpdateTaskInput{Completed: boolPtr(true)})
		require.NoError(t, err)
		assert.Equal(t, "final", updated.Text)
		assert.True(t, updated.Completed)
	})

	t.Run("empty text rejected", func(t *testing.T) {
		_, err := svc.Update(ctx, owner, task.ID.String(), service.UpdateTaskInput{Text: strPtr("")})
		assert.Equal(t, domain.KindValidation, domain.KindOf(err))
	})

	t.Run("other owner cannot update", func(t *testing.T) {
		_, err := svc.Update(ctx, uuid.New(), task.ID.String(), service.UpdateTaskInput{Text: strPtr("hijack")})
		assert.ErrorIs(t, err, domain.ErrTaskNotFound)

		got, err := svc.Get(ctx, owner, task.ID.String())
		require.NoError(t, err)
		assert.Equal(t, "final", got.Text)
	})
}

func TestTaskService_Toggle(t *testing.T) {
	ctx := context.Background()
	svc, events := newTaskService()
	owner := uuid.New()

	task, err := svc.Create(ctx, owner, service.CreateTaskInput{Text: "water plants"})
	require.NoError(t, err)

	toggled, err := svc.Toggle(ctx, owner, task.ID.String())
	require.NoError(t, err)
	assert.True(t, toggled.Completed)
	assert.NotNil(t, toggled.UpdatedAt)
	assert.Equal(t, domain.TaskEventUpdated, events.last(t).event.Type)

	toggled, err = svc.Toggle(ctx, owner, task.ID.String())
	require.NoError(t, err)
	assert.False(t, toggled.Completed)

	_, err = svc.Toggle(ctx, uuid.New(), task.ID.String())
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}

func TestTaskService_Delete(t *testing.T) {
	ctx := context.Background()
	svc, events := newTaskService()
	owner := uuid.New()

	task, err := svc.Create(ctx, owner, service.CreateTaskInput{Text: "temporary"})
	require.NoError(t, err)

	err = svc.Delete(ctx, uuid.New(), task.ID.String())
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)

	require.NoError(t, svc.Delete(ctx, owner, task.ID.String()))
	published := events.last(t)
	assert.Equal(t, domain.TaskEventDeleted, published.event.Type)
	assert.Equal(t, task.ID, published.event.TaskID)
	assert.Nil(t, published.event.Task)

	_, err = svc.Get(ctx, owner, task.ID.String())
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)

	err = svc.Delete(ctx, owner, task.ID.String())
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}

func TestTaskService_NilPublisher(t *testing.T) {
	svc := service.NewTaskService(memory.NewTaskRepository(), nil)

	_, err := svc.Create(context.Background(), uuid.New(), service.CreateTaskInput{Text: "quiet"})
	assert.NoError(t, err)
}
