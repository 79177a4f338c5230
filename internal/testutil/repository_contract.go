package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dom/todo-api/internal/domain"
	"github.com/dom/todo-api/internal/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RepositoryFactory returns empty repositories for a single subtest.
type RepositoryFactory func(t *testing.T) *repository.Repositories

// RunRepositoryContract exercises behavior every store backend must share.
func RunRepositoryContract(t *testing.T, newRepos RepositoryFactory) {
	t.Run("UserCreateAndGet", func(t *testing.T) {
		repos := newRepos(t)
		ctx := context.Background()

		user, _ := NewUserBuilder().WithEmail("contract@example.com").Build(t, repos.User)

		got, err := repos.User.GetByEmail(ctx, "contract@example.com")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
		assert.Equal(t, user.PasswordHash, got.PasswordHash)
		assert.WithinDuration(t, user.CreatedAt, got.CreatedAt, time.Millisecond)
	})

	t.Run("UserNotFound", func(t *testing.T) {
		repos := newRepos(t)

		_, err := repos.User.GetByEmail(context.Background(), "nobody@example.com")
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("UserDuplicateEmail", func(t *testing.T) {
		repos := newRepos(t)
		NewUserBuilder().WithEmail("dup@example.com").Build(t, repos.User)

		err := repos.User.Create(context.Background(), &domain.User{
			ID:           uuid.New(),
			Email:        "dup@example.com",
			PasswordHash: "irrelevant",
			CreatedAt:    time.Now().UTC(),
		})
		assert.ErrorIs(t, err, repository.ErrDuplicateEmail)
	})

	t.Run("TaskListNewestFirstPerOwner", func(t *testing.T) {
		repos := newRepos(t)
		ctx := context.Background()
		alice, _ := NewUserBuilder().Build(t, repos.User)
		bob, _ := NewUserBuilder().Build(t, repos.User)

		base := time.Now().UTC().Add(-time.Hour)
		oldest := NewTaskBuilder(alice).WithText("oldest").WithCreatedAt(base).Build(t, repos.Task)
		newest := NewTaskBuilder(alice).WithText("newest").WithCreatedAt(base.Add(2*time.Minute)).Build(t, repos.Task)
		middle := NewTaskBuilder(alice).WithText("middle").WithCreatedAt(base.Add(time.Minute)).Build(t, repos.Task)
		NewTaskBuilder(bob).Build(t, repos.Task)

		tasks, err := repos.Task.ListByOwner(ctx, alice.ID)
		require.NoError(t, err)
		require.Len(t, tasks, 3)
		assert.Equal(t, newest.ID, tasks[0].ID)
		assert.Equal(t, middle.ID, tasks[1].ID)
		assert.Equal(t, oldest.ID, tasks[2].ID)

		none, err := repos.Task.ListByOwner(ctx, uuid.New())
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("TaskGetScopedToOwner", func(t *testing.T) {
		repos := newRepos(t)
		ctx := context.Background()
		owner, _ := NewUserBuilder().Build(t, repos.User)
		task := NewTaskBuilder(owner).WithText("scoped").Build(t, repos.Task)

		got, err := repos.Task.GetByID(ctx, owner.ID, task.ID)
		require.NoError(t, err)
		assert.Equal(t, "scoped", got.Text)
		assert.Nil(t, got.UpdatedAt)

		_, err = repos.Task.GetByID(ctx, uuid.New(), task.ID)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("TaskUpdatePartial", func(t *testing.T) {
		repos := newRepos(t)
		ctx := context.Background()
		owner, _ := NewUserBuilder().Build(t, repos.User)
		task := NewTaskBuilder(owner).WithText("before").Build(t, repos.Task)

		text := "after"
		at := time.Now().UTC().Truncate(time.Millisecond)
		updated, err := repos.Task.Update(ctx, owner.ID, task.ID, domain.TaskChanges{Text: &text, UpdatedAt: at})
		require.NoError(t, err)
		assert.Equal(t, "after", updated.Text)
		assert.False(t, updated.Completed)
		require.NotNil(t, updated.UpdatedAt)
		assert.WithinDuration(t, at, *updated.UpdatedAt, time.Millisecond)

		completed := true
		updated, err = repos.Task.Update(ctx, owner.ID, task.ID, domain.TaskChanges{Completed: &completed, UpdatedAt: at})
		require.NoError(t, err)
		assert.Equal(t, "after", updated.Text)
		assert.True(t, updated.Completed)

		_, err = repos.Task.Update(ctx, uuid.New(), task.ID, domain.TaskChanges{Text: &text, UpdatedAt: at})
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("TaskToggle", func(t *testing.T) {
		repos := newRepos(t)
		ctx := context.Background()
		owner, _ := NewUserBuilder().Build(t, repos.User)
		task := NewTaskBuilder(owner).Build(t, repos.Task)

		toggled, err := repos.Task.Toggle(ctx, owner.ID, task.ID, time.Now().UTC())
		require.NoError(t, err)
		assert.True(t, toggled.Completed)

		toggled, err = repos.Task.Toggle(ctx, owner.ID, task.ID, time.Now().UTC())
		require.NoError(t, err)
		assert.False(t, toggled.Completed)

		_, err = repos.Task.Toggle(ctx, uuid.New(), task.ID, time.Now().UTC())
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("TaskDelete", func(t *testing.T) {
		repos := newRepos(t)
		ctx := context.Background()
		owner, _ := NewUserBuilder().Build(t, repos.User)
		task := NewTaskBuilder(owner).Build(t, repos.Task)

		assert.ErrorIs(t, repos.Task.Delete(ctx, uuid.New(), task.ID), repository.ErrNotFound)
		require.NoError(t, repos.Task.Delete(ctx, owner.ID, task.ID))
		assert.ErrorIs(t, repos.Task.Delete(ctx, owner.ID, task.ID), repository.ErrNotFound)

		_, err := repos.Task.GetByID(ctx, owner.ID, task.ID)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}
