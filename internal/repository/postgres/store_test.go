package postgres_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dom/todo-api/internal/domain"
	"github.com/dom/todo-api/internal/repository"
	"github.com/dom/todo-api/internal/repository/postgres"
	"github.com/dom/todo-api/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresStore(t *testing.T) {
	testDB := testutil.NewTestDB(t)

	testutil.RunRepositoryContract(t, func(t *testing.T) *repository.Repositories {
		testDB.Truncate(t)
		return postgres.NewRepositories(testDB.DB)
	})
}

func TestUserRepository_UniqueIndexUnderConcurrency(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewUserRepository(testDB.DB)

	const attempts = 8
	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- repo.Create(context.Background(), &domain.User{
				ID:           uuid.New(),
				Email:        "race@example.com",
				PasswordHash: "hash",
				CreatedAt:    time.Now().UTC(),
			})
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, repository.ErrDuplicateEmail)
	}
	assert.Equal(t, 1, succeeded)

	var count int64
	require.NoError(t, testDB.DB.Model(&domain.User{}).Where("email = ?", "race@example.com").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestTaskRepository_ConcurrentToggles(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repos := postgres.NewRepositories(testDB.DB)

	owner, _ := testutil.NewUserBuilder().Build(t, repos.User)
	task := testutil.NewTaskBuilder(owner).Build(t, repos.Task)

	const toggles = 10
	var wg sync.WaitGroup
	for i := 0; i < toggles; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repos.Task.Toggle(context.Background(), owner.ID, task.ID, time.Now().UTC())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := repos.Task.GetByID(context.Background(), owner.ID, task.ID)
	require.NoError(t, err)
	assert.False(t, got.Completed, "an even number of toggles should leave the task open")
}
