package postgres

import (
	"context"
	"time"

	"github.com/dom/todo-api/internal/domain"
	"github.com/dom/todo-api/internal/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type taskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *taskRepository {
	return &taskRepository{db: db}
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

func (r *taskRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Task, error) {
	var tasks []*domain.Task
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *taskRepository) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Task, error) {
	var task domain.Task
	err := r.db.WithContext(ctx).First(&task, "id = ? AND owner_id = ?", id, ownerID).Error
	if err != nil {
		return nil, translate(err)
	}
	return &task, nil
}

func (r *taskRepository) Update(ctx context.Context, ownerID, id uuid.UUID, changes domain.TaskChanges) (*domain.Task, error) {
	updates := map[string]interface{}{
		"updated_at": changes.UpdatedAt,
	}
	if changes.Text != nil {
		updates["text"] = *changes.Text
	}
	if changes.Completed != nil {
		updates["completed"] = *changes.Completed
	}
	return r.updateReturning(ctx, ownerID, id, updates)
}

// Toggle flips completed in a single statement so concurrent toggles do not
// lose updates.
func (r *taskRepository) Toggle(ctx context.Context, ownerID, id uuid.UUID, at time.Time) (*domain.Task, error) {
	return r.updateReturning(ctx, ownerID, id, map[string]interface{}{
		"completed":  gorm.Expr("NOT completed"),
		"updated_at": at,
	})
}

func (r *taskRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&domain.Task{}, "id = ? AND owner_id = ?", id, ownerID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *taskRepository) updateReturning(ctx context.Context, ownerID, id uuid.UUID, updates map[string]interface{}) (*domain.Task, error) {
	var tasks []*domain.Task
	res := r.db.WithContext(ctx).
		Model(&tasks).
		Clauses(clause.Returning{}).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 || len(tasks) == 0 {
		return nil, repository.ErrNotFound
	}
	return tasks[0], nil
}
