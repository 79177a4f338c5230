package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	TaskTextMinLength = 1
	TaskTextMaxLength = 500
)

// Task is a to-do item owned by a single user. OwnerID references User.ID.
type Task struct {
	ID        uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	OwnerID   uuid.UUID  `json:"-" gorm:"type:uuid;not null;index:idx_tasks_owner_created,priority:1"`
	Text      string     `json:"text" gorm:"type:varchar(500);not null"`
	Completed bool       `json:"completed" gorm:"not null;default:false"`
	CreatedAt time.Time  `json:"created_at" gorm:"index:idx_tasks_owner_created,priority:2,sort:desc"`
	UpdatedAt *time.Time `json:"updated_at" gorm:"autoUpdateTime:false"`
}

// TaskChanges carries a partial update. Nil fields are left untouched.
type TaskChanges struct {
	Text      *string
	Completed *bool
	UpdatedAt time.Time
}

type TaskEventType string

const (
	TaskEventCreated TaskEventType = "TASK_CREATED"
	TaskEventUpdated TaskEventType = "TASK_UPDATED"
	TaskEventDeleted TaskEventType = "TASK_DELETED"
)

type TaskEvent struct {
	Type   TaskEventType
	TaskID uuid.UUID
	Task   *Task
}
