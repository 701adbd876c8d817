package models

import "time"

// TaskPriority enumerates the allowed priorities.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

// Valid reports whether p is one of the known priorities.
func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Task represents a TODO item owned by a user. Status is false while
// pending, true once completed.
type Task struct {
	ID          string       `db:"id" json:"id"`
	Name        string       `db:"name" json:"name"`
	Description string       `db:"description" json:"description"`
	Priority    TaskPriority `db:"priority" json:"priority"`
	Status      bool         `db:"status" json:"status"`
	UserID      string       `db:"user_id" json:"user_id"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at" json:"updated_at"`
}

// CreateTaskRequest is the payload for creating a task.
type CreateTaskRequest struct {
	Name        string       `json:"name" validate:"required,max=52"`
	Description string       `json:"description" validate:"required,max=256"`
	Priority    TaskPriority `json:"priority" validate:"required"`
}

// UpdateTaskRequest carries the mutable task fields. Nil means unchanged.
type UpdateTaskRequest struct {
	Name        *string       `json:"name" validate:"omitempty,max=52"`
	Description *string       `json:"description" validate:"omitempty,max=256"`
	Priority    *TaskPriority `json:"priority"`
	Status      *bool         `json:"status"`
}

// TaskFilter captures filtering criteria for listing a user's tasks.
type TaskFilter struct {
	UserID   string
	Priority *TaskPriority
	Status   *bool
	Page     int
	PageSize int
}
