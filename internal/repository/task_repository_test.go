package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/godolist/godo-api/internal/models"
)

func taskRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "description", "priority", "status", "user_id", "created_at", "updated_at"})
}

func TestTaskRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewTaskRepository(db)
	mock.ExpectQuery("SELECT (.+) FROM tasks WHERE id").
		WithArgs("task-1").
		WillReturnRows(taskRows().AddRow("task-1", "Buy milk", "2 liters", "low", false, "user-1", time.Now(), time.Now()))

	task, err := repo.FindByID(context.Background(), "task-1")
	require.NoError(t, err)
	assert.Equal(t, "Buy milk", task.Name)
	assert.Equal(t, models.PriorityLow, task.Priority)
}

func TestTaskRepositoryListByUser(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewTaskRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM tasks WHERE user_id = \\$1 ORDER BY").
		WithArgs("user-1").
		WillReturnRows(taskRows().
			AddRow("task-1", "Buy milk", "2 liters", "low", false, "user-1", time.Now(), time.Now()).
			AddRow("task-2", "Ship release", "v1.0", "high", true, "user-1", time.Now(), time.Now()))
	mock.ExpectQuery("SELECT COUNT").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	tasks, total, err := repo.ListByUser(context.Background(), models.TaskFilter{UserID: "user-1"})
	require.NoError(t, err)
	assert.Len(t, tasks, 2)
	assert.Equal(t, 2, total)
}

func TestTaskRepositoryListByUserWithFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewTaskRepository(db)
	priority := models.PriorityHigh
	status := false

	mock.ExpectQuery("SELECT (.+) FROM tasks WHERE user_id = \\$1 AND priority = \\$2 AND status = \\$3").
		WithArgs("user-1", priority, status).
		WillReturnRows(taskRows())
	mock.ExpectQuery("SELECT COUNT").
		WithArgs("user-1", priority, status).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	tasks, total, err := repo.ListByUser(context.Background(), models.TaskFilter{
		UserID:   "user-1",
		Priority: &priority,
		Status:   &status,
	})
	require.NoError(t, err)
	assert.Empty(t, tasks)
	assert.Zero(t, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewTaskRepository(db)
	mock.ExpectExec("INSERT INTO tasks").
		WillReturnResult(sqlmock.NewResult(0, 1))

	task := &models.Task{
		Name:     "Buy milk",
		Priority: models.PriorityLow,
		UserID:   "user-1",
	}
	require.NoError(t, repo.Create(context.Background(), task))
	assert.NotEmpty(t, task.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepositoryUpdate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewTaskRepository(db)
	mock.ExpectExec("UPDATE tasks SET").
		WillReturnResult(sqlmock.NewResult(0, 1))

	task := &models.Task{ID: "task-1", Name: "Buy milk", Priority: models.PriorityMedium, UserID: "user-1"}
	require.NoError(t, repo.Update(context.Background(), task))
	assert.False(t, task.UpdatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewTaskRepository(db)
	mock.ExpectExec("DELETE FROM tasks").
		WithArgs("task-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "task-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
