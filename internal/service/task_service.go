package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/godolist/godo-api/internal/models"
	appErrors "github.com/godolist/godo-api/pkg/errors"
	"github.com/godolist/godo-api/pkg/export"
)

type taskRepository interface {
	FindByID(ctx context.Context, id string) (*models.Task, error)
	ListAll(ctx context.Context) ([]models.Task, error)
	ListByUser(ctx context.Context, filter models.TaskFilter) ([]models.Task, int, error)
	Create(ctx context.Context, task *models.Task) error
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, id string) error
}

// TaskService implements the TODO use cases. Ownership is enforced here:
// every mutating or single-item operation requires the caller to own the
// task.
type TaskService struct {
	repo      taskRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTaskService constructs a TaskService instance.
func NewTaskService(repo taskRepository, validate *validator.Validate, logger *zap.Logger) *TaskService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaskService{repo: repo, validator: validate, logger: logger}
}

// ListAll returns every task in the system. Serves the public listing.
func (s *TaskService) ListAll(ctx context.Context) ([]models.Task, error) {
	tasks, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list tasks")
	}
	return tasks, nil
}

// ListByUser returns the caller's tasks with filters and pagination.
func (s *TaskService) ListByUser(ctx context.Context, filter models.TaskFilter) ([]models.Task, *models.Pagination, error) {
	if filter.Priority != nil && !filter.Priority.Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "priority must be one of: low, medium, high")
	}

	tasks, total, err := s.repo.ListByUser(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list tasks")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	return tasks, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Get returns one task if it belongs to the caller.
func (s *TaskService) Get(ctx context.Context, id, userID string) (*models.Task, error) {
	task, err := s.findOwned(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	return task, nil
}

// Create validates and stores a new task owned by userID.
func (s *TaskService) Create(ctx context.Context, req models.CreateTaskRequest, userID string) (*models.Task, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid task payload")
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "task name cannot be empty")
	}
	if strings.TrimSpace(req.Description) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "task description cannot be empty")
	}
	if !req.Priority.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "priority must be one of: low, medium, high")
	}

	task := &models.Task{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		Priority:    req.Priority,
		Status:      false,
		UserID:      userID,
	}
	if err := s.repo.Create(ctx, task); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create task")
	}
	return task, nil
}

// Update applies the provided fields to a task the caller owns.
func (s *TaskService) Update(ctx context.Context, id, userID string, req models.UpdateTaskRequest) (*models.Task, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid task payload")
	}

	task, err := s.findOwned(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "task name cannot be empty")
		}
		task.Name = *req.Name
	}
	if req.Description != nil {
		if strings.TrimSpace(*req.Description) == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "task description cannot be empty")
		}
		task.Description = *req.Description
	}
	if req.Priority != nil {
		if !req.Priority.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "priority must be one of: low, medium, high")
		}
		task.Priority = *req.Priority
	}
	if req.Status != nil {
		task.Status = *req.Status
	}

	if err := s.repo.Update(ctx, task); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update task")
	}
	return task, nil
}

// Delete removes a task the caller owns.
func (s *TaskService) Delete(ctx context.Context, id, userID string) error {
	if _, err := s.findOwned(ctx, id, userID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete task")
	}
	return nil
}

// exportPageSize is the repository page size used when draining a user's
// tasks for export.
const exportPageSize = 100

// Export renders the caller's tasks as CSV or PDF bytes. The full task set
// is exported, paging through the repository until exhausted.
func (s *TaskService) Export(ctx context.Context, userID, format string) ([]byte, string, error) {
	var tasks []models.Task
	for page := 1; ; page++ {
		batch, _, err := s.repo.ListByUser(ctx, models.TaskFilter{
			UserID:   userID,
			Page:     page,
			PageSize: exportPageSize,
		})
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list tasks")
		}
		tasks = append(tasks, batch...)
		if len(batch) < exportPageSize {
			break
		}
	}

	table := export.Table{
		Title:   "My Tasks",
		Columns: []string{"Name", "Description", "Priority", "Status", "Created"},
	}
	for _, t := range tasks {
		status := "pending"
		if t.Status {
			status = "done"
		}
		table.Rows = append(table.Rows, []string{
			t.Name, t.Description, string(t.Priority), status,
			t.CreatedAt.Format(time.RFC3339),
		})
	}

	switch format {
	case "csv", "":
		data, err := export.CSV(table)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return data, "text/csv", nil
	case "pdf":
		data, err := export.PDF(table)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return data, "application/pdf", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}

func (s *TaskService) findOwned(ctx context.Context, id, userID string) (*models.Task, error) {
	task, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "task not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load task")
	}
	if task.UserID != userID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "task belongs to another user")
	}
	return task, nil
}
