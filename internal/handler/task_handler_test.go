package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/godolist/godo-api/internal/middleware"
	"github.com/godolist/godo-api/internal/models"
	appErrors "github.com/godolist/godo-api/pkg/errors"
)

type stubTaskService struct {
	tasks     []models.Task
	task      *models.Task
	err       error
	gotFilter models.TaskFilter
}

func (s *stubTaskService) ListAll(ctx context.Context) ([]models.Task, error) {
	return s.tasks, s.err
}

func (s *stubTaskService) ListByUser(ctx context.Context, filter models.TaskFilter) ([]models.Task, *models.Pagination, error) {
	s.gotFilter = filter
	if s.err != nil {
		return nil, nil, s.err
	}
	return s.tasks, &models.Pagination{Page: 1, PageSize: 20, TotalCount: len(s.tasks)}, nil
}

func (s *stubTaskService) Get(ctx context.Context, id, userID string) (*models.Task, error) {
	return s.task, s.err
}

func (s *stubTaskService) Create(ctx context.Context, req models.CreateTaskRequest, userID string) (*models.Task, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.Task{ID: "task-new", Name: req.Name, Priority: req.Priority, UserID: userID}, nil
}

func (s *stubTaskService) Update(ctx context.Context, id, userID string, req models.UpdateTaskRequest) (*models.Task, error) {
	return s.task, s.err
}

func (s *stubTaskService) Delete(ctx context.Context, id, userID string) error {
	return s.err
}

func (s *stubTaskService) Export(ctx context.Context, userID, format string) ([]byte, string, error) {
	if s.err != nil {
		return nil, "", s.err
	}
	return []byte("Name,Description\n"), "text/csv", nil
}

func newTaskRouter(svc *stubTaskService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewTaskHandler(svc)
	r := gin.New()

	authed := func(c *gin.Context) {
		c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "user-1"})
	}

	r.GET("/tasks", h.ListAll)
	r.GET("/tasks/todo/list", authed, h.ListMine)
	r.GET("/tasks/todo/list/:id", authed, h.Get)
	r.POST("/tasks/todo/create", authed, h.Create)
	r.PATCH("/tasks/todo/update/:id", authed, h.Update)
	r.DELETE("/tasks/todo/list/:id", authed, h.Delete)
	r.GET("/tasks/todo/export", authed, h.Export)
	return r
}

func TestTaskHandlerListAllIsPublic(t *testing.T) {
	svc := &stubTaskService{tasks: []models.Task{{ID: "task-1", Name: "Buy milk"}}}
	r := newTaskRouter(svc)

	// No Authorization header at all.
	w := performRequest(r, http.MethodGet, "/tasks", "", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Buy milk")
}

func TestTaskHandlerListMineParsesFilters(t *testing.T) {
	svc := &stubTaskService{}
	r := newTaskRouter(svc)

	w := performRequest(r, http.MethodGet, "/tasks/todo/list?priority=high&status=true&page=2&limit=5", "", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user-1", svc.gotFilter.UserID)
	require.NotNil(t, svc.gotFilter.Priority)
	assert.Equal(t, models.PriorityHigh, *svc.gotFilter.Priority)
	require.NotNil(t, svc.gotFilter.Status)
	assert.True(t, *svc.gotFilter.Status)
	assert.Equal(t, 2, svc.gotFilter.Page)
	assert.Equal(t, 5, svc.gotFilter.PageSize)
}

func TestTaskHandlerListMineBadStatus(t *testing.T) {
	r := newTaskRouter(&stubTaskService{})

	w := performRequest(r, http.MethodGet, "/tasks/todo/list?status=banana", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTaskHandlerCreate(t *testing.T) {
	r := newTaskRouter(&stubTaskService{})

	w := performRequest(r, http.MethodPost, "/tasks/todo/create",
		`{"name":"Buy milk","description":"2 liters","priority":"low"}`, nil)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "task-new")
}

func TestTaskHandlerForbidden(t *testing.T) {
	svc := &stubTaskService{err: appErrors.Clone(appErrors.ErrForbidden, "task belongs to another user")}
	r := newTaskRouter(svc)

	w := performRequest(r, http.MethodGet, "/tasks/todo/list/task-1", "", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = performRequest(r, http.MethodDelete, "/tasks/todo/list/task-1", "", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestTaskHandlerDelete(t *testing.T) {
	r := newTaskRouter(&stubTaskService{})

	w := performRequest(r, http.MethodDelete, "/tasks/todo/list/task-1", "", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestTaskHandlerExport(t *testing.T) {
	r := newTaskRouter(&stubTaskService{})

	w := performRequest(r, http.MethodGet, "/tasks/todo/export?format=csv", "", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "tasks.csv")
}
