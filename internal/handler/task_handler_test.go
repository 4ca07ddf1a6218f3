package handler_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"todo/internal/handler"
	"todo/internal/model"
	"todo/internal/repository"
)

type MockTaskStore struct {
	mock.Mock
}

func (m *MockTaskStore) List(ctx context.Context, ownerID uuid.UUID, filter repository.TaskFilter, page repository.PageRequest) (*repository.Page[model.Task], error) {
	args := m.Called(ctx, ownerID, filter, page)
	p, _ := args.Get(0).(*repository.Page[model.Task])
	return p, args.Error(1)
}

func (m *MockTaskStore) Create(ctx context.Context, task *model.Task, tagIDs []uuid.UUID) error {
	args := m.Called(ctx, task, tagIDs)
	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *MockTaskStore) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*model.Task, error) {
	args := m.Called(ctx, ownerID, id)
	task, _ := args.Get(0).(*model.Task)
	return task, args.Error(1)
}

func (m *MockTaskStore) Update(ctx context.Context, ownerID, id uuid.UUID, upd repository.TaskUpdate) (*model.Task, error) {
	args := m.Called(ctx, ownerID, id, upd)
	task, _ := args.Get(0).(*model.Task)
	return task, args.Error(1)
}

func (m *MockTaskStore) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	return m.Called(ctx, ownerID, id).Error(0)
}

type MockTagOwnership struct {
	mock.Mock
}

func (m *MockTagOwnership) OwnedIDs(ctx context.Context, ownerID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]bool, error) {
	args := m.Called(ctx, ownerID, ids)
	owned, _ := args.Get(0).(map[uuid.UUID]bool)
	return owned, args.Error(1)
}

var (
	taskID = uuid.MustParse("22222222-2222-2222-2222-222222222222")
	tagA   = uuid.MustParse("33333333-3333-3333-3333-33333333333a")
	tagB   = uuid.MustParse("33333333-3333-3333-3333-33333333333b")
)

func setupTaskTest() (*gin.Engine, *MockTaskStore, *MockTagOwnership) {
	r := newRouter()
	tasks := new(MockTaskStore)
	tags := new(MockTagOwnership)
	h := handler.NewTaskHandler(tasks, tags)

	g := r.Group("/api", actingAs(testUser))
	g.GET("/tasks", h.List)
	g.POST("/tasks", h.Create)
	g.GET("/tasks/:id", h.Show)
	g.PUT("/tasks/:id", h.Update)
	g.DELETE("/tasks/:id", h.Delete)
	return r, tasks, tags
}

func sampleTask() *model.Task {
	due := model.NewDate(time.Date(2026, 10, 31, 0, 0, 0, 0, time.UTC))
	return &model.Task{
		ID:       taskID,
		UserID:   testUser.ID,
		Title:    "Write report",
		Status:   model.StatusPending,
		Priority: model.PriorityHigh,
		DueDate:  &due,
		Tags:     []model.Tag{{ID: tagA, UserID: testUser.ID, Name: "Work", Color: "#3498db"}},
	}
}

func TestTaskList_PassesFiltersAndPaging(t *testing.T) {
	router, tasks, _ := setupTaskTest()
	due := model.NewDate(time.Date(2026, 10, 31, 0, 0, 0, 0, time.UTC))
	tasks.On("List", mock.Anything, testUser.ID, repository.TaskFilter{
		Status:   model.StatusInProgress,
		Priority: model.PriorityHigh,
		TagID:    tagA,
		DueDate:  &due,
		Search:   "report",
	}, repository.PageRequest{Page: 2, PerPage: 5}).Return(&repository.Page[model.Task]{
		Items:   []model.Task{*sampleTask()},
		Total:   6,
		PerPage: 5,
		Page:    2,
	}, nil)

	rec := doJSON(router, http.MethodGet,
		"/api/tasks?status=in_progress&priority=high&tag_id="+tagA.String()+"&due_date=2026-10-31&search=+report+&page=2&per_page=5", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	env := decode(t, rec)
	assert.Equal(t, "Tasks retrieved successfully", env.Message)
	assert.Equal(t, map[string]int{"total": 6, "per_page": 5, "current_page": 2, "last_page": 2}, env.Pagination)
	assert.Contains(t, string(env.Data), `"due_date":"2026-10-31"`)
	tasks.AssertExpectations(t)
}

func TestTaskList_Overdue(t *testing.T) {
	router, tasks, _ := setupTaskTest()
	tasks.On("List", mock.Anything, testUser.ID, mock.MatchedBy(func(f repository.TaskFilter) bool {
		return f.OverdueAsOf != nil && f.OverdueAsOf.String() == model.Today(time.Now(), time.UTC).String()
	}), repository.PageRequest{}).Return(&repository.Page[model.Task]{PerPage: 15, Page: 1}, nil)

	rec := doJSON(router, http.MethodGet, "/api/tasks?overdue=true&page=abc", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, string(decode(t, rec).Data))
	tasks.AssertExpectations(t)
}

func TestTaskList_InvalidFilters(t *testing.T) {
	router, tasks, _ := setupTaskTest()

	rec := doJSON(router, http.MethodGet, "/api/tasks?status=done&priority=urgent&tag_id=xyz&due_date=2026-02-30", nil)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	env := decode(t, rec)
	assert.Equal(t, []string{"The selected status is invalid."}, env.Errors["status"])
	assert.Equal(t, []string{"The selected priority is invalid."}, env.Errors["priority"])
	assert.Contains(t, env.Errors, "tag_id")
	assert.Contains(t, env.Errors, "due_date")
	tasks.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestTaskCreate_Success(t *testing.T) {
	router, tasks, tags := setupTaskTest()
	tags.On("OwnedIDs", mock.Anything, testUser.ID, []uuid.UUID{tagA}).
		Return(map[uuid.UUID]bool{tagA: true}, nil)
	tasks.On("Create", mock.Anything, mock.MatchedBy(func(task *model.Task) bool {
		return task.UserID == testUser.ID &&
			task.Title == "Write report" &&
			task.Description == nil &&
			task.Priority == model.PriorityHigh &&
			task.DueDate != nil && task.DueDate.String() == "2026-10-31"
	}), []uuid.UUID{tagA}).Return(nil)
	tasks.On("GetByID", mock.Anything, testUser.ID, mock.Anything).Return(sampleTask(), nil)

	rec := doJSON(router, http.MethodPost, "/api/tasks", map[string]any{
		"title":       "  Write report ",
		"description": "   ",
		"priority":    "high",
		"due_date":    "2026-10-31",
		"tag_ids":     []string{tagA.String()},
	})

	assert.Equal(t, http.StatusCreated, rec.Code)
	env := decode(t, rec)
	assert.Equal(t, "Task created successfully", env.Message)
	assert.Contains(t, string(env.Data), `"name":"Work"`)
	tasks.AssertExpectations(t)
}

func TestTaskCreate_ForeignTag(t *testing.T) {
	router, tasks, tags := setupTaskTest()
	tags.On("OwnedIDs", mock.Anything, testUser.ID, []uuid.UUID{tagA, tagB}).
		Return(map[uuid.UUID]bool{tagA: true}, nil)

	rec := doJSON(router, http.MethodPost, "/api/tasks", map[string]any{
		"title":   "Write report",
		"tag_ids": []string{tagA.String(), tagB.String()},
	})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, map[string][]string{"tag_ids.1": {"The selected tag_ids.1 is invalid."}}, decode(t, rec).Errors)
	tasks.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestTaskCreate_ValidationErrors(t *testing.T) {
	router, _, _ := setupTaskTest()

	rec := doJSON(router, http.MethodPost, "/api/tasks", map[string]any{
		"title":    "",
		"status":   "done",
		"due_date": "31/10/2026",
		"tag_ids":  []string{"nope"},
	})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	env := decode(t, rec)
	assert.Equal(t, []string{"The title field is required."}, env.Errors["title"])
	assert.Equal(t, []string{"The selected status is invalid."}, env.Errors["status"])
	assert.Equal(t, []string{"The due date field must be a valid date."}, env.Errors["due_date"])
	assert.Contains(t, env.Errors, "tag_ids.0")
}

func TestTaskShow(t *testing.T) {
	router, tasks, _ := setupTaskTest()
	tasks.On("GetByID", mock.Anything, testUser.ID, taskID).Return(sampleTask(), nil)
	tasks.On("GetByID", mock.Anything, testUser.ID, mock.Anything).Return(nil, repository.ErrTaskNotFound)

	rec := doJSON(router, http.MethodGet, "/api/tasks/"+taskID.String(), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Task retrieved successfully", decode(t, rec).Message)

	rec = doJSON(router, http.MethodGet, "/api/tasks/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "task not found", decode(t, rec).Message)

	rec = doJSON(router, http.MethodGet, "/api/tasks/not-a-uuid", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTaskUpdate_PartialAndNulls(t *testing.T) {
	router, tasks, tags := setupTaskTest()
	tasks.On("GetByID", mock.Anything, testUser.ID, taskID).Return(sampleTask(), nil)
	tags.On("OwnedIDs", mock.Anything, testUser.ID, []uuid.UUID{tagB}).
		Return(map[uuid.UUID]bool{tagB: true}, nil)

	completed := model.StatusCompleted
	tasks.On("Update", mock.Anything, testUser.ID, taskID, repository.TaskUpdate{
		Status:         &completed,
		DescriptionSet: true,
		DueDateSet:     true,
		TagIDs:         []uuid.UUID{tagB},
		TagIDsSet:      true,
	}).Return(sampleTask(), nil)

	rec := doJSON(router, http.MethodPut, "/api/tasks/"+taskID.String(),
		`{"status":"completed","description":null,"due_date":null,"tag_ids":["`+tagB.String()+`"]}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Task updated successfully", decode(t, rec).Message)
	tasks.AssertExpectations(t)
}

func TestTaskUpdate_NullRequiredField(t *testing.T) {
	router, tasks, _ := setupTaskTest()
	tasks.On("GetByID", mock.Anything, testUser.ID, taskID).Return(sampleTask(), nil)

	rec := doJSON(router, http.MethodPut, "/api/tasks/"+taskID.String(), `{"title":null,"tag_ids":null}`)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	env := decode(t, rec)
	require.Contains(t, env.Errors, "title")
	assert.Equal(t, []string{"The title field is required."}, env.Errors["title"])
	assert.Contains(t, env.Errors, "tag_ids")
	tasks.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestTaskUpdate_NotOwned(t *testing.T) {
	router, tasks, _ := setupTaskTest()
	tasks.On("GetByID", mock.Anything, testUser.ID, taskID).Return(nil, repository.ErrTaskNotFound)

	rec := doJSON(router, http.MethodPut, "/api/tasks/"+taskID.String(), `{"title":""}`)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTaskDelete(t *testing.T) {
	router, tasks, _ := setupTaskTest()
	tasks.On("Delete", mock.Anything, testUser.ID, taskID).Return(nil)

	rec := doJSON(router, http.MethodDelete, "/api/tasks/"+taskID.String(), nil)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}
