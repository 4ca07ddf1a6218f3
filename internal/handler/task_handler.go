package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"todo/internal/middleware"
	"todo/internal/model"
	"todo/internal/repository"
	"todo/internal/response"
	"todo/internal/validation"
)

// TaskStore is the owner-scoped task persistence used by the handlers.
type TaskStore interface {
	List(ctx context.Context, ownerID uuid.UUID, filter repository.TaskFilter, page repository.PageRequest) (*repository.Page[model.Task], error)
	Create(ctx context.Context, task *model.Task, tagIDs []uuid.UUID) error
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (*model.Task, error)
	Update(ctx context.Context, ownerID, id uuid.UUID, upd repository.TaskUpdate) (*model.Task, error)
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
}

// TagOwnership answers which of a set of tag ids belong to a user.
type TagOwnership interface {
	OwnedIDs(ctx context.Context, ownerID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]bool, error)
}

// CreateTaskRequest is the body of POST /api/tasks.
type CreateTaskRequest struct {
	Title       string   `json:"title" binding:"required,filled,max=255" example:"Write report"`
	Description *string  `json:"description"`
	Status      *string  `json:"status" binding:"omitempty,oneof=pending in_progress completed" example:"pending"`
	DueDate     *string  `json:"due_date" binding:"omitempty,date" example:"2026-10-31"`
	Priority    *string  `json:"priority" binding:"omitempty,oneof=low medium high" example:"medium"`
	TagIDs      []string `json:"tag_ids" binding:"omitempty,dive,uuid"`
}

// UpdateTaskRequest is the body of PUT /api/tasks/{id}. Absent fields are
// kept; description and due_date may be cleared with null; tag_ids replaces
// the whole tag set.
type UpdateTaskRequest struct {
	Title       *string  `json:"title" binding:"omitempty,filled,max=255"`
	Description *string  `json:"description"`
	Status      *string  `json:"status" binding:"omitempty,oneof=pending in_progress completed"`
	DueDate     *string  `json:"due_date" binding:"omitempty,date"`
	Priority    *string  `json:"priority" binding:"omitempty,oneof=low medium high"`
	TagIDs      []string `json:"tag_ids" binding:"omitempty,dive,uuid"`
}

type TaskHandler struct {
	tasks TaskStore
	tags  TagOwnership
	now   func() time.Time
}

func NewTaskHandler(tasks TaskStore, tags TagOwnership) *TaskHandler {
	return &TaskHandler{tasks: tasks, tags: tags, now: time.Now}
}

// List godoc
// @Summary      List tasks
// @Tags         tasks
// @Produce      json
// @Param        status    query  string  false  "pending, in_progress or completed"
// @Param        priority  query  string  false  "low, medium or high"
// @Param        tag_id    query  string  false  "Only tasks carrying this tag"
// @Param        due_date  query  string  false  "Exact due date (YYYY-MM-DD)"
// @Param        overdue   query  bool    false  "Only open tasks due before today"
// @Param        search    query  string  false  "Substring of title or description"
// @Param        page      query  int     false  "Page number"
// @Param        per_page  query  int     false  "Page size (default 15, max 100)"
// @Success      200  {object}  response.Envelope{data=[]TaskResponse}
// @Failure      422  {object}  response.Envelope
// @Security     BearerAuth
// @Router       /api/tasks [get]
func (h *TaskHandler) List(c *gin.Context) {
	filter, err := h.parseFilter(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	page, err := h.tasks.List(c.Request.Context(), middleware.CurrentUserID(c), filter, pageRequest(c))
	if err != nil {
		_ = c.Error(err)
		return
	}

	items := mapSlice(page.Items, newTaskResponse)
	response.JSON(c, response.Paginated(items, page.Total, page.PerPage, page.Page, "Tasks retrieved successfully"))
}

func (h *TaskHandler) parseFilter(c *gin.Context) (repository.TaskFilter, error) {
	var filter repository.TaskFilter
	errs := validation.Errors{}

	if v := strings.TrimSpace(c.Query("status")); v != "" {
		filter.Status = model.TaskStatus(v)
		if !filter.Status.Valid() {
			errs.Add("status", "The selected status is invalid.")
		}
	}
	if v := strings.TrimSpace(c.Query("priority")); v != "" {
		filter.Priority = model.TaskPriority(v)
		if !filter.Priority.Valid() {
			errs.Add("priority", "The selected priority is invalid.")
		}
	}
	if v := strings.TrimSpace(c.Query("tag_id")); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			errs.Add("tag_id", "The tag id field must be a valid UUID.")
		}
		filter.TagID = id
	}
	if v := strings.TrimSpace(c.Query("due_date")); v != "" {
		d, err := validation.ParseDate(v)
		if err != nil {
			errs.Add("due_date", "The due date field must be a valid date.")
		}
		filter.DueDate = &d
	}
	if truthy(c.Query("overdue")) {
		today := model.Today(h.now(), time.UTC)
		filter.OverdueAsOf = &today
	}
	filter.Search = strings.TrimSpace(c.Query("search"))

	return filter, errs.Err()
}

// Create godoc
// @Summary      Create a task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Param        body  body  CreateTaskRequest  true  "Task"
// @Success      201  {object}  response.Envelope{data=TaskResponse}
// @Failure      422  {object}  response.Envelope
// @Security     BearerAuth
// @Router       /api/tasks [post]
func (h *TaskHandler) Create(c *gin.Context) {
	ownerID := middleware.CurrentUserID(c)

	var req CreateTaskRequest
	if _, err := validation.BindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	tagIDs, err := h.ownedTagIDs(c.Request.Context(), ownerID, req.TagIDs)
	if err != nil {
		_ = c.Error(err)
		return
	}

	task := &model.Task{
		UserID:      ownerID,
		Title:       strings.TrimSpace(req.Title),
		Description: blankToNil(req.Description),
	}
	if req.Status != nil {
		task.Status = model.TaskStatus(*req.Status)
	}
	if req.Priority != nil {
		task.Priority = model.TaskPriority(*req.Priority)
	}
	if req.DueDate != nil {
		d, _ := validation.ParseDate(*req.DueDate)
		task.DueDate = &d
	}

	if err := h.tasks.Create(c.Request.Context(), task, tagIDs); err != nil {
		_ = c.Error(err)
		return
	}

	created, err := h.tasks.GetByID(c.Request.Context(), ownerID, task.ID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.Created(c, newTaskResponse(*created), "Task created successfully")
}

// Show godoc
// @Summary      Get a task
// @Tags         tasks
// @Produce      json
// @Param        id  path  string  true  "Task ID"
// @Success      200  {object}  response.Envelope{data=TaskResponse}
// @Failure      404  {object}  response.Envelope
// @Security     BearerAuth
// @Router       /api/tasks/{id} [get]
func (h *TaskHandler) Show(c *gin.Context) {
	id, err := routeID(c, repository.ErrTaskNotFound)
	if err != nil {
		_ = c.Error(err)
		return
	}
	task, err := h.tasks.GetByID(c.Request.Context(), middleware.CurrentUserID(c), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.OK(c, newTaskResponse(*task), "Task retrieved successfully")
}

// Update godoc
// @Summary      Update a task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Param        id    path  string             true  "Task ID"
// @Param        body  body  UpdateTaskRequest  true  "Fields to change"
// @Success      200  {object}  response.Envelope{data=TaskResponse}
// @Failure      404  {object}  response.Envelope
// @Failure      422  {object}  response.Envelope
// @Security     BearerAuth
// @Router       /api/tasks/{id} [put]
func (h *TaskHandler) Update(c *gin.Context) {
	ownerID := middleware.CurrentUserID(c)
	id, err := routeID(c, repository.ErrTaskNotFound)
	if err != nil {
		_ = c.Error(err)
		return
	}
	// ownership first, so foreign ids never see validation details
	if _, err := h.tasks.GetByID(c.Request.Context(), ownerID, id); err != nil {
		_ = c.Error(err)
		return
	}

	var req UpdateTaskRequest
	fields, err := validation.BindJSON(c, &req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	errs := validation.Errors{}
	for _, key := range []string{"title", "status", "priority"} {
		if fields.IsNull(key) {
			errs.Add(key, fmt.Sprintf("The %s field is required.", key))
		}
	}
	if fields.IsNull("tag_ids") {
		errs.Add("tag_ids", "The tag ids field must be an array.")
	}
	if err := errs.Err(); err != nil {
		_ = c.Error(err)
		return
	}

	upd := repository.TaskUpdate{
		DescriptionSet: fields.Has("description"),
		Description:    blankToNil(req.Description),
		DueDateSet:     fields.Has("due_date"),
		TagIDsSet:      fields.Has("tag_ids"),
	}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		upd.Title = &title
	}
	if req.Status != nil {
		status := model.TaskStatus(*req.Status)
		upd.Status = &status
	}
	if req.Priority != nil {
		priority := model.TaskPriority(*req.Priority)
		upd.Priority = &priority
	}
	if req.DueDate != nil {
		d, _ := validation.ParseDate(*req.DueDate)
		upd.DueDate = &d
	}
	if upd.TagIDsSet {
		upd.TagIDs, err = h.ownedTagIDs(c.Request.Context(), ownerID, req.TagIDs)
		if err != nil {
			_ = c.Error(err)
			return
		}
	}

	task, err := h.tasks.Update(c.Request.Context(), ownerID, id, upd)
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.OK(c, newTaskResponse(*task), "Task updated successfully")
}

// Delete godoc
// @Summary      Delete a task
// @Tags         tasks
// @Param        id  path  string  true  "Task ID"
// @Success      204
// @Failure      404  {object}  response.Envelope
// @Security     BearerAuth
// @Router       /api/tasks/{id} [delete]
func (h *TaskHandler) Delete(c *gin.Context) {
	id, err := routeID(c, repository.ErrTaskNotFound)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if err := h.tasks.Delete(c.Request.Context(), middleware.CurrentUserID(c), id); err != nil {
		_ = c.Error(err)
		return
	}
	response.NoContent(c)
}

// ownedTagIDs parses raw ids and checks each one is a tag of ownerID,
// reporting misses on tag_ids.N.
func (h *TaskHandler) ownedTagIDs(ctx context.Context, ownerID uuid.UUID, raw []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		// binding already rejected malformed ids
		ids = append(ids, uuid.MustParse(s))
	}
	if len(ids) == 0 {
		return ids, nil
	}

	owned, err := h.tags.OwnedIDs(ctx, ownerID, ids)
	if err != nil {
		return nil, err
	}
	errs := validation.Errors{}
	for i, id := range ids {
		if !owned[id] {
			key := fmt.Sprintf("tag_ids.%d", i)
			errs.Add(key, fmt.Sprintf("The selected %s is invalid.", key))
		}
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

// blankToNil stores empty descriptions as NULL.
func blankToNil(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
