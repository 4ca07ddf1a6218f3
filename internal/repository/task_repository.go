package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"todo/internal/model"
)

// TaskFilter narrows a task listing. Zero fields are ignored; all set
// fields must match.
type TaskFilter struct {
	Status   model.TaskStatus
	Priority model.TaskPriority
	TagID    uuid.UUID
	DueDate  *model.Date
	// OverdueAsOf selects open tasks due strictly before the given day.
	OverdueAsOf *model.Date
	Search      string
}

// TaskUpdate carries a partial update. Pointer fields are written when
// non-nil; the *Set flags allow clearing nullable columns.
type TaskUpdate struct {
	Title          *string
	Description    *string
	DescriptionSet bool
	Status         *model.TaskStatus
	Priority       *model.TaskPriority
	DueDate        *model.Date
	DueDateSet     bool
	TagIDs         []uuid.UUID
	TagIDsSet      bool
}

type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// List returns one page of the owner's tasks, newest first, with tags loaded.
func (r *TaskRepository) List(ctx context.Context, ownerID uuid.UUID, filter TaskFilter, page PageRequest) (*Page[model.Task], error) {
	page = page.normalize()

	q := r.db.WithContext(ctx).Model(&model.Task{}).Where("user_id = ?", ownerID)
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Priority != "" {
		q = q.Where("priority = ?", filter.Priority)
	}
	if filter.TagID != uuid.Nil {
		q = q.Where("EXISTS (SELECT 1 FROM task_tag WHERE task_tag.task_id = tasks.id AND task_tag.tag_id = ?)", filter.TagID)
	}
	if filter.DueDate != nil {
		q = q.Where("due_date = ?", *filter.DueDate)
	}
	if filter.OverdueAsOf != nil {
		q = q.Where("due_date IS NOT NULL AND due_date < ? AND status <> ?", *filter.OverdueAsOf, model.StatusCompleted)
	}
	if filter.Search != "" {
		pattern := containsPattern(filter.Search)
		q = q.Where(`(LOWER(title) LIKE ? ESCAPE '\' OR LOWER(COALESCE(description, '')) LIKE ? ESCAPE '\')`, pattern, pattern)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, err
	}

	tasks := make([]model.Task, 0, page.PerPage)
	err := q.Order("created_at DESC").Order("id").
		Offset(page.offset()).Limit(page.PerPage).
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	if err := loadTags(r.db.WithContext(ctx), tasks); err != nil {
		return nil, err
	}

	return &Page[model.Task]{Items: tasks, Total: total, PerPage: page.PerPage, Page: page.Page}, nil
}

// Create inserts the task and attaches tagIDs in one transaction. The tag
// ids must already be known to belong to task.UserID.
func (r *TaskRepository) Create(ctx context.Context, task *model.Task, tagIDs []uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(task).Error; err != nil {
			return err
		}
		if err := attachTags(tx, task.ID, tagIDs); err != nil {
			return err
		}
		tasks := []model.Task{*task}
		if err := loadTags(tx, tasks); err != nil {
			return err
		}
		task.Tags = tasks[0].Tags
		return nil
	})
}

// GetByID retrieves a task owned by ownerID with its tags.
func (r *TaskRepository) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*model.Task, error) {
	return getOwnedTask(r.db.WithContext(ctx), ownerID, id)
}

// Update applies a partial update and, when TagIDsSet, replaces the task's
// tag set with exactly upd.TagIDs. Everything runs in one transaction.
func (r *TaskRepository) Update(ctx context.Context, ownerID, id uuid.UUID, upd TaskUpdate) (*model.Task, error) {
	var task *model.Task
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Task{}).Where("id = ? AND user_id = ?", id, ownerID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrTaskNotFound
		}

		if changes := upd.columns(); len(changes) > 0 {
			err := tx.Model(&model.Task{}).
				Where("id = ? AND user_id = ?", id, ownerID).
				Updates(changes).Error
			if err != nil {
				return err
			}
		}

		if upd.TagIDsSet {
			if err := syncTags(tx, id, upd.TagIDs); err != nil {
				return err
			}
		}

		var err error
		task, err = getOwnedTask(tx, ownerID, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// Delete detaches all tags and removes the task in one transaction.
func (r *TaskRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Task{}).Where("id = ? AND user_id = ?", id, ownerID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrTaskNotFound
		}
		if err := tx.Where("task_id = ?", id).Delete(&model.TaskTag{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ? AND user_id = ?", id, ownerID).Delete(&model.Task{}).Error
	})
}

// TagIDs returns the ids of the tags attached to a task.
func (r *TaskRepository) TagIDs(ctx context.Context, taskID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&model.TaskTag{}).
		Where("task_id = ?", taskID).
		Pluck("tag_id", &ids).Error
	return ids, err
}

func (u TaskUpdate) columns() map[string]interface{} {
	changes := map[string]interface{}{}
	if u.Title != nil {
		changes["title"] = *u.Title
	}
	if u.DescriptionSet {
		changes["description"] = u.Description
	}
	if u.Status != nil {
		changes["status"] = *u.Status
	}
	if u.Priority != nil {
		changes["priority"] = *u.Priority
	}
	if u.DueDateSet {
		changes["due_date"] = u.DueDate
	}
	return changes
}

func getOwnedTask(db *gorm.DB, ownerID, id uuid.UUID) (*model.Task, error) {
	var task model.Task
	result := db.Where("id = ? AND user_id = ?", id, ownerID).First(&task)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, result.Error
	}
	tasks := []model.Task{task}
	if err := loadTags(db, tasks); err != nil {
		return nil, err
	}
	return &tasks[0], nil
}

func attachTags(tx *gorm.DB, taskID uuid.UUID, tagIDs []uuid.UUID) error {
	if len(tagIDs) == 0 {
		return nil
	}
	rows := make([]model.TaskTag, 0, len(tagIDs))
	seen := make(map[uuid.UUID]bool, len(tagIDs))
	for _, tagID := range tagIDs {
		if seen[tagID] {
			continue
		}
		seen[tagID] = true
		rows = append(rows, model.TaskTag{TaskID: taskID, TagID: tagID})
	}
	return tx.Omit(clause.Associations).Create(&rows).Error
}

// syncTags makes the task's tag set equal to tagIDs.
func syncTags(tx *gorm.DB, taskID uuid.UUID, tagIDs []uuid.UUID) error {
	var current []uuid.UUID
	if err := tx.Model(&model.TaskTag{}).Where("task_id = ?", taskID).Pluck("tag_id", &current).Error; err != nil {
		return err
	}

	wanted := make(map[uuid.UUID]bool, len(tagIDs))
	for _, id := range tagIDs {
		wanted[id] = true
	}
	have := make(map[uuid.UUID]bool, len(current))
	var removed []uuid.UUID
	for _, id := range current {
		have[id] = true
		if !wanted[id] {
			removed = append(removed, id)
		}
	}
	var added []uuid.UUID
	for _, id := range tagIDs {
		if !have[id] {
			added = append(added, id)
		}
	}

	if len(removed) > 0 {
		if err := tx.Where("task_id = ? AND tag_id IN ?", taskID, removed).Delete(&model.TaskTag{}).Error; err != nil {
			return err
		}
	}
	return attachTags(tx, taskID, added)
}

// loadTags fills Tags on every task with two queries, tags ordered by name.
func loadTags(db *gorm.DB, tasks []model.Task) error {
	if len(tasks) == 0 {
		return nil
	}
	taskIDs := make([]uuid.UUID, len(tasks))
	for i := range tasks {
		taskIDs[i] = tasks[i].ID
		tasks[i].Tags = []model.Tag{}
	}

	var links []model.TaskTag
	if err := db.Where("task_id IN ?", taskIDs).Find(&links).Error; err != nil {
		return err
	}
	if len(links) == 0 {
		return nil
	}

	tagIDs := make([]uuid.UUID, 0, len(links))
	seen := make(map[uuid.UUID]bool, len(links))
	for _, l := range links {
		if !seen[l.TagID] {
			seen[l.TagID] = true
			tagIDs = append(tagIDs, l.TagID)
		}
	}
	var tags []model.Tag
	if err := db.Where("id IN ?", tagIDs).Order("name").Find(&tags).Error; err != nil {
		return err
	}

	byTask := make(map[uuid.UUID]map[uuid.UUID]bool, len(tasks))
	for _, l := range links {
		if byTask[l.TaskID] == nil {
			byTask[l.TaskID] = map[uuid.UUID]bool{}
		}
		byTask[l.TaskID][l.TagID] = true
	}
	for i := range tasks {
		for _, tag := range tags {
			if byTask[tasks[i].ID][tag.ID] {
				tasks[i].Tags = append(tasks[i].Tags, tag)
			}
		}
	}
	return nil
}
