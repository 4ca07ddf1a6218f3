package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"todo/internal/model"
)

type TagRepository struct {
	db *gorm.DB
}

func NewTagRepository(db *gorm.DB) *TagRepository {
	return &TagRepository{db: db}
}

// List returns the owner's tags, newest first, optionally filtered by a
// case-insensitive substring of the name.
func (r *TagRepository) List(ctx context.Context, ownerID uuid.UUID, search string, page PageRequest) (*Page[model.Tag], error) {
	page = page.normalize()

	q := r.db.WithContext(ctx).Model(&model.Tag{}).Where("user_id = ?", ownerID)
	if search != "" {
		q = q.Where(`LOWER(name) LIKE ? ESCAPE '\'`, containsPattern(search))
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, err
	}

	tags := make([]model.Tag, 0, page.PerPage)
	if err := q.Order("created_at DESC").Offset(page.offset()).Limit(page.PerPage).Find(&tags).Error; err != nil {
		return nil, err
	}

	return &Page[model.Tag]{Items: tags, Total: total, PerPage: page.PerPage, Page: page.Page}, nil
}

// Create adds a new tag; tag.UserID must already be set.
func (r *TagRepository) Create(ctx context.Context, tag *model.Tag) error {
	return r.db.WithContext(ctx).Create(tag).Error
}

// GetByID retrieves a tag owned by ownerID.
func (r *TagRepository) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*model.Tag, error) {
	var tag model.Tag
	result := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, ownerID).First(&tag)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrTagNotFound
		}
		return nil, result.Error
	}
	return &tag, nil
}

// Update writes name and color of an owned tag.
func (r *TagRepository) Update(ctx context.Context, tag *model.Tag) error {
	result := r.db.WithContext(ctx).Model(&model.Tag{}).
		Where("id = ? AND user_id = ?", tag.ID, tag.UserID).
		Updates(map[string]interface{}{
			"name":  tag.Name,
			"color": tag.Color,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTagNotFound
	}
	return nil
}

// NameTaken reports whether the owner already has a tag called name,
// ignoring the tag with id exceptID when it is not uuid.Nil.
func (r *TagRepository) NameTaken(ctx context.Context, ownerID uuid.UUID, name string, exceptID uuid.UUID) (bool, error) {
	q := r.db.WithContext(ctx).Model(&model.Tag{}).Where("user_id = ? AND name = ?", ownerID, name)
	if exceptID != uuid.Nil {
		q = q.Where("id <> ?", exceptID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// OwnedIDs returns the subset of ids that are tags owned by ownerID.
func (r *TagRepository) OwnedIDs(ctx context.Context, ownerID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]bool, error) {
	owned := make(map[uuid.UUID]bool, len(ids))
	if len(ids) == 0 {
		return owned, nil
	}
	var found []uuid.UUID
	err := r.db.WithContext(ctx).Model(&model.Tag{}).
		Where("user_id = ? AND id IN ?", ownerID, ids).
		Pluck("id", &found).Error
	if err != nil {
		return nil, err
	}
	for _, id := range found {
		owned[id] = true
	}
	return owned, nil
}

// Delete removes an owned tag that no task references. The usage check and
// the delete are one statement, and the task_tag foreign key restricts the
// delete if an attach commits concurrently.
func (r *TagRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Tag{}).Where("id = ? AND user_id = ?", id, ownerID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrTagNotFound
		}

		result := tx.Exec(
			"DELETE FROM tags WHERE id = ? AND user_id = ? AND NOT EXISTS (SELECT 1 FROM task_tag WHERE task_tag.tag_id = tags.id)",
			id, ownerID,
		)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrForeignKeyViolated) {
				return ErrTagInUse
			}
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrTagInUse
		}
		return nil
	})
}

// CountForOwner is used by the seeder to skip users that already have tags.
func (r *TagRepository) CountForOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Tag{}).Where("user_id = ?", ownerID).Count(&count).Error
	return count, err
}
