package model

import (
	"time"

	"github.com/google/uuid"
)

// TaskTag is a row of the task/tag association. Both sides belong to the
// same user; deleting a task cascades, deleting a tag in use is refused.
type TaskTag struct {
	TaskID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	TagID     uuid.UUID `gorm:"type:uuid;primaryKey;index"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Task Task `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE"`
	Tag  Tag  `gorm:"foreignKey:TagID;constraint:OnDelete:RESTRICT"`
}

func (TaskTag) TableName() string {
	return "task_tag"
}
