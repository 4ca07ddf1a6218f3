package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const DefaultTagColor = "#3498db"

type Tag struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_tags_user_name"`
	Name      string    `gorm:"size:50;not null;uniqueIndex:idx_tags_user_name"`
	Color     string    `gorm:"size:7;not null;default:'#3498db'"`
	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time
}

func (t *Tag) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.Color == "" {
		t.Color = DefaultTagColor
	}
	return nil
}
