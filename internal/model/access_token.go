package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AccessToken backs one issued bearer token. The JWT carries ID as its jti;
// deleting the row revokes that token and only that token.
type AccessToken struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;index"`
	Name       string    `gorm:"size:255;not null"`
	LastUsedAt *time.Time
	ExpiresAt  *time.Time `gorm:"index"`
	CreatedAt  time.Time
}

func (AccessToken) TableName() string {
	return "personal_access_tokens"
}

func (t *AccessToken) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

func (t *AccessToken) Expired(now time.Time) bool {
	return t.ExpiresAt != nil && !now.Before(*t.ExpiresAt)
}
