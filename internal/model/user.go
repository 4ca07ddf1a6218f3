package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name            string    `gorm:"size:255;not null"`
	Email           string    `gorm:"size:255;uniqueIndex;not null"`
	HashedPassword  string    `gorm:"not null"`
	EmailVerifiedAt *time.Time
	RememberToken   *string `gorm:"size:100"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// HasVerifiedEmail reports whether the account confirmed its email address.
func (u *User) HasVerifiedEmail() bool {
	return u.EmailVerifiedAt != nil
}
