package model

import "time"

type PasswordReset struct {
	Email     string `gorm:"size:255;primaryKey"`
	TokenHash string `gorm:"size:64;not null"`
	CreatedAt time.Time
}

func (PasswordReset) TableName() string {
	return "password_reset_tokens"
}
