package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"todo/internal/model"
)

// ErrAccessTokenNotFound is returned when a presented token has no row,
// either because it was revoked or never issued.
var ErrAccessTokenNotFound = errors.New("access token not found")

type AccessTokenRepository struct {
	db *gorm.DB
}

func NewAccessTokenRepository(db *gorm.DB) *AccessTokenRepository {
	return &AccessTokenRepository{db: db}
}

func (r *AccessTokenRepository) Create(ctx context.Context, token *model.AccessToken) error {
	return r.db.WithContext(ctx).Create(token).Error
}

// Find returns the token row only if it belongs to userID.
func (r *AccessTokenRepository) Find(ctx context.Context, userID, tokenID uuid.UUID) (*model.AccessToken, error) {
	var token model.AccessToken
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", tokenID, userID).First(&token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAccessTokenNotFound
	}
	if err != nil {
		return nil, err
	}
	return &token, nil
}

// Touch records that the token was just used.
func (r *AccessTokenRepository) Touch(ctx context.Context, tokenID uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).Model(&model.AccessToken{}).
		Where("id = ?", tokenID).
		Update("last_used_at", at).Error
}

// Delete revokes a single token.
func (r *AccessTokenRepository) Delete(ctx context.Context, userID, tokenID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", tokenID, userID).
		Delete(&model.AccessToken{}).Error
}

// DeleteExpired purges rows whose expiry has passed and reports how many
// were removed.
func (r *AccessTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at <= ?", now).
		Delete(&model.AccessToken{})
	return result.RowsAffected, result.Error
}
