package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"todo/internal/model"
)

// ErrResetTokenMismatch means no outstanding reset matched the email,
// token and freshness window.
var ErrResetTokenMismatch = errors.New("reset token mismatch")

type PasswordResetRepository struct {
	db *gorm.DB
}

func NewPasswordResetRepository(db *gorm.DB) *PasswordResetRepository {
	return &PasswordResetRepository{db: db}
}

// Upsert stores the reset token for an email, replacing any previous one.
func (r *PasswordResetRepository) Upsert(ctx context.Context, reset *model.PasswordReset) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{"token_hash", "created_at"}),
	}).Create(reset).Error
}

// Find returns nil, nil when no reset is outstanding for the email.
func (r *PasswordResetRepository) Find(ctx context.Context, email string) (*model.PasswordReset, error) {
	var reset model.PasswordReset
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&reset).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &reset, nil
}

// Consume deletes the email's reset row when it carries tokenHash and was
// created at or after notBefore, and stores the new password for userID in
// the same transaction. Of two concurrent calls with one token only the
// first gets the row.
func (r *PasswordResetRepository) Consume(ctx context.Context, email, tokenHash string, notBefore time.Time, userID uuid.UUID, hashedPassword, rememberToken string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("email = ? AND token_hash = ? AND created_at >= ?", email, tokenHash, notBefore).
			Delete(&model.PasswordReset{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected != 1 {
			return ErrResetTokenMismatch
		}
		return updatePassword(tx, userID, hashedPassword, rememberToken)
	})
}

// DeleteOlderThan purges reset rows created before cutoff.
func (r *PasswordResetRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&model.PasswordReset{})
	return result.RowsAffected, result.Error
}
