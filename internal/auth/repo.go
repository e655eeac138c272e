package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fixmate-lk/fixmate-backend/pkg/db/models"
)

// Repository persists the single-use tokens used for email verification
// and password reset.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateToken(ctx context.Context, token *models.AuthToken) error
	GetTokenByHash(ctx context.Context, purpose, tokenHash string) (*models.AuthToken, error)
	MarkTokenUsed(ctx context.Context, id uuid.UUID, at time.Time) error
	DeleteTokensForUser(ctx context.Context, userID uuid.UUID, purpose string) error
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns an auth token repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) CreateToken(ctx context.Context, token *models.AuthToken) error {
	return r.db.WithContext(ctx).Create(token).Error
}

func (r *repositoryImpl) GetTokenByHash(ctx context.Context, purpose, tokenHash string) (*models.AuthToken, error) {
	var token models.AuthToken
	err := r.db.WithContext(ctx).
		First(&token, "purpose = ? AND token_hash = ?", purpose, tokenHash).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *repositoryImpl) MarkTokenUsed(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.AuthToken{}).
		Where("id = ?", id).
		Update("used_at", at).Error
}

// DeleteTokensForUser invalidates any outstanding tokens of the same
// purpose before a new one is issued.
func (r *repositoryImpl) DeleteTokensForUser(ctx context.Context, userID uuid.UUID, purpose string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND purpose = ?", userID, purpose).
		Delete(&models.AuthToken{}).Error
}
