package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/velora/backend/internal/domain/courier"
	"github.com/velora/backend/internal/domain/shared"
)

// GormTokenRepository implements courier.TokenRepository using GORM
type GormTokenRepository struct {
	db *gorm.DB
}

// NewGormTokenRepository creates a new GormTokenRepository
func NewGormTokenRepository(db *gorm.DB) *GormTokenRepository {
	return &GormTokenRepository{db: db}
}

// Find returns the stored token for a courier
func (r *GormTokenRepository) Find(ctx context.Context, code courier.CourierCode) (*courier.CourierToken, error) {
	var token courier.CourierToken
	if err := r.db.WithContext(ctx).Where("courier = ?", code).First(&token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &token, nil
}

// Upsert stores the token, replacing any previous one for the same courier
func (r *GormTokenRepository) Upsert(ctx context.Context, token *courier.CourierToken) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "courier"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"access_token", "refresh_token", "token_type", "expires_at", "updated_at",
			}),
		}).
		Create(token).Error
}

// Ensure GormTokenRepository implements courier.TokenRepository
var _ courier.TokenRepository = (*GormTokenRepository)(nil)
