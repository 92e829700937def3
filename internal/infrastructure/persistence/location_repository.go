package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/velora/backend/internal/domain/courier"
	"github.com/velora/backend/internal/domain/shared"
)

// GormLocationRepository implements courier.LocationRepository using GORM
type GormLocationRepository struct {
	db *gorm.DB
}

// NewGormLocationRepository creates a new GormLocationRepository
func NewGormLocationRepository(db *gorm.DB) *GormLocationRepository {
	return &GormLocationRepository{db: db}
}

// FindByName finds a location by case-insensitive exact name
func (r *GormLocationRepository) FindByName(ctx context.Context, code courier.CourierCode, kind, name string) (*courier.CourierLocation, error) {
	var location courier.CourierLocation
	if err := r.db.WithContext(ctx).
		Where("courier = ? AND kind = ? AND LOWER(name) = LOWER(?)", code, kind, name).
		First(&location).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &location, nil
}

// FindByNameUnderParent finds a location by name scoped to a parent location
func (r *GormLocationRepository) FindByNameUnderParent(ctx context.Context, code courier.CourierCode, kind, name string, parentID int) (*courier.CourierLocation, error) {
	var location courier.CourierLocation
	if err := r.db.WithContext(ctx).
		Where("courier = ? AND kind = ? AND parent_id = ? AND LOWER(name) = LOWER(?)", code, kind, parentID, name).
		First(&location).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &location, nil
}

// ReplaceAll swaps the synced locations of one courier and kind in a single
// transaction, so lookups never observe a half-synced table
func (r *GormLocationRepository) ReplaceAll(ctx context.Context, code courier.CourierCode, kind string, locations []*courier.CourierLocation) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().
			Where("courier = ? AND kind = ?", code, kind).
			Delete(&courier.CourierLocation{}).Error; err != nil {
			return err
		}
		if len(locations) == 0 {
			return nil
		}
		return tx.CreateInBatches(locations, 500).Error
	})
}

// CountByCourier counts the synced locations for a courier
func (r *GormLocationRepository) CountByCourier(ctx context.Context, code courier.CourierCode) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&courier.CourierLocation{}).
		Where("courier = ?", code).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Ensure GormLocationRepository implements courier.LocationRepository
var _ courier.LocationRepository = (*GormLocationRepository)(nil)
