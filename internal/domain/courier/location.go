package courier

import (
	"context"

	"gorm.io/gorm"

	"github.com/velora/backend/internal/domain/shared"
)

// Location kinds for pre-synced courier geography
const (
	LocationKindCity = "city"
	LocationKindZone = "zone"
)

// CourierLocation is a pre-synced geography entry for a courier that
// requires numeric location identifiers on booking requests
type CourierLocation struct {
	shared.BaseEntity
	Courier    CourierCode `gorm:"type:varchar(32);not null;index:idx_courier_locations_lookup"`
	Kind       string      `gorm:"type:varchar(16);not null;index:idx_courier_locations_lookup"`
	ExternalID int         `gorm:"not null"`
	Name       string      `gorm:"type:varchar(255);not null"`
	ParentID   int         `gorm:"default:0"`
	DeletedAt  gorm.DeletedAt
}

// TableName specifies the table name for GORM
func (CourierLocation) TableName() string {
	return "courier_locations"
}

// LocationRepository persists pre-synced courier geography
type LocationRepository interface {
	FindByName(ctx context.Context, courier CourierCode, kind, name string) (*CourierLocation, error)
	FindByNameUnderParent(ctx context.Context, courier CourierCode, kind, name string, parentID int) (*CourierLocation, error)
	ReplaceAll(ctx context.Context, courier CourierCode, kind string, locations []*CourierLocation) error
	CountByCourier(ctx context.Context, courier CourierCode) (int64, error)
}
