package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/velora/backend/internal/domain/order"
	"github.com/velora/backend/internal/domain/shared"
)

// GormOrderRepository implements order.Repository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// FindByID finds an order with its items by ID
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	var o order.Order
	if err := r.db.WithContext(ctx).Preload("Items").First(&o, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

// FindByOrderNumber finds an order with its items by order number
func (r *GormOrderRepository) FindByOrderNumber(ctx context.Context, orderNumber string) (*order.Order, error) {
	var o order.Order
	if err := r.db.WithContext(ctx).Preload("Items").
		Where("order_number = ?", orderNumber).
		First(&o).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

// List returns orders matching the filter along with the total count
func (r *GormOrderRepository) List(ctx context.Context, filter shared.Filter) ([]*order.Order, int64, error) {
	query := r.db.WithContext(ctx).Model(&order.Order{})

	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "courier":
			query = query.Where("assigned_courier = ?", value)
		case "is_fake":
			query = query.Where("is_fake = ?", value)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	orderBy := ValidateSortField(filter.OrderBy, OrderSortFields, "created_at")
	query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	var orders []*order.Order
	if err := query.Preload("Items").Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// Save creates or updates an order with its items
func (r *GormOrderRepository) Save(ctx context.Context, o *order.Order) error {
	return r.db.WithContext(ctx).Session(&gorm.Session{FullSaveAssociations: true}).Save(o).Error
}

// RecordDispatch persists the booking result, guarded so only a confirmed
// order without a consignment can be updated. Returns false when the guard
// rejects the write, leaving the stored order untouched.
func (r *GormOrderRepository) RecordDispatch(ctx context.Context, o *order.Order) (bool, error) {
	result := r.db.WithContext(ctx).Model(&order.Order{}).
		Where("id = ? AND status = ? AND (consignment_id IS NULL OR consignment_id = '')",
			o.ID, order.OrderStatusConfirmed).
		Updates(map[string]any{
			"status":           order.OrderStatusShipped,
			"consignment_id":   o.ConsignmentID,
			"tracking_code":    o.TrackingCode,
			"courier_status":   o.CourierStatus,
			"courier_response": o.CourierResponse,
			"assigned_courier": o.AssignedCourier,
			"version":          gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// Ensure GormOrderRepository implements order.Repository
var _ order.Repository = (*GormOrderRepository)(nil)
