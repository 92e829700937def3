package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/velora/backend/internal/domain/inventory"
	"github.com/velora/backend/internal/domain/shared"
)

// GormStockRepository implements inventory.StockRepository using GORM
type GormStockRepository struct {
	db *gorm.DB
}

// NewGormStockRepository creates a new GormStockRepository
func NewGormStockRepository(db *gorm.DB) *GormStockRepository {
	return &GormStockRepository{db: db}
}

// FindByProductID finds the stock item for a product
func (r *GormStockRepository) FindByProductID(ctx context.Context, productID uuid.UUID) (*inventory.StockItem, error) {
	var item inventory.StockItem
	if err := r.db.WithContext(ctx).Where("product_id = ?", productID).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

// FindByProductIDs finds stock items for multiple products in one query
func (r *GormStockRepository) FindByProductIDs(ctx context.Context, productIDs []uuid.UUID) ([]*inventory.StockItem, error) {
	if len(productIDs) == 0 {
		return []*inventory.StockItem{}, nil
	}
	var items []*inventory.StockItem
	if err := r.db.WithContext(ctx).Where("product_id IN ?", productIDs).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// GetOrCreate returns the stock item for a product, creating an empty one
// atomically when it does not exist yet
func (r *GormStockRepository) GetOrCreate(ctx context.Context, productID uuid.UUID) (*inventory.StockItem, error) {
	item := inventory.NewStockItem(productID)
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "product_id"}},
			DoNothing: true,
		}).
		Create(item).Error; err != nil {
		return nil, err
	}
	return r.FindByProductID(ctx, productID)
}

// Save creates or updates a stock item
func (r *GormStockRepository) Save(ctx context.Context, item *inventory.StockItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

// DeductOnHand decrements the on-hand count only when enough stock remains.
// The conditional update makes the check and the decrement one atomic
// statement, so concurrent reservations cannot oversell.
func (r *GormStockRepository) DeductOnHand(ctx context.Context, productID uuid.UUID, quantity int) (bool, error) {
	result := r.db.WithContext(ctx).Model(&inventory.StockItem{}).
		Where("product_id = ? AND on_hand >= ?", productID, quantity).
		Updates(map[string]any{
			"on_hand": gorm.Expr("on_hand - ?", quantity),
			"version": gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// FindReservations returns the reservations recorded for an order
func (r *GormStockRepository) FindReservations(ctx context.Context, orderID uuid.UUID) ([]*inventory.StockReservation, error) {
	var reservations []*inventory.StockReservation
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).Find(&reservations).Error; err != nil {
		return nil, err
	}
	return reservations, nil
}

// CreateReservation records stock committed to one order line. The unique
// (order, product) index rejects duplicates.
func (r *GormStockRepository) CreateReservation(ctx context.Context, reservation *inventory.StockReservation) error {
	return r.db.WithContext(ctx).Create(reservation).Error
}

// Ensure GormStockRepository implements inventory.StockRepository
var _ inventory.StockRepository = (*GormStockRepository)(nil)
