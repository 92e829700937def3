package inventory

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/velora/backend/internal/domain/shared"
)

// StockItem tracks the on-hand quantity for one product
type StockItem struct {
	shared.BaseAggregateRoot
	ProductID uuid.UUID      `gorm:"type:uuid;uniqueIndex;not null"`
	OnHand    int            `gorm:"not null;default:0"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

// TableName specifies the table name for GORM
func (StockItem) TableName() string {
	return "stock_items"
}

// NewStockItem creates a stock record for a product
func NewStockItem(productID uuid.UUID) *StockItem {
	return &StockItem{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ProductID:         productID,
	}
}

// Receive adds received quantity to the on-hand count
func (s *StockItem) Receive(quantity int) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_INPUT", "received quantity must be positive")
	}
	s.OnHand += quantity
	return nil
}

// CanFulfill reports whether the on-hand count covers the requested quantity
func (s *StockItem) CanFulfill(quantity int) bool {
	return s.OnHand >= quantity
}

// InsufficientStockError identifies the product that blocked a reservation
// and by how much
type InsufficientStockError struct {
	ProductID   uuid.UUID
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	name := e.ProductName
	if name == "" {
		name = e.ProductID.String()
	}
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d (short by %d)",
		name, e.Requested, e.Available, e.Requested-e.Available)
}
