package inventory

import (
	"github.com/google/uuid"

	"github.com/velora/backend/internal/domain/shared"
)

// StockReservation records stock committed to one order line. The unique
// (order, product) pair makes re-running a reservation a no-op.
type StockReservation struct {
	shared.BaseEntity
	OrderID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_reservation_order_product"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_reservation_order_product"`
	Quantity  int       `gorm:"not null"`
}

// TableName specifies the table name for GORM
func (StockReservation) TableName() string {
	return "stock_reservations"
}

// NewStockReservation creates a reservation entry
func NewStockReservation(orderID, productID uuid.UUID, quantity int) *StockReservation {
	return &StockReservation{
		BaseEntity: shared.NewBaseEntity(),
		OrderID:    orderID,
		ProductID:  productID,
		Quantity:   quantity,
	}
}
