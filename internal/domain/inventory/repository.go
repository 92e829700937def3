package inventory

import (
	"context"

	"github.com/google/uuid"
)

// StockRepository persists stock items and reservations. DeductOnHand must
// decrement only when enough stock remains and report whether it did.
type StockRepository interface {
	FindByProductID(ctx context.Context, productID uuid.UUID) (*StockItem, error)
	FindByProductIDs(ctx context.Context, productIDs []uuid.UUID) ([]*StockItem, error)
	GetOrCreate(ctx context.Context, productID uuid.UUID) (*StockItem, error)
	Save(ctx context.Context, item *StockItem) error
	DeductOnHand(ctx context.Context, productID uuid.UUID, quantity int) (bool, error)
	FindReservations(ctx context.Context, orderID uuid.UUID) ([]*StockReservation, error)
	CreateReservation(ctx context.Context, reservation *StockReservation) error
}
