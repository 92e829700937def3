package order

import (
	"context"

	"github.com/google/uuid"

	"github.com/velora/backend/internal/domain/shared"
)

// Repository persists orders
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	FindByOrderNumber(ctx context.Context, orderNumber string) (*Order, error)
	List(ctx context.Context, filter shared.Filter) ([]*Order, int64, error)
	Save(ctx context.Context, order *Order) error
	// RecordDispatch persists the booking result only if the order is still
	// confirmed and holds no consignment. Returns false when the guard fails.
	RecordDispatch(ctx context.Context, o *Order) (bool, error)
}
