package catalog

import (
	"context"

	"github.com/google/uuid"

	"github.com/velora/backend/internal/domain/shared"
)

// ProductRepository persists products
type ProductRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*Product, error)
	FindBySKU(ctx context.Context, sku string) (*Product, error)
	List(ctx context.Context, filter shared.Filter) ([]*Product, int64, error)
	Save(ctx context.Context, product *Product) error
}
