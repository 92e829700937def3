package inventory

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/velora/backend/internal/domain/inventory"
	"github.com/velora/backend/internal/domain/shared"
)

// StockService implements warehouse stock operations
type StockService struct {
	stock  inventory.StockRepository
	logger *zap.Logger
}

// NewStockService creates a stock service
func NewStockService(stock inventory.StockRepository, logger *zap.Logger) *StockService {
	return &StockService{
		stock:  stock,
		logger: logger,
	}
}

// Receive books received quantity into the on-hand count, creating the
// stock row on first receipt
func (s *StockService) Receive(ctx context.Context, productID uuid.UUID, quantity int) (*inventory.StockItem, error) {
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "received quantity must be positive")
	}

	item, err := s.stock.GetOrCreate(ctx, productID)
	if err != nil {
		return nil, err
	}
	if err := item.Receive(quantity); err != nil {
		return nil, err
	}
	if err := s.stock.Save(ctx, item); err != nil {
		return nil, err
	}

	s.logger.Info("stock received",
		zap.String("product_id", productID.String()),
		zap.Int("quantity", quantity),
		zap.Int("on_hand", item.OnHand))
	return item, nil
}

// Get returns the stock row for a product
func (s *StockService) Get(ctx context.Context, productID uuid.UUID) (*inventory.StockItem, error) {
	return s.stock.FindByProductID(ctx, productID)
}
