package order

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/velora/backend/internal/domain/catalog"
	"github.com/velora/backend/internal/domain/courier"
	"github.com/velora/backend/internal/domain/order"
	"github.com/velora/backend/internal/domain/shared"
)

// CreateOrderItemInput is one requested line on a new order
type CreateOrderItemInput struct {
	ProductID uuid.UUID
	Quantity  int
}

// CreateOrderRequest carries everything needed to place an order
type CreateOrderRequest struct {
	OrderNumber string
	Recipient   order.Recipient
	Items       []CreateOrderItemInput
	Note        string
}

// Service implements order lifecycle operations
type Service struct {
	orders   order.Repository
	products catalog.ProductRepository
	logger   *zap.Logger
}

// NewService creates an order service
func NewService(orders order.Repository, products catalog.ProductRepository, logger *zap.Logger) *Service {
	return &Service{
		orders:   orders,
		products: products,
		logger:   logger,
	}
}

// Create places a new order. Prices and product names are snapshotted from
// the catalog at creation time.
func (s *Service) Create(ctx context.Context, req CreateOrderRequest) (*order.Order, error) {
	if len(req.Items) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "order needs at least one item")
	}

	if _, err := s.orders.FindByOrderNumber(ctx, req.OrderNumber); err == nil {
		return nil, shared.NewDomainError("ALREADY_EXISTS",
			fmt.Sprintf("order number %s already exists", req.OrderNumber))
	}

	o, err := order.NewOrder(req.OrderNumber, req.Recipient)
	if err != nil {
		return nil, err
	}
	o.Note = req.Note

	productIDs := make([]uuid.UUID, 0, len(req.Items))
	for _, item := range req.Items {
		productIDs = append(productIDs, item.ProductID)
	}
	products, err := s.products.FindByIDs(ctx, productIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*catalog.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	for _, item := range req.Items {
		p, ok := byID[item.ProductID]
		if !ok {
			return nil, shared.NewDomainError("INVALID_INPUT",
				fmt.Sprintf("product %s does not exist", item.ProductID))
		}
		if p.Status != catalog.ProductStatusActive {
			return nil, shared.NewDomainError("INVALID_STATE",
				fmt.Sprintf("product %s is not active", p.SKU))
		}
		if err := o.AddItem(p.ID, p.Name, p.Price, item.Quantity); err != nil {
			return nil, err
		}
	}

	if err := s.orders.Save(ctx, o); err != nil {
		return nil, err
	}

	s.logger.Info("order created",
		zap.String("order_number", o.OrderNumber),
		zap.Int("items", len(o.Items)),
		zap.String("total", o.TotalAmount.StringFixed(2)))
	return o, nil
}

// Get returns one order with its items
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	return s.orders.FindByID(ctx, id)
}

// GetByNumber returns one order by its order number
func (s *Service) GetByNumber(ctx context.Context, number string) (*order.Order, error) {
	return s.orders.FindByOrderNumber(ctx, number)
}

// List returns orders matching the filter
func (s *Service) List(ctx context.Context, filter shared.Filter) ([]*order.Order, int64, error) {
	return s.orders.List(ctx, filter)
}

// Confirm moves a pending order to confirmed
func (s *Service) Confirm(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	return s.mutate(ctx, id, func(o *order.Order) error { return o.Confirm() })
}

// AssignCourier selects the courier a confirmed order will ship with
func (s *Service) AssignCourier(ctx context.Context, id uuid.UUID, code courier.CourierCode) (*order.Order, error) {
	return s.mutate(ctx, id, func(o *order.Order) error { return o.AssignCourier(code) })
}

// Cancel cancels an order that has not shipped
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	return s.mutate(ctx, id, func(o *order.Order) error { return o.Cancel() })
}

// MarkDelivered records final delivery of a shipped order
func (s *Service) MarkDelivered(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	return s.mutate(ctx, id, func(o *order.Order) error { return o.MarkDelivered() })
}

// MarkFake flags an order so it never reaches a courier
func (s *Service) MarkFake(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	return s.mutate(ctx, id, func(o *order.Order) error {
		o.MarkFake()
		return nil
	})
}

// mutate loads, applies and saves a single order transition
func (s *Service) mutate(ctx context.Context, id uuid.UUID, fn func(o *order.Order) error) (*order.Order, error) {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(o); err != nil {
		return nil, err
	}
	if err := s.orders.Save(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}
