package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/velora/backend/internal/domain/inventory"
	"github.com/velora/backend/internal/domain/order"
	"github.com/velora/backend/internal/domain/shared"
	"github.com/velora/backend/internal/infrastructure/telemetry"
)

// Line is one product demand inside an availability check or reservation
type Line struct {
	ProductID uuid.UUID
	Quantity  int
}

// Shortfall describes one product that cannot be fulfilled
type Shortfall struct {
	ProductID   uuid.UUID
	ProductName string
	Requested   int
	Available   int
}

// AvailabilityReport is the result of a stock availability check
type AvailabilityReport struct {
	Available  bool
	Shortfalls []Shortfall
}

// ReservationService commits stock to orders. Reservations are atomic per
// order: either every line is covered or nothing is deducted.
type ReservationService struct {
	txScope TransactionScope
	logger  *zap.Logger
	metrics *telemetry.Metrics
}

// NewReservationService creates a reservation service
func NewReservationService(txScope TransactionScope, logger *zap.Logger, metrics *telemetry.Metrics) *ReservationService {
	return &ReservationService{
		txScope: txScope,
		logger:  logger,
		metrics: metrics,
	}
}

// CheckAvailability reports whether every line can be fulfilled. All stock
// rows are read inside one transaction, so the report reflects a single
// consistent snapshot.
func (s *ReservationService) CheckAvailability(ctx context.Context, lines []Line) (*AvailabilityReport, error) {
	if len(lines) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "availability check needs at least one line")
	}
	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, shared.NewDomainError("INVALID_INPUT", "line quantity must be positive")
		}
	}

	report := &AvailabilityReport{Available: true}
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		productIDs := make([]uuid.UUID, 0, len(lines))
		for _, line := range lines {
			productIDs = append(productIDs, line.ProductID)
		}

		items, err := repos.StockRepo().FindByProductIDs(ctx, productIDs)
		if err != nil {
			return err
		}
		onHand := make(map[uuid.UUID]int, len(items))
		for _, item := range items {
			onHand[item.ProductID] = item.OnHand
		}

		products, err := repos.ProductRepo().FindByIDs(ctx, productIDs)
		if err != nil {
			return err
		}
		names := make(map[uuid.UUID]string, len(products))
		for _, p := range products {
			names[p.ID] = p.Name
		}

		for _, line := range lines {
			available := onHand[line.ProductID]
			if available < line.Quantity {
				report.Available = false
				report.Shortfalls = append(report.Shortfalls, Shortfall{
					ProductID:   line.ProductID,
					ProductName: names[line.ProductID],
					Requested:   line.Quantity,
					Available:   available,
				})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// EnsureReserved commits stock for every line of the order. Lines already
// holding a reservation are skipped, so re-running after a partial failure
// or a crashed dispatch reserves only what is still missing. Any uncovered
// line rolls the whole attempt back.
func (s *ReservationService) EnsureReserved(ctx context.Context, o *order.Order) error {
	if len(o.Items) == 0 {
		return shared.NewDomainError("INVALID_STATE", "order has no items to reserve")
	}

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		existing, err := repos.StockRepo().FindReservations(ctx, o.ID)
		if err != nil {
			return err
		}
		reserved := make(map[uuid.UUID]bool, len(existing))
		for _, r := range existing {
			reserved[r.ProductID] = true
		}

		for _, item := range o.Items {
			if reserved[item.ProductID] {
				continue
			}

			ok, err := repos.StockRepo().DeductOnHand(ctx, item.ProductID, item.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				available := 0
				if stock, err := repos.StockRepo().FindByProductID(ctx, item.ProductID); err == nil {
					available = stock.OnHand
				} else if !errors.Is(err, shared.ErrNotFound) {
					return err
				}
				return &inventory.InsufficientStockError{
					ProductID:   item.ProductID,
					ProductName: item.ProductName,
					Requested:   item.Quantity,
					Available:   available,
				}
			}

			reservation := inventory.NewStockReservation(o.ID, item.ProductID, item.Quantity)
			if err := repos.StockRepo().CreateReservation(ctx, reservation); err != nil {
				return fmt.Errorf("failed to record reservation: %w", err)
			}
		}
		return nil
	})

	if s.metrics != nil {
		outcome := "reserved"
		if err != nil {
			outcome = "failed"
			var stockErr *inventory.InsufficientStockError
			if errors.As(err, &stockErr) {
				outcome = "insufficient_stock"
			}
		}
		s.metrics.RecordReservation(outcome)
	}

	if err != nil {
		return err
	}

	s.logger.Debug("stock reserved for order",
		zap.String("order_id", o.ID.String()),
		zap.String("order_number", o.OrderNumber))
	return nil
}
