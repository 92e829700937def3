package shipping

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/velora/backend/internal/domain/catalog"
	"github.com/velora/backend/internal/domain/courier"
	"github.com/velora/backend/internal/domain/order"
	"github.com/velora/backend/internal/domain/shared"
	"github.com/velora/backend/internal/infrastructure/telemetry"
)

// minParcelWeightKG is the lower bound couriers bill against
var minParcelWeightKG = decimal.NewFromFloat(0.5)

// CourierProvider resolves the adapter for a courier code
type CourierProvider interface {
	Get(code courier.CourierCode) (courier.Courier, error)
}

// StockReserver commits stock to an order before it leaves the warehouse
type StockReserver interface {
	EnsureReserved(ctx context.Context, o *order.Order) error
}

// DispatchResult summarizes a successful booking
type DispatchResult struct {
	OrderID       uuid.UUID
	OrderNumber   string
	Courier       courier.CourierCode
	ConsignmentID string
	TrackingCode  string
	CourierStatus string
}

// DispatchService hands confirmed orders to their assigned courier. The
// flow is deliberately conservative: every local check runs before the
// booking call, and the order row is only touched after the courier has
// accepted the parcel. A failed booking leaves the order exactly as it was.
type DispatchService struct {
	orders   order.Repository
	products catalog.ProductRepository
	couriers CourierProvider
	reserver StockReserver
	logger   *zap.Logger
	metrics  *telemetry.Metrics
}

// NewDispatchService creates a dispatch service
func NewDispatchService(
	orders order.Repository,
	products catalog.ProductRepository,
	couriers CourierProvider,
	reserver StockReserver,
	logger *zap.Logger,
	metrics *telemetry.Metrics,
) *DispatchService {
	return &DispatchService{
		orders:   orders,
		products: products,
		couriers: couriers,
		reserver: reserver,
		logger:   logger,
		metrics:  metrics,
	}
}

// Dispatch books a shipment for the order with its assigned courier
func (s *DispatchService) Dispatch(ctx context.Context, orderID uuid.UUID) (*DispatchResult, error) {
	// Load and gate the order before anything irreversible
	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.gate(o); err != nil {
		return nil, err
	}

	adapter, err := s.couriers.Get(o.AssignedCourier)
	if err != nil {
		s.recordOutcome(o.AssignedCourier, "not_configured")
		return nil, shared.NewDomainError("CONFIGURATION",
			fmt.Sprintf("courier %s is not configured", o.AssignedCourier))
	}

	req, err := s.buildShipmentRequest(ctx, o)
	if err != nil {
		return nil, err
	}
	if err := adapter.Validate(req); err != nil {
		s.recordOutcome(o.AssignedCourier, "validation_failed")
		return nil, err
	}

	// Stock must be committed before the parcel is booked. EnsureReserved
	// is idempotent, so a booking failure after this point just leaves the
	// reservation in place for the retry.
	if err := s.reserver.EnsureReserved(ctx, o); err != nil {
		s.recordOutcome(o.AssignedCourier, "reservation_failed")
		return nil, err
	}

	consignment, err := adapter.CreateShipment(ctx, req)
	if err != nil {
		s.recordOutcome(o.AssignedCourier, failureLabel(err))
		s.logger.Warn("courier booking failed",
			zap.String("order_number", o.OrderNumber),
			zap.String("courier", string(o.AssignedCourier)),
			zap.Error(err))
		return nil, err
	}

	if err := o.RecordDispatch(consignment); err != nil {
		return nil, err
	}
	updated, err := s.orders.RecordDispatch(ctx, o)
	if err != nil {
		return nil, err
	}
	if !updated {
		// The courier accepted the parcel but another process got to the
		// order first. Surface loudly so the duplicate booking gets voided.
		s.logger.Error("order changed while booking was in flight, manual void needed",
			zap.String("order_number", o.OrderNumber),
			zap.String("courier", string(o.AssignedCourier)),
			zap.String("consignment_id", consignment.ConsignmentID))
		s.recordOutcome(o.AssignedCourier, "conflict")
		return nil, shared.ErrConcurrencyConflict
	}

	s.recordOutcome(o.AssignedCourier, "dispatched")
	s.logger.Info("order dispatched",
		zap.String("order_number", o.OrderNumber),
		zap.String("courier", string(o.AssignedCourier)),
		zap.String("consignment_id", consignment.ConsignmentID),
		zap.String("tracking_code", consignment.TrackingCode))

	return &DispatchResult{
		OrderID:       o.ID,
		OrderNumber:   o.OrderNumber,
		Courier:       o.AssignedCourier,
		ConsignmentID: consignment.ConsignmentID,
		TrackingCode:  consignment.TrackingCode,
		CourierStatus: consignment.Status,
	}, nil
}

// gate rejects orders that must not reach a courier
func (s *DispatchService) gate(o *order.Order) error {
	if o.IsFake {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("order %s is flagged as fake and cannot be dispatched", o.OrderNumber))
	}
	if o.Dispatched() {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("order %s already dispatched with consignment %s", o.OrderNumber, o.ConsignmentID))
	}
	if o.Status != order.OrderStatusConfirmed {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("order %s is %s, only confirmed orders can be dispatched", o.OrderNumber, o.Status))
	}
	if o.AssignedCourier == "" {
		return shared.NewDomainError("NO_COURIER_ASSIGNED",
			fmt.Sprintf("order %s has no courier assigned", o.OrderNumber))
	}
	if len(o.Items) == 0 {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("order %s has no items", o.OrderNumber))
	}
	if strings.TrimSpace(o.Recipient.City) == "" || strings.TrimSpace(o.Recipient.Zone) == "" {
		return shared.NewDomainError("MISSING_DELIVERY_ZONE",
			fmt.Sprintf("order %s needs both recipient city and zone before dispatch", o.OrderNumber))
	}
	return nil
}

// buildShipmentRequest snapshots everything the courier needs from the order
func (s *DispatchService) buildShipmentRequest(ctx context.Context, o *order.Order) (*courier.ShipmentRequest, error) {
	weight, err := s.parcelWeight(ctx, o)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(o.Items))
	for _, item := range o.Items {
		names = append(names, item.ProductName)
	}
	return &courier.ShipmentRequest{
		OrderID:         o.ID,
		OrderNumber:     o.OrderNumber,
		RecipientName:   o.Recipient.Name,
		RecipientPhone:  o.Recipient.Phone,
		Address:         o.Recipient.Address,
		City:            o.Recipient.City,
		Zone:            o.Recipient.Zone,
		Area:            o.Recipient.Area,
		ItemCount:       o.TotalQuantity(),
		ItemDescription: strings.Join(names, ", "),
		WeightKG:        weight,
		CashAmount:      o.TotalAmount,
		Note:            o.Note,
	}, nil
}

// parcelWeight sums the catalog weights of every unit in the order,
// substituting the default for products without one, then applies the
// courier minimum billable weight
func (s *DispatchService) parcelWeight(ctx context.Context, o *order.Order) (decimal.Decimal, error) {
	productIDs := make([]uuid.UUID, 0, len(o.Items))
	for _, item := range o.Items {
		productIDs = append(productIDs, item.ProductID)
	}

	products, err := s.products.FindByIDs(ctx, productIDs)
	if err != nil {
		return decimal.Zero, err
	}
	weights := make(map[uuid.UUID]decimal.Decimal, len(products))
	for _, p := range products {
		weights[p.ID] = p.EffectiveWeightKG()
	}

	total := decimal.Zero
	for _, item := range o.Items {
		unit, ok := weights[item.ProductID]
		if !ok {
			unit = catalog.DefaultWeightKG
		}
		total = total.Add(unit.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	if total.LessThan(minParcelWeightKG) {
		total = minParcelWeightKG
	}
	return total, nil
}

func (s *DispatchService) recordOutcome(code courier.CourierCode, outcome string) {
	if s.metrics != nil {
		s.metrics.RecordDispatch(string(code), outcome)
	}
}

// failureLabel buckets booking errors for metrics
func failureLabel(err error) string {
	var apiErr *courier.APIError
	if errors.As(err, &apiErr) {
		return "api_error"
	}
	var tokenErr *courier.TokenAcquisitionError
	if errors.As(err, &tokenErr) {
		return "token_error"
	}
	var locErr *courier.LocationNotFoundError
	if errors.As(err, &locErr) {
		return "location_not_found"
	}
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return "validation_error"
	}
	return "other"
}
