package courier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/velora/backend/internal/domain/courier"
	"github.com/velora/backend/internal/domain/shared"
	"github.com/velora/backend/internal/infrastructure/config"
)

// Sentinel configuration errors
var (
	ErrSteadfastNotConfigured = errors.New("steadfast: api key pair not configured")
)

// SteadfastAdapter books parcels with Steadfast. Steadfast authenticates
// with a static key pair and needs no location identifiers; the free-form
// address is enough.
type SteadfastAdapter struct {
	config  config.SteadfastConfig
	gateway *Gateway
	logger  *zap.Logger
}

// NewSteadfastAdapter creates a Steadfast adapter
func NewSteadfastAdapter(cfg config.SteadfastConfig, gateway *Gateway, logger *zap.Logger) (*SteadfastAdapter, error) {
	if cfg.APIKey == "" || cfg.SecretKey == "" {
		return nil, ErrSteadfastNotConfigured
	}
	return &SteadfastAdapter{
		config:  cfg,
		gateway: gateway,
		logger:  logger,
	}, nil
}

var _ courier.Courier = (*SteadfastAdapter)(nil)

// Code returns the courier code this adapter handles
func (a *SteadfastAdapter) Code() courier.CourierCode {
	return courier.CourierSteadfast
}

// Validate checks that the shipment carries everything Steadfast requires
func (a *SteadfastAdapter) Validate(req *courier.ShipmentRequest) error {
	if strings.TrimSpace(req.RecipientPhone) == "" {
		return shared.NewDomainError("INVALID_RECIPIENT", "recipient phone is required")
	}
	if strings.TrimSpace(req.Address) == "" {
		return shared.NewDomainError("INVALID_RECIPIENT", "recipient address is required")
	}
	return nil
}

// steadfastOrderResponse is the booking result payload
type steadfastOrderResponse struct {
	Status      int    `json:"status"`
	Message     string `json:"message"`
	Consignment struct {
		ConsignmentID json.Number `json:"consignment_id"`
		InvoiceID     string      `json:"invoice"`
		TrackingCode  string      `json:"tracking_code"`
		Status        string      `json:"status"`
	} `json:"consignment"`
}

// IsSuccess reports whether Steadfast accepted the booking
func (r *steadfastOrderResponse) IsSuccess() bool {
	return r.Status == 200
}

// CreateShipment books a parcel with Steadfast. Steadfast returns a
// numeric consignment_id and a separate customer facing tracking_code.
func (a *SteadfastAdapter) CreateShipment(ctx context.Context, req *courier.ShipmentRequest) (*courier.Consignment, error) {
	if err := a.Validate(req); err != nil {
		return nil, err
	}

	payload := map[string]any{
		"invoice":           req.OrderNumber,
		"recipient_name":    req.RecipientName,
		"recipient_phone":   req.RecipientPhone,
		"recipient_address": req.Address,
		"cod_amount":        req.CashAmount.InexactFloat64(),
		"item_description":  req.ItemDescription,
		"note":              req.Note,
	}

	body, err := a.gateway.Do(ctx, &Request{
		Courier:   courier.CourierSteadfast,
		Operation: "create_order",
		Method:    http.MethodPost,
		URL:       a.config.BaseURL + "/create_order",
		Headers: map[string]string{
			"Api-Key":    a.config.APIKey,
			"Secret-Key": a.config.SecretKey,
		},
		Body: payload,
	})
	if err != nil {
		return nil, err
	}

	var resp steadfastOrderResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, courier.NewAPIError(courier.CourierSteadfast, 0,
			fmt.Sprintf("unparseable booking response: %v", err), truncate(body))
	}
	if !resp.IsSuccess() {
		return nil, courier.NewAPIError(courier.CourierSteadfast, 0, resp.Message, truncate(body))
	}

	a.logger.Info("steadfast booking created",
		zap.String("order_number", req.OrderNumber),
		zap.String("consignment_id", resp.Consignment.ConsignmentID.String()),
		zap.String("tracking_code", resp.Consignment.TrackingCode))

	return &courier.Consignment{
		ConsignmentID: resp.Consignment.ConsignmentID.String(),
		TrackingCode:  resp.Consignment.TrackingCode,
		Status:        resp.Consignment.Status,
		RawResponse:   string(body),
	}, nil
}
