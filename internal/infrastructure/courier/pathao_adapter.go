package courier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/velora/backend/internal/domain/courier"
	"github.com/velora/backend/internal/domain/shared"
	"github.com/velora/backend/internal/infrastructure/config"
)

// Sentinel configuration errors
var (
	ErrPathaoNotConfigured = errors.New("pathao: client credentials not configured")
)

// Pathao delivery type and item type codes per the merchant API
const (
	pathaoDeliveryTypeNormal = 48
	pathaoItemTypeParcel     = 2
)

// PathaoAdapter books parcels with Pathao. Pathao requires numeric city and
// zone identifiers on every booking, resolved from a locally synced location
// table rather than per-request API lookups.
type PathaoAdapter struct {
	config    config.PathaoConfig
	gateway   *Gateway
	tokens    *TokenManager
	locations courier.LocationRepository
	logger    *zap.Logger
}

// NewPathaoAdapter creates a Pathao adapter
func NewPathaoAdapter(
	cfg config.PathaoConfig,
	gateway *Gateway,
	tokens *TokenManager,
	locations courier.LocationRepository,
	logger *zap.Logger,
) (*PathaoAdapter, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, ErrPathaoNotConfigured
	}
	return &PathaoAdapter{
		config:    cfg,
		gateway:   gateway,
		tokens:    tokens,
		locations: locations,
		logger:    logger,
	}, nil
}

var _ courier.Courier = (*PathaoAdapter)(nil)

// Code returns the courier code this adapter handles
func (a *PathaoAdapter) Code() courier.CourierCode {
	return courier.CourierPathao
}

// Validate checks that the shipment carries everything Pathao requires
func (a *PathaoAdapter) Validate(req *courier.ShipmentRequest) error {
	if strings.TrimSpace(req.City) == "" {
		return shared.NewDomainError("MISSING_DELIVERY_ZONE",
			"recipient city is required for Pathao delivery")
	}
	if strings.TrimSpace(req.Zone) == "" {
		return shared.NewDomainError("MISSING_DELIVERY_ZONE",
			"recipient zone is required for Pathao delivery")
	}
	if strings.TrimSpace(req.RecipientPhone) == "" {
		return shared.NewDomainError("INVALID_RECIPIENT", "recipient phone is required")
	}
	return nil
}

// pathaoTokenResponse is the OAuth token payload
type pathaoTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

// acquireToken fetches a fresh access token. With merchant credentials
// configured it uses the password grant, otherwise client credentials.
func (a *PathaoAdapter) acquireToken(ctx context.Context) (*Grant, error) {
	payload := map[string]any{
		"client_id":     a.config.ClientID,
		"client_secret": a.config.ClientSecret,
	}
	if a.config.Username != "" && a.config.Password != "" {
		payload["grant_type"] = "password"
		payload["username"] = a.config.Username
		payload["password"] = a.config.Password
	} else {
		payload["grant_type"] = "client_credentials"
	}

	body, err := a.gateway.Do(ctx, &Request{
		Courier:   courier.CourierPathao,
		Operation: "issue_token",
		Method:    http.MethodPost,
		URL:       a.config.BaseURL + "/aladdin/api/v1/issue-token",
		Body:      payload,
	})
	if err != nil {
		var apiErr *courier.APIError
		if errors.As(err, &apiErr) {
			return nil, &courier.TokenAcquisitionError{
				Courier: courier.CourierPathao,
				Reason:  apiErr.Message,
			}
		}
		return nil, err
	}

	var resp pathaoTokenResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &courier.TokenAcquisitionError{
			Courier: courier.CourierPathao,
			Reason:  fmt.Sprintf("unparseable token response: %v", err),
		}
	}

	return &Grant{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		TokenType:    resp.TokenType,
		ExpiresIn:    resp.ExpiresIn,
	}, nil
}

// resolveLocation maps the recipient city and zone to Pathao numeric IDs
// using the pre-synced location table. Matching is case-insensitive exact.
func (a *PathaoAdapter) resolveLocation(ctx context.Context, req *courier.ShipmentRequest) (cityID, zoneID int, err error) {
	city, err := a.locations.FindByName(ctx, courier.CourierPathao, courier.LocationKindCity, req.City)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return 0, 0, &courier.LocationNotFoundError{
				Courier:  courier.CourierPathao,
				Kind:     courier.LocationKindCity,
				Query:    req.City,
				Guidance: "run a Pathao location sync or correct the recipient city",
			}
		}
		return 0, 0, err
	}

	zone, err := a.locations.FindByNameUnderParent(ctx, courier.CourierPathao, courier.LocationKindZone, req.Zone, city.ExternalID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return 0, 0, &courier.LocationNotFoundError{
				Courier:  courier.CourierPathao,
				Kind:     courier.LocationKindZone,
				Query:    req.Zone,
				Guidance: fmt.Sprintf("no zone by that name under city %q. Run a Pathao location sync or correct the recipient zone", req.City),
			}
		}
		return 0, 0, err
	}

	return city.ExternalID, zone.ExternalID, nil
}

// pathaoOrderResponse is the booking result payload
type pathaoOrderResponse struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    int    `json:"code"`
	Data    struct {
		ConsignmentID   string          `json:"consignment_id"`
		MerchantOrderID string          `json:"merchant_order_id"`
		OrderStatus     string          `json:"order_status"`
		DeliveryFee     decimal.Decimal `json:"delivery_fee"`
	} `json:"data"`
}

// IsSuccess reports whether Pathao accepted the booking
func (r *pathaoOrderResponse) IsSuccess() bool {
	return r.Code == 200 || r.Code == 201
}

// CreateShipment books a parcel with Pathao
func (a *PathaoAdapter) CreateShipment(ctx context.Context, req *courier.ShipmentRequest) (*courier.Consignment, error) {
	if err := a.Validate(req); err != nil {
		return nil, err
	}

	cityID, zoneID, err := a.resolveLocation(ctx, req)
	if err != nil {
		return nil, err
	}

	token, err := a.tokens.Token(ctx, courier.CourierPathao, a.acquireToken)
	if err != nil {
		return nil, err
	}

	payload := map[string]any{
		"store_id":            a.config.StoreID,
		"merchant_order_id":   req.OrderNumber,
		"recipient_name":      req.RecipientName,
		"recipient_phone":     req.RecipientPhone,
		"recipient_address":   req.Address,
		"recipient_city":      cityID,
		"recipient_zone":      zoneID,
		"delivery_type":       pathaoDeliveryTypeNormal,
		"item_type":           pathaoItemTypeParcel,
		"item_quantity":       req.ItemCount,
		"item_description":    req.ItemDescription,
		"item_weight":         req.WeightKG.InexactFloat64(),
		"amount_to_collect":   req.CashAmount.InexactFloat64(),
		"special_instruction": req.Note,
	}

	body, err := a.gateway.Do(ctx, &Request{
		Courier:   courier.CourierPathao,
		Operation: "create_order",
		Method:    http.MethodPost,
		URL:       a.config.BaseURL + "/aladdin/api/v1/orders",
		Headers:   map[string]string{"Authorization": "Bearer " + token},
		Body:      payload,
	})
	if err != nil {
		return nil, err
	}

	var resp pathaoOrderResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, courier.NewAPIError(courier.CourierPathao, 0,
			fmt.Sprintf("unparseable booking response: %v", err), truncate(body))
	}
	if !resp.IsSuccess() {
		return nil, courier.NewAPIError(courier.CourierPathao, 0, resp.Message, truncate(body))
	}

	a.logger.Info("pathao booking created",
		zap.String("order_number", req.OrderNumber),
		zap.String("consignment_id", resp.Data.ConsignmentID),
		zap.String("order_status", resp.Data.OrderStatus))

	return &courier.Consignment{
		ConsignmentID: resp.Data.ConsignmentID,
		TrackingCode:  resp.Data.ConsignmentID,
		Status:        resp.Data.OrderStatus,
		RawResponse:   string(body),
	}, nil
}
