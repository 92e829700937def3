package courier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/velora/backend/internal/domain/courier"
	"github.com/velora/backend/internal/domain/shared"
	"github.com/velora/backend/internal/infrastructure/cache"
	"github.com/velora/backend/internal/infrastructure/config"
)

// Sentinel configuration errors
var (
	ErrRedXNotConfigured = errors.New("redx: api token not configured")
)

// bdPhonePattern matches Bangladeshi mobile numbers, which RedX enforces
// on the recipient phone field
var bdPhonePattern = regexp.MustCompile(`^01[3-9]\d{8}$`)

const redxAreaCacheKey = "courier:redx:areas"

// gramsPerKG converts parcel weight to the grams RedX expects
var gramsPerKG = decimal.NewFromInt(1000)

// RedXAuthHint explains the usual cause of RedX 401 responses when requests
// are pinned to the production host
const RedXAuthHint = "requests are pinned to the RedX production API, so the configured api_token must be a production token, not a sandbox one"

// RedXAdapter books parcels with RedX. RedX identifies delivery areas by
// numeric ID, resolved on every booking from their area directory API.
type RedXAdapter struct {
	config    config.RedXConfig
	baseURL   string
	gateway   *Gateway
	areaCache cache.AreaCache
	logger    *zap.Logger
}

// NewRedXAdapter creates a RedX adapter. The base URL honors the
// force_production_url pin.
func NewRedXAdapter(
	couriers config.CouriersConfig,
	gateway *Gateway,
	areaCache cache.AreaCache,
	logger *zap.Logger,
) (*RedXAdapter, error) {
	if couriers.RedX.APIToken == "" {
		return nil, ErrRedXNotConfigured
	}
	return &RedXAdapter{
		config:    couriers.RedX,
		baseURL:   couriers.EffectiveRedXBaseURL(),
		gateway:   gateway,
		areaCache: areaCache,
		logger:    logger,
	}, nil
}

var _ courier.Courier = (*RedXAdapter)(nil)

// Code returns the courier code this adapter handles
func (a *RedXAdapter) Code() courier.CourierCode {
	return courier.CourierRedX
}

// Validate checks that the shipment carries everything RedX requires.
// RedX rejects bookings whose phone is not a valid Bangladeshi mobile
// number, so that is caught here before any API call.
func (a *RedXAdapter) Validate(req *courier.ShipmentRequest) error {
	if !bdPhonePattern.MatchString(req.RecipientPhone) {
		return shared.NewDomainError("INVALID_RECIPIENT",
			fmt.Sprintf("recipient phone %q is not a valid Bangladeshi mobile number (01XXXXXXXXX)", req.RecipientPhone))
	}
	if strings.TrimSpace(req.Zone) == "" && strings.TrimSpace(req.Area) == "" {
		return shared.NewDomainError("MISSING_DELIVERY_ZONE",
			"recipient zone or area is required for RedX delivery")
	}
	return nil
}

// redxArea is one entry of the RedX area directory
type redxArea struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	DistrictName string `json:"district_name"`
	PostCode     int    `json:"post_code"`
}

type redxAreaListResponse struct {
	Areas []redxArea `json:"areas"`
}

// fetchAreas loads areas from the directory API, optionally scoped to a
// district. The unscoped full list is cached; it is large and changes rarely.
func (a *RedXAdapter) fetchAreas(ctx context.Context, district string) ([]redxArea, error) {
	if district == "" && a.areaCache != nil {
		if cached, ok := a.areaCache.Get(ctx, redxAreaCacheKey); ok {
			var areas []redxArea
			if err := json.Unmarshal(cached, &areas); err == nil {
				return areas, nil
			}
		}
	}

	endpoint := a.baseURL + "/areas"
	if district != "" {
		endpoint += "?district_name=" + url.QueryEscape(district)
	}

	body, err := a.gateway.Do(ctx, &Request{
		Courier:   courier.CourierRedX,
		Operation: "list_areas",
		Method:    http.MethodGet,
		URL:       endpoint,
		Headers:   map[string]string{"API-ACCESS-TOKEN": "Bearer " + a.config.APIToken},
	})
	if err != nil {
		return nil, err
	}

	var resp redxAreaListResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, courier.NewAPIError(courier.CourierRedX, 0,
			fmt.Sprintf("unparseable area list: %v", err), truncate(body))
	}

	if district == "" && a.areaCache != nil {
		if encoded, err := json.Marshal(resp.Areas); err == nil {
			a.areaCache.Set(ctx, redxAreaCacheKey, encoded, cache.DefaultAreaTTL)
		}
	}

	return resp.Areas, nil
}

// resolveArea maps the recipient zone or area name to a RedX area entry.
// Resolution is tiered: a substring match inside the recipient's district
// first, then a substring scan of the full directory, narrowed by district
// when that scan is ambiguous. A failed scoped query is logged and does not
// stop the broader scan. A remaining tie picks the lowest area ID so
// repeated dispatches of the same order resolve identically.
func (a *RedXAdapter) resolveArea(ctx context.Context, req *courier.ShipmentRequest) (*redxArea, error) {
	query := strings.TrimSpace(req.Area)
	if query == "" {
		query = strings.TrimSpace(req.Zone)
	}
	lowered := strings.ToLower(query)

	if req.City != "" {
		scoped, err := a.fetchAreas(ctx, req.City)
		if err != nil {
			a.logger.Warn("redx scoped area query failed, falling back to full directory",
				zap.String("city", req.City),
				zap.String("query", query),
				zap.Error(err))
		} else {
			for i := range scoped {
				if strings.Contains(strings.ToLower(scoped[i].Name), lowered) {
					return &scoped[i], nil
				}
			}
		}
	}

	all, err := a.fetchAreas(ctx, "")
	if err != nil {
		return nil, err
	}

	var matches []redxArea
	for _, area := range all {
		if strings.Contains(strings.ToLower(area.Name), lowered) {
			matches = append(matches, area)
		}
	}

	if len(matches) > 1 && req.City != "" {
		city := strings.ToLower(strings.TrimSpace(req.City))
		var narrowed []redxArea
		for _, area := range matches {
			if strings.Contains(strings.ToLower(area.Name), city) ||
				strings.Contains(strings.ToLower(area.DistrictName), city) {
				narrowed = append(narrowed, area)
			}
		}
		if len(narrowed) > 0 {
			matches = narrowed
		}
	}

	switch len(matches) {
	case 0:
		return nil, &courier.LocationNotFoundError{
			Courier:  courier.CourierRedX,
			Kind:     "area",
			Query:    query,
			Guidance: "verify the recipient area against the RedX area directory",
		}
	case 1:
		return &matches[0], nil
	default:
		sort.Slice(matches, func(i, j int) bool { return matches[i].ID < matches[j].ID })
		a.logger.Warn("ambiguous redx area, picking lowest id",
			zap.String("query", query),
			zap.String("city", req.City),
			zap.Int("candidates", len(matches)),
			zap.Int("picked_id", matches[0].ID),
			zap.String("picked_name", matches[0].Name))
		return &matches[0], nil
	}
}

// redxParcelResponse is the booking result payload
type redxParcelResponse struct {
	TrackingID string `json:"tracking_id"`
}

// CreateShipment books a parcel with RedX. RedX returns a single
// tracking_id, which serves as both the consignment ID and the customer
// facing tracking code.
func (a *RedXAdapter) CreateShipment(ctx context.Context, req *courier.ShipmentRequest) (*courier.Consignment, error) {
	if err := a.Validate(req); err != nil {
		return nil, err
	}

	area, err := a.resolveArea(ctx, req)
	if err != nil {
		return nil, err
	}

	payload := map[string]any{
		"customer_name":          req.RecipientName,
		"customer_phone":         req.RecipientPhone,
		"customer_address":       req.Address,
		"delivery_area":          area.Name,
		"delivery_area_id":       area.ID,
		"merchant_invoice_id":    req.OrderNumber,
		"cash_collection_amount": req.CashAmount.StringFixed(2),
		"parcel_weight":          req.WeightKG.Mul(gramsPerKG).IntPart(),
		"pickup_store_id":        a.config.PickupStoreID,
		"value":                  req.CashAmount.StringFixed(2),
		"description":            req.ItemDescription,
		"instruction":            req.Note,
	}

	body, err := a.gateway.Do(ctx, &Request{
		Courier:   courier.CourierRedX,
		Operation: "create_parcel",
		Method:    http.MethodPost,
		URL:       a.baseURL + "/parcel",
		Headers:   map[string]string{"API-ACCESS-TOKEN": "Bearer " + a.config.APIToken},
		Body:      payload,
	})
	if err != nil {
		return nil, err
	}

	var resp redxParcelResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, courier.NewAPIError(courier.CourierRedX, 0,
			fmt.Sprintf("unparseable booking response: %v", err), truncate(body))
	}
	if resp.TrackingID == "" {
		return nil, courier.NewAPIError(courier.CourierRedX, 0,
			"booking response carried no tracking_id", truncate(body))
	}

	a.logger.Info("redx booking created",
		zap.String("order_number", req.OrderNumber),
		zap.String("tracking_id", resp.TrackingID),
		zap.Int("area_id", area.ID))

	return &courier.Consignment{
		ConsignmentID: resp.TrackingID,
		TrackingCode:  resp.TrackingID,
		Status:        "pickup-pending",
		RawResponse:   string(body),
	}, nil
}
