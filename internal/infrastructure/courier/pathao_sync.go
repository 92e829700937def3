package courier

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/velora/backend/internal/domain/courier"
	"github.com/velora/backend/internal/domain/shared"
)

type pathaoCityListResponse struct {
	Code int `json:"code"`
	Data struct {
		Data []struct {
			CityID   int    `json:"city_id"`
			CityName string `json:"city_name"`
		} `json:"data"`
	} `json:"data"`
}

type pathaoZoneListResponse struct {
	Code int `json:"code"`
	Data struct {
		Data []struct {
			ZoneID   int    `json:"zone_id"`
			ZoneName string `json:"zone_name"`
		} `json:"data"`
	} `json:"data"`
}

// SyncLocations refreshes the local Pathao city and zone tables from the
// merchant API. Booking requests only ever read the local tables, so this
// must run before the first Pathao dispatch and after Pathao changes its
// coverage map.
func (a *PathaoAdapter) SyncLocations(ctx context.Context) (cities, zones int, err error) {
	token, err := a.tokens.Token(ctx, courier.CourierPathao, a.acquireToken)
	if err != nil {
		return 0, 0, err
	}
	auth := map[string]string{"Authorization": "Bearer " + token}

	body, err := a.gateway.Do(ctx, &Request{
		Courier:   courier.CourierPathao,
		Operation: "city_list",
		Method:    http.MethodGet,
		URL:       a.config.BaseURL + "/aladdin/api/v1/city-list",
		Headers:   auth,
	})
	if err != nil {
		return 0, 0, err
	}

	var cityResp pathaoCityListResponse
	if err := json.Unmarshal(body, &cityResp); err != nil {
		return 0, 0, courier.NewAPIError(courier.CourierPathao, 0,
			fmt.Sprintf("unparseable city list: %v", err), truncate(body))
	}

	cityRows := make([]*courier.CourierLocation, 0, len(cityResp.Data.Data))
	var zoneRows []*courier.CourierLocation
	for _, c := range cityResp.Data.Data {
		loc := courier.CourierLocation{
			Courier:    courier.CourierPathao,
			Kind:       courier.LocationKindCity,
			ExternalID: c.CityID,
			Name:       c.CityName,
		}
		loc.BaseEntity = shared.NewBaseEntity()
		cityRows = append(cityRows, &loc)

		zoneBody, err := a.gateway.Do(ctx, &Request{
			Courier:   courier.CourierPathao,
			Operation: "zone_list",
			Method:    http.MethodGet,
			URL:       fmt.Sprintf("%s/aladdin/api/v1/cities/%d/zone-list", a.config.BaseURL, c.CityID),
			Headers:   auth,
		})
		if err != nil {
			return 0, 0, err
		}
		var zoneResp pathaoZoneListResponse
		if err := json.Unmarshal(zoneBody, &zoneResp); err != nil {
			return 0, 0, courier.NewAPIError(courier.CourierPathao, 0,
				fmt.Sprintf("unparseable zone list for city %d: %v", c.CityID, err), truncate(zoneBody))
		}
		for _, z := range zoneResp.Data.Data {
			zone := courier.CourierLocation{
				Courier:    courier.CourierPathao,
				Kind:       courier.LocationKindZone,
				ExternalID: z.ZoneID,
				Name:       z.ZoneName,
				ParentID:   c.CityID,
			}
			zone.BaseEntity = shared.NewBaseEntity()
			zoneRows = append(zoneRows, &zone)
		}
	}

	if err := a.locations.ReplaceAll(ctx, courier.CourierPathao, courier.LocationKindCity, cityRows); err != nil {
		return 0, 0, err
	}
	if err := a.locations.ReplaceAll(ctx, courier.CourierPathao, courier.LocationKindZone, zoneRows); err != nil {
		return 0, 0, err
	}

	a.logger.Info("pathao locations synced",
		zap.Int("cities", len(cityRows)),
		zap.Int("zones", len(zoneRows)))

	return len(cityRows), len(zoneRows), nil
}
