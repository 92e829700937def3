package courier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/velora/backend/internal/domain/courier"
	"github.com/velora/backend/internal/domain/shared"
	"github.com/velora/backend/internal/infrastructure/cache"
	"github.com/velora/backend/internal/infrastructure/config"
)

func redxTestConfig(baseURL string) config.CouriersConfig {
	return config.CouriersConfig{
		RedX: config.RedXConfig{
			Enabled:       true,
			BaseURL:       baseURL,
			ProductionURL: baseURL,
			APIToken:      "test-token",
			PickupStoreID: 7,
		},
	}
}

func newRedXTestAdapter(t *testing.T, baseURL string) *RedXAdapter {
	t.Helper()
	adapter, err := NewRedXAdapter(redxTestConfig(baseURL), newTestGateway(), cache.NewInMemoryAreaCache(), zap.NewNop())
	require.NoError(t, err)
	return adapter
}

func redxShipment() *courier.ShipmentRequest {
	return &courier.ShipmentRequest{
		OrderNumber:     "ORD-2026-0042",
		RecipientName:   "Rahim Uddin",
		RecipientPhone:  "01712345678",
		Address:         "House 12, Road 5",
		City:            "Dhaka",
		Zone:            "Dhanmondi",
		ItemCount:       1,
		ItemDescription: "Cotton Saree",
		WeightKG:        decimal.NewFromFloat(0.5),
		CashAmount:      decimal.NewFromInt(1200),
	}
}

func TestRedXAdapter_Validate(t *testing.T) {
	adapter := newRedXTestAdapter(t, "http://unused")

	tests := []struct {
		name    string
		phone   string
		wantErr bool
	}{
		{"valid grameenphone", "01712345678", false},
		{"valid banglalink", "01912345678", false},
		{"valid teletalk", "01512345678", false},
		{"operator prefix 02 invalid", "01212345678", true},
		{"too short", "0171234567", true},
		{"too long", "017123456789", true},
		{"country code form rejected", "+8801712345678", true},
		{"letters rejected", "017abc45678", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := redxShipment()
			req.RecipientPhone = tt.phone
			err := adapter.Validate(req)
			if tt.wantErr {
				var domainErr *shared.DomainError
				require.ErrorAs(t, err, &domainErr)
				assert.Equal(t, "INVALID_RECIPIENT", domainErr.Code)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	t.Run("missing zone and area", func(t *testing.T) {
		req := redxShipment()
		req.Zone = ""
		req.Area = ""
		var domainErr *shared.DomainError
		require.ErrorAs(t, adapter.Validate(req), &domainErr)
		assert.Equal(t, "MISSING_DELIVERY_ZONE", domainErr.Code)
	})
}

func TestRedXAdapter_ResolveArea(t *testing.T) {
	ctx := context.Background()

	t.Run("scoped district query hits match", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/areas", r.URL.Path)
			assert.Equal(t, "Dhaka", r.URL.Query().Get("district_name"))
			w.Write([]byte(`{"areas":[{"id":10,"name":"Dhanmondi","district_name":"Dhaka"},{"id":11,"name":"Mirpur","district_name":"Dhaka"}]}`))
		}))
		defer server.Close()

		area, err := newRedXTestAdapter(t, server.URL).resolveArea(ctx, redxShipment())
		require.NoError(t, err)
		assert.Equal(t, 10, area.ID)
	})

	t.Run("scoped query matches on substring", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "Dhaka", r.URL.Query().Get("district_name"))
			w.Write([]byte(`{"areas":[{"id":11,"name":"Mirpur","district_name":"Dhaka"},{"id":12,"name":"Dhanmondi Lake Road","district_name":"Dhaka"}]}`))
		}))
		defer server.Close()

		area, err := newRedXTestAdapter(t, server.URL).resolveArea(ctx, redxShipment())
		require.NoError(t, err)
		assert.Equal(t, 12, area.ID)
	})

	t.Run("scoped query failure falls back to full list", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("district_name") != "" {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			w.Write([]byte(`{"areas":[{"id":10,"name":"Dhanmondi","district_name":"Dhaka"}]}`))
		}))
		defer server.Close()

		area, err := newRedXTestAdapter(t, server.URL).resolveArea(ctx, redxShipment())
		require.NoError(t, err)
		assert.Equal(t, 10, area.ID)
	})

	t.Run("falls back to full list substring match", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("district_name") != "" {
				w.Write([]byte(`{"areas":[]}`))
				return
			}
			w.Write([]byte(`{"areas":[{"id":20,"name":"Dhanmondi Lake Road","district_name":"Dhaka"},{"id":21,"name":"Uttara","district_name":"Dhaka"}]}`))
		}))
		defer server.Close()

		area, err := newRedXTestAdapter(t, server.URL).resolveArea(ctx, redxShipment())
		require.NoError(t, err)
		assert.Equal(t, 20, area.ID)
	})

	t.Run("ambiguous substring narrowed by district", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("district_name") != "" {
				w.Write([]byte(`{"areas":[]}`))
				return
			}
			w.Write([]byte(`{"areas":[{"id":31,"name":"Dhanmondi","district_name":"Chattogram"},{"id":30,"name":"Dhanmondi","district_name":"Dhaka"}]}`))
		}))
		defer server.Close()

		area, err := newRedXTestAdapter(t, server.URL).resolveArea(ctx, redxShipment())
		require.NoError(t, err)
		assert.Equal(t, 30, area.ID)
	})

	t.Run("narrowing matches district substring", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("district_name") != "" {
				w.Write([]byte(`{"areas":[]}`))
				return
			}
			w.Write([]byte(`{"areas":[{"id":31,"name":"Dhanmondi","district_name":"Chattogram"},{"id":32,"name":"Dhanmondi","district_name":"Dhaka North"}]}`))
		}))
		defer server.Close()

		area, err := newRedXTestAdapter(t, server.URL).resolveArea(ctx, redxShipment())
		require.NoError(t, err)
		assert.Equal(t, 32, area.ID)
	})

	t.Run("remaining tie picks lowest id", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("district_name") != "" {
				w.Write([]byte(`{"areas":[]}`))
				return
			}
			w.Write([]byte(`{"areas":[{"id":42,"name":"Dhanmondi East","district_name":"Dhaka"},{"id":41,"name":"Dhanmondi West","district_name":"Dhaka"}]}`))
		}))
		defer server.Close()

		area, err := newRedXTestAdapter(t, server.URL).resolveArea(ctx, redxShipment())
		require.NoError(t, err)
		assert.Equal(t, 41, area.ID)
	})

	t.Run("no match is terminal", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"areas":[]}`))
		}))
		defer server.Close()

		_, err := newRedXTestAdapter(t, server.URL).resolveArea(ctx, redxShipment())
		var locErr *courier.LocationNotFoundError
		require.ErrorAs(t, err, &locErr)
		assert.Equal(t, courier.CourierRedX, locErr.Courier)
		assert.Equal(t, "Dhanmondi", locErr.Query)
	})

	t.Run("full list is cached", func(t *testing.T) {
		var fullListCalls int
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("district_name") != "" {
				w.Write([]byte(`{"areas":[]}`))
				return
			}
			fullListCalls++
			w.Write([]byte(`{"areas":[{"id":50,"name":"Dhanmondi","district_name":"Dhaka"}]}`))
		}))
		defer server.Close()

		adapter := newRedXTestAdapter(t, server.URL)
		for i := 0; i < 3; i++ {
			_, err := adapter.resolveArea(ctx, redxShipment())
			require.NoError(t, err)
		}
		assert.Equal(t, 1, fullListCalls)
	})
}

func TestRedXAdapter_CreateShipment(t *testing.T) {
	var parcelPayload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/areas":
			assert.Equal(t, "Bearer test-token", r.Header.Get("API-ACCESS-TOKEN"))
			w.Write([]byte(`{"areas":[{"id":10,"name":"Dhanmondi","district_name":"Dhaka"}]}`))
		case "/parcel":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&parcelPayload))
			w.Write([]byte(`{"tracking_id":"RDX123"}`))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	consignment, err := newRedXTestAdapter(t, server.URL).CreateShipment(context.Background(), redxShipment())
	require.NoError(t, err)

	// RedX has one identifier filling both roles
	assert.Equal(t, "RDX123", consignment.ConsignmentID)
	assert.Equal(t, "RDX123", consignment.TrackingCode)
	assert.Contains(t, consignment.RawResponse, "RDX123")

	assert.Equal(t, "Rahim Uddin", parcelPayload["customer_name"])
	assert.Equal(t, float64(10), parcelPayload["delivery_area_id"])
	assert.Equal(t, float64(500), parcelPayload["parcel_weight"])
	assert.Equal(t, "ORD-2026-0042", parcelPayload["merchant_invoice_id"])
	assert.Equal(t, float64(7), parcelPayload["pickup_store_id"])
	assert.Equal(t, "Cotton Saree", parcelPayload["description"])
}

func TestRedXAdapter_CreateShipment_MissingTrackingID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/areas" {
			w.Write([]byte(`{"areas":[{"id":10,"name":"Dhanmondi","district_name":"Dhaka"}]}`))
			return
		}
		w.Write([]byte(`{"status":"queued"}`))
	}))
	defer server.Close()

	_, err := newRedXTestAdapter(t, server.URL).CreateShipment(context.Background(), redxShipment())
	var apiErr *courier.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Contains(t, apiErr.Message, "tracking_id")
}
