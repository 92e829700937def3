package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	catalogapp "github.com/velora/backend/internal/application/catalog"
	inventoryapp "github.com/velora/backend/internal/application/inventory"
	orderapp "github.com/velora/backend/internal/application/order"
	shippingapp "github.com/velora/backend/internal/application/shipping"
	"github.com/velora/backend/internal/domain/catalog"
	domaininv "github.com/velora/backend/internal/domain/inventory"
	"github.com/velora/backend/internal/domain/order"
	"github.com/velora/backend/internal/infrastructure/auth"
	"github.com/velora/backend/internal/infrastructure/config"
	couriersvc "github.com/velora/backend/internal/infrastructure/courier"
	"github.com/velora/backend/internal/infrastructure/persistence"
	"github.com/velora/backend/internal/infrastructure/telemetry"
	"github.com/velora/backend/internal/interfaces/http/handler"
	"github.com/velora/backend/internal/interfaces/http/middleware"
	"github.com/velora/backend/internal/interfaces/http/router"
)

// testEnv wires the full HTTP stack against in-memory sqlite and a fake
// Steadfast API so requests travel the same path they would in production.
type testEnv struct {
	engine       *gin.Engine
	db           *gorm.DB
	token        string
	courierCalls *int
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, middleware.SetupValidator())

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&catalog.Product{}, &order.Order{}, &order.OrderItem{},
		&domaininv.StockItem{}, &domaininv.StockReservation{},
	))

	logger := zap.NewNop()
	metrics := telemetry.NewMetricsWithRegistry(prometheus.NewRegistry())

	courierCalls := 0
	fakeSteadfast := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		courierCalls++
		if r.Header.Get("Api-Key") != "sf-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"status":200,"message":"Consignment created",
			"consignment":{"consignment_id":987654,"tracking_code":"SF98TRACK","status":"in_review"}}`)
	}))
	t.Cleanup(fakeSteadfast.Close)

	gateway := couriersvc.NewGateway(5*time.Second, logger, couriersvc.WithMetrics(metrics))
	steadfast, err := couriersvc.NewSteadfastAdapter(config.SteadfastConfig{
		Enabled:   true,
		BaseURL:   fakeSteadfast.URL,
		APIKey:    "sf-key",
		SecretKey: "sf-secret",
	}, gateway, logger)
	require.NoError(t, err)

	registry := couriersvc.NewRegistry()
	require.NoError(t, registry.Register(steadfast))

	orderRepo := persistence.NewGormOrderRepository(db)
	productRepo := persistence.NewGormProductRepository(db)
	stockRepo := persistence.NewGormStockRepository(db)
	txScope := persistence.NewGormTransactionScope(db)

	orderService := orderapp.NewService(orderRepo, productRepo, logger)
	productService := catalogapp.NewProductService(productRepo, logger)
	stockService := inventoryapp.NewStockService(stockRepo, logger)
	reservationService := inventoryapp.NewReservationService(txScope, logger, metrics)
	dispatchService := shippingapp.NewDispatchService(
		orderRepo, productRepo, registry, reservationService, logger, metrics)

	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:          "integration-secret-at-least-32-chars!",
		TokenExpiration: time.Hour,
		Issuer:          "velora-test",
	})
	admin := config.AdminConfig{Username: "admin", Password: "s3cret"}

	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.Use(middleware.JWTAuth(jwtService))

	router.NewRouter(engine).
		Register(handler.NewAuthHandler(jwtService, admin, logger)).
		Register(handler.NewOrderHandler(orderService)).
		Register(handler.NewProductHandler(productService)).
		Register(handler.NewStockHandler(stockService, reservationService)).
		Register(handler.NewShippingHandler(dispatchService, registry, nil)).
		Setup()

	env := &testEnv{engine: engine, db: db, courierCalls: &courierCalls}

	login := env.request(t, http.MethodPost, "/api/v1/auth/login",
		`{"username":"admin","password":"s3cret"}`)
	require.Equal(t, http.StatusOK, login.Code)
	var loginResp struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(login.Body.Bytes(), &loginResp))
	require.NotEmpty(t, loginResp.Data.Token)
	env.token = loginResp.Data.Token

	return env
}

func (e *testEnv) request(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if e.token != "" {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func dataOf(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp struct {
		Success bool                   `json:"success"`
		Data    map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Success, "response: %s", w.Body.String())
	return resp.Data
}

func TestDispatchFlow(t *testing.T) {
	env := setupEnv(t)

	// Catalog
	w := env.request(t, http.MethodPost, "/api/v1/products",
		`{"sku":"SKU-PANJABI","name":"Silk Panjabi","price":3200,"weight_kg":0.8}`)
	require.Equal(t, http.StatusCreated, w.Code)
	productID := dataOf(t, w)["id"].(string)

	// Warehouse intake
	w = env.request(t, http.MethodPost, "/api/v1/stock/receive",
		fmt.Sprintf(`{"product_id":%q,"quantity":10}`, productID))
	require.Equal(t, http.StatusOK, w.Code)

	// Order lifecycle
	w = env.request(t, http.MethodPost, "/api/v1/orders", fmt.Sprintf(`{
		"order_number":"ORD-2026-0777",
		"recipient_name":"Karim Chowdhury",
		"recipient_phone":"01811223344",
		"address":"Flat 4B, House 22, Banani",
		"city":"Dhaka",
		"zone":"Banani",
		"items":[{"product_id":%q,"quantity":3}]
	}`, productID))
	require.Equal(t, http.StatusCreated, w.Code)
	orderID := dataOf(t, w)["id"].(string)

	w = env.request(t, http.MethodPost, "/api/v1/orders/"+orderID+"/confirm", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = env.request(t, http.MethodPost, "/api/v1/orders/"+orderID+"/assign-courier",
		`{"courier":"steadfast"}`)
	require.Equal(t, http.StatusOK, w.Code)

	// Dispatch books with the courier, reserves stock, marks shipped
	w = env.request(t, http.MethodPost, "/api/v1/orders/"+orderID+"/dispatch", "")
	require.Equal(t, http.StatusOK, w.Code, "body: %s", w.Body.String())
	dispatch := dataOf(t, w)
	assert.Equal(t, "987654", dispatch["consignment_id"])
	assert.Equal(t, "SF98TRACK", dispatch["tracking_code"])
	assert.Equal(t, "steadfast", dispatch["courier"])
	assert.Equal(t, 1, *env.courierCalls)

	// Stock was committed
	w = env.request(t, http.MethodGet, "/api/v1/stock/"+productID, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 7, dataOf(t, w)["on_hand"])

	// Order reached SHIPPED with courier identifiers persisted
	w = env.request(t, http.MethodGet, "/api/v1/orders/"+orderID, "")
	require.Equal(t, http.StatusOK, w.Code)
	stored := dataOf(t, w)
	assert.Equal(t, "SHIPPED", stored["status"])
	assert.Equal(t, "987654", stored["consignment_id"])

	// A second dispatch must not re-book
	w = env.request(t, http.MethodPost, "/api/v1/orders/"+orderID+"/dispatch", "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, 1, *env.courierCalls)
}

func TestDispatchFlow_InsufficientStock(t *testing.T) {
	env := setupEnv(t)

	w := env.request(t, http.MethodPost, "/api/v1/products",
		`{"sku":"SKU-SHAWL","name":"Pashmina Shawl","price":1800}`)
	require.Equal(t, http.StatusCreated, w.Code)
	productID := dataOf(t, w)["id"].(string)

	w = env.request(t, http.MethodPost, "/api/v1/stock/receive",
		fmt.Sprintf(`{"product_id":%q,"quantity":2}`, productID))
	require.Equal(t, http.StatusOK, w.Code)

	w = env.request(t, http.MethodPost, "/api/v1/orders", fmt.Sprintf(`{
		"order_number":"ORD-2026-0778",
		"recipient_name":"Karim Chowdhury",
		"recipient_phone":"01811223344",
		"address":"Flat 4B, House 22, Banani",
		"city":"Dhaka",
		"zone":"Banani",
		"items":[{"product_id":%q,"quantity":5}]
	}`, productID))
	require.Equal(t, http.StatusCreated, w.Code)
	orderID := dataOf(t, w)["id"].(string)

	env.request(t, http.MethodPost, "/api/v1/orders/"+orderID+"/confirm", "")
	env.request(t, http.MethodPost, "/api/v1/orders/"+orderID+"/assign-courier", `{"courier":"steadfast"}`)

	w = env.request(t, http.MethodPost, "/api/v1/orders/"+orderID+"/dispatch", "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, 0, *env.courierCalls, "courier must not be called when stock is short")

	// On-hand untouched after the failed dispatch
	w = env.request(t, http.MethodGet, "/api/v1/stock/"+productID, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, dataOf(t, w)["on_hand"])
}

func TestAuthRequired(t *testing.T) {
	env := setupEnv(t)
	env.token = ""

	w := env.request(t, http.MethodGet, "/api/v1/orders", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
