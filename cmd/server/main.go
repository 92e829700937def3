package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	catalogapp "github.com/velora/backend/internal/application/catalog"
	inventoryapp "github.com/velora/backend/internal/application/inventory"
	orderapp "github.com/velora/backend/internal/application/order"
	shippingapp "github.com/velora/backend/internal/application/shipping"
	"github.com/velora/backend/internal/domain/courier"
	"github.com/velora/backend/internal/infrastructure/auth"
	"github.com/velora/backend/internal/infrastructure/cache"
	"github.com/velora/backend/internal/infrastructure/config"
	couriersvc "github.com/velora/backend/internal/infrastructure/courier"
	"github.com/velora/backend/internal/infrastructure/logger"
	"github.com/velora/backend/internal/infrastructure/persistence"
	"github.com/velora/backend/internal/infrastructure/telemetry"
	"github.com/velora/backend/internal/interfaces/http/handler"
	"github.com/velora/backend/internal/interfaces/http/middleware"
	"github.com/velora/backend/internal/interfaces/http/router"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	logCfg := logger.DefaultConfig()
	if cfg.App.Env == "production" {
		logCfg = logger.ProductionConfig()
	}
	if cfg.Log.Level != "" {
		logCfg.Level = cfg.Log.Level
	}
	if cfg.Log.Format != "" {
		logCfg.Format = cfg.Log.Format
	}
	if cfg.Log.Output != "" {
		logCfg.Output = cfg.Log.Output
	}
	zapLogger, err := logger.New(logCfg)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer zapLogger.Sync()

	zapLogger.Info("starting server",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("version", version),
	)
	for _, override := range cfg.Overrides() {
		zapLogger.Info("config override from environment", zap.String("key", override))
	}

	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		zapLogger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	metrics := telemetry.NewMetrics()

	var areaCache cache.AreaCache
	if cfg.Redis.Enabled {
		redisCache, err := cache.NewRedisAreaCache(cfg.Redis, zapLogger)
		if err != nil {
			zapLogger.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer redisCache.Close()
		areaCache = redisCache
	} else {
		zapLogger.Info("redis disabled, using in-memory area cache")
		areaCache = cache.NewInMemoryAreaCache()
	}

	// Repositories
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	stockRepo := persistence.NewGormStockRepository(db.DB)
	tokenRepo := persistence.NewGormTokenRepository(db.DB)
	locationRepo := persistence.NewGormLocationRepository(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)

	// Courier adapters
	gatewayOpts := []couriersvc.GatewayOption{couriersvc.WithMetrics(metrics)}
	if cfg.Couriers.RedX.ForceProductionURL {
		gatewayOpts = append(gatewayOpts,
			couriersvc.WithAuthHint(courier.CourierRedX, couriersvc.RedXAuthHint))
	}
	gateway := couriersvc.NewGateway(cfg.Couriers.RequestTimeout, zapLogger, gatewayOpts...)
	tokenManager := couriersvc.NewTokenManager(tokenRepo, zapLogger)

	registry := couriersvc.NewRegistry()
	var pathaoAdapter *couriersvc.PathaoAdapter
	if cfg.Couriers.Pathao.Enabled {
		adapter, err := couriersvc.NewPathaoAdapter(cfg.Couriers.Pathao, gateway, tokenManager, locationRepo, zapLogger)
		if err != nil {
			zapLogger.Fatal("pathao enabled but misconfigured", zap.Error(err))
		}
		if err := registry.Register(adapter); err != nil {
			zapLogger.Fatal("failed to register pathao adapter", zap.Error(err))
		}
		pathaoAdapter = adapter
	}
	if cfg.Couriers.RedX.Enabled {
		adapter, err := couriersvc.NewRedXAdapter(cfg.Couriers, gateway, areaCache, zapLogger)
		if err != nil {
			zapLogger.Fatal("redx enabled but misconfigured", zap.Error(err))
		}
		if err := registry.Register(adapter); err != nil {
			zapLogger.Fatal("failed to register redx adapter", zap.Error(err))
		}
	}
	if cfg.Couriers.Steadfast.Enabled {
		adapter, err := couriersvc.NewSteadfastAdapter(cfg.Couriers.Steadfast, gateway, zapLogger)
		if err != nil {
			zapLogger.Fatal("steadfast enabled but misconfigured", zap.Error(err))
		}
		if err := registry.Register(adapter); err != nil {
			zapLogger.Fatal("failed to register steadfast adapter", zap.Error(err))
		}
	}
	zapLogger.Info("courier adapters registered", zap.Any("couriers", registry.Codes()))

	// Application services
	orderService := orderapp.NewService(orderRepo, productRepo, zapLogger)
	productService := catalogapp.NewProductService(productRepo, zapLogger)
	stockService := inventoryapp.NewStockService(stockRepo, zapLogger)
	reservationService := inventoryapp.NewReservationService(txScope, zapLogger, metrics)
	dispatchService := shippingapp.NewDispatchService(
		orderRepo, productRepo, registry, reservationService, zapLogger, metrics)

	jwtService := auth.NewJWTService(cfg.JWT)

	if err := middleware.SetupValidator(); err != nil {
		zapLogger.Fatal("failed to register validators", zap.Error(err))
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(zapLogger))

	corsConfig := middleware.DefaultCORSConfig()
	if len(cfg.HTTP.CORSAllowOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))
	engine.Use(middleware.JWTAuth(jwtService))

	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			zapLogger.Fatal("invalid trusted proxies", zap.Error(err))
		}
	}

	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.NewRouter(engine).
		Register(handler.NewSystemHandler(db, version)).
		Register(handler.NewAuthHandler(jwtService, cfg.Admin, zapLogger)).
		Register(handler.NewOrderHandler(orderService)).
		Register(handler.NewProductHandler(productService)).
		Register(handler.NewStockHandler(stockService, reservationService)).
		Register(handler.NewShippingHandler(dispatchService, registry, pathaoAdapter)).
		Setup()

	server := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		zapLogger.Info("http server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("http server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		zapLogger.Error("graceful shutdown failed", zap.Error(err))
	}
	zapLogger.Info("server stopped")
}
