package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	shippingapp "github.com/velora/backend/internal/application/shipping"
	couriersvc "github.com/velora/backend/internal/infrastructure/courier"
	"github.com/velora/backend/internal/interfaces/http/dto"
)

// ShippingHandler handles dispatch and courier API endpoints
type ShippingHandler struct {
	BaseHandler
	dispatch *shippingapp.DispatchService
	registry *couriersvc.Registry
	pathao   *couriersvc.PathaoAdapter
}

// NewShippingHandler creates a new ShippingHandler. The pathao adapter is
// nil when Pathao is not configured.
func NewShippingHandler(dispatch *shippingapp.DispatchService, registry *couriersvc.Registry, pathao *couriersvc.PathaoAdapter) *ShippingHandler {
	return &ShippingHandler{
		dispatch: dispatch,
		registry: registry,
		pathao:   pathao,
	}
}

// DispatchResponse is the booking result in API responses
type DispatchResponse struct {
	OrderID       string `json:"order_id"`
	OrderNumber   string `json:"order_number"`
	Courier       string `json:"courier"`
	ConsignmentID string `json:"consignment_id"`
	TrackingCode  string `json:"tracking_code"`
	CourierStatus string `json:"courier_status,omitempty"`
}

// LocationSyncResponse reports the outcome of a Pathao location sync
type LocationSyncResponse struct {
	Cities int `json:"cities"`
	Zones  int `json:"zones"`
}

// Dispatch books a shipment for an order with its assigned courier
func (h *ShippingHandler) Dispatch(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	result, err := h.dispatch.Dispatch(c.Request.Context(), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, DispatchResponse{
		OrderID:       result.OrderID.String(),
		OrderNumber:   result.OrderNumber,
		Courier:       string(result.Courier),
		ConsignmentID: result.ConsignmentID,
		TrackingCode:  result.TrackingCode,
		CourierStatus: result.CourierStatus,
	})
}

// ListCouriers returns the codes of every registered courier
func (h *ShippingHandler) ListCouriers(c *gin.Context) {
	h.Success(c, gin.H{"couriers": h.registry.Codes()})
}

// SyncPathaoLocations refreshes the local Pathao city and zone table
func (h *ShippingHandler) SyncPathaoLocations(c *gin.Context) {
	if h.pathao == nil {
		h.ErrorWithCode(c, dto.ErrCodeCourierConfig, "courier pathao is not configured")
		return
	}

	cities, zones, err := h.pathao.SyncLocations(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, LocationSyncResponse{Cities: cities, Zones: zones})
}

// RegisterRoutes registers shipping routes
func (h *ShippingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/orders/:id/dispatch", h.Dispatch)

	couriers := rg.Group("/couriers")
	{
		couriers.GET("", h.ListCouriers)
		couriers.POST("/pathao/sync-locations", h.SyncPathaoLocations)
	}
}
