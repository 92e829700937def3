package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	inventoryapp "github.com/velora/backend/internal/application/inventory"
	"github.com/velora/backend/internal/domain/inventory"
)

// StockHandler handles warehouse stock API endpoints
type StockHandler struct {
	BaseHandler
	stock        *inventoryapp.StockService
	reservations *inventoryapp.ReservationService
}

// NewStockHandler creates a new StockHandler
func NewStockHandler(stock *inventoryapp.StockService, reservations *inventoryapp.ReservationService) *StockHandler {
	return &StockHandler{
		stock:        stock,
		reservations: reservations,
	}
}

// ReceiveStockRequest books received quantity for a product
type ReceiveStockRequest struct {
	ProductID string `json:"product_id" binding:"required,uuid"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
}

// AvailabilityCheckRequest asks whether a set of lines can be fulfilled
type AvailabilityCheckRequest struct {
	Lines []AvailabilityLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// AvailabilityLineRequest is one product demand in an availability check
type AvailabilityLineRequest struct {
	ProductID string `json:"product_id" binding:"required,uuid"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
}

// StockItemResponse is a stock row in API responses
type StockItemResponse struct {
	ProductID string `json:"product_id"`
	OnHand    int    `json:"on_hand"`
}

// ShortfallResponse is one uncovered line in an availability report
type ShortfallResponse struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name,omitempty"`
	Requested   int    `json:"requested"`
	Available   int    `json:"available"`
}

// AvailabilityResponse is the result of an availability check
type AvailabilityResponse struct {
	Available  bool                `json:"available"`
	Shortfalls []ShortfallResponse `json:"shortfalls,omitempty"`
}

func toStockItemResponse(item *inventory.StockItem) StockItemResponse {
	return StockItemResponse{
		ProductID: item.ProductID.String(),
		OnHand:    item.OnHand,
	}
}

// Receive books received quantity into the on-hand count
func (h *StockHandler) Receive(c *gin.Context) {
	var req ReceiveStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		h.BadRequest(c, "Invalid product ID format")
		return
	}

	item, err := h.stock.Receive(c.Request.Context(), productID, req.Quantity)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toStockItemResponse(item))
}

// Get returns the stock row for a product
func (h *StockHandler) Get(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("product_id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID format")
		return
	}

	item, err := h.stock.Get(c.Request.Context(), productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toStockItemResponse(item))
}

// CheckAvailability reports whether every requested line can be fulfilled
func (h *StockHandler) CheckAvailability(c *gin.Context) {
	var req AvailabilityCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	lines := make([]inventoryapp.Line, 0, len(req.Lines))
	for _, line := range req.Lines {
		productID, err := uuid.Parse(line.ProductID)
		if err != nil {
			h.BadRequest(c, "Invalid product ID format")
			return
		}
		lines = append(lines, inventoryapp.Line{ProductID: productID, Quantity: line.Quantity})
	}

	report, err := h.reservations.CheckAvailability(c.Request.Context(), lines)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	resp := AvailabilityResponse{Available: report.Available}
	for _, s := range report.Shortfalls {
		resp.Shortfalls = append(resp.Shortfalls, ShortfallResponse{
			ProductID:   s.ProductID.String(),
			ProductName: s.ProductName,
			Requested:   s.Requested,
			Available:   s.Available,
		})
	}
	h.Success(c, resp)
}

// RegisterRoutes registers stock routes
func (h *StockHandler) RegisterRoutes(rg *gin.RouterGroup) {
	stock := rg.Group("/stock")
	{
		stock.POST("/receive", h.Receive)
		stock.GET("/:product_id", h.Get)
		stock.POST("/check-availability", h.CheckAvailability)
	}
}
