package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	orderapp "github.com/velora/backend/internal/application/order"
	"github.com/velora/backend/internal/domain/courier"
	"github.com/velora/backend/internal/domain/order"
	"github.com/velora/backend/internal/domain/shared"
	"github.com/velora/backend/internal/interfaces/http/dto"
)

// OrderHandler handles order API endpoints
type OrderHandler struct {
	BaseHandler
	orders *orderapp.Service
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orders *orderapp.Service) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// CreateOrderRequest is the request body for placing an order
type CreateOrderRequest struct {
	OrderNumber    string                   `json:"order_number" binding:"required,min=1,max=64"`
	RecipientName  string                   `json:"recipient_name" binding:"required,min=1,max=255"`
	RecipientPhone string                   `json:"recipient_phone" binding:"required,bd_mobile"`
	Address        string                   `json:"address" binding:"required,min=1"`
	City           string                   `json:"city" binding:"max=128"`
	Zone           string                   `json:"zone" binding:"max=128"`
	Area           string                   `json:"area" binding:"max=128"`
	Note           string                   `json:"note" binding:"max=1000"`
	Items          []CreateOrderItemRequest `json:"items" binding:"required,min=1,dive"`
}

// CreateOrderItemRequest is one line on a new order
type CreateOrderItemRequest struct {
	ProductID string `json:"product_id" binding:"required,uuid"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
}

// AssignCourierRequest selects the courier for a confirmed order
type AssignCourierRequest struct {
	Courier string `json:"courier" binding:"required,oneof=pathao redx steadfast"`
}

// OrderItemResponse is one order line in API responses
type OrderItemResponse struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	UnitPrice   string `json:"unit_price"`
	Quantity    int    `json:"quantity"`
	Subtotal    string `json:"subtotal"`
}

// OrderResponse is an order in API responses
type OrderResponse struct {
	ID              string              `json:"id"`
	OrderNumber     string              `json:"order_number"`
	Status          string              `json:"status"`
	RecipientName   string              `json:"recipient_name"`
	RecipientPhone  string              `json:"recipient_phone"`
	Address         string              `json:"address"`
	City            string              `json:"city,omitempty"`
	Zone            string              `json:"zone,omitempty"`
	Area            string              `json:"area,omitempty"`
	Items           []OrderItemResponse `json:"items"`
	TotalAmount     string              `json:"total_amount"`
	Note            string              `json:"note,omitempty"`
	IsFake          bool                `json:"is_fake"`
	AssignedCourier string              `json:"assigned_courier,omitempty"`
	ConsignmentID   string              `json:"consignment_id,omitempty"`
	TrackingCode    string              `json:"tracking_code,omitempty"`
	CourierStatus   string              `json:"courier_status,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

func toOrderResponse(o *order.Order) OrderResponse {
	items := make([]OrderItemResponse, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, OrderItemResponse{
			ProductID:   item.ProductID.String(),
			ProductName: item.ProductName,
			UnitPrice:   item.UnitPrice.StringFixed(2),
			Quantity:    item.Quantity,
			Subtotal:    item.Subtotal().StringFixed(2),
		})
	}
	return OrderResponse{
		ID:              o.ID.String(),
		OrderNumber:     o.OrderNumber,
		Status:          string(o.Status),
		RecipientName:   o.Recipient.Name,
		RecipientPhone:  o.Recipient.Phone,
		Address:         o.Recipient.Address,
		City:            o.Recipient.City,
		Zone:            o.Recipient.Zone,
		Area:            o.Recipient.Area,
		Items:           items,
		TotalAmount:     o.TotalAmount.StringFixed(2),
		Note:            o.Note,
		IsFake:          o.IsFake,
		AssignedCourier: string(o.AssignedCourier),
		ConsignmentID:   o.ConsignmentID,
		TrackingCode:    o.TrackingCode,
		CourierStatus:   o.CourierStatus,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

// Create places a new order
func (h *OrderHandler) Create(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	appReq := orderapp.CreateOrderRequest{
		OrderNumber: req.OrderNumber,
		Recipient: order.Recipient{
			Name:    req.RecipientName,
			Phone:   req.RecipientPhone,
			Address: req.Address,
			City:    req.City,
			Zone:    req.Zone,
			Area:    req.Area,
		},
		Note: req.Note,
	}
	for _, item := range req.Items {
		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			h.BadRequest(c, "Invalid product ID format")
			return
		}
		appReq.Items = append(appReq.Items, orderapp.CreateOrderItemInput{
			ProductID: productID,
			Quantity:  item.Quantity,
		})
	}

	o, err := h.orders.Create(c.Request.Context(), appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toOrderResponse(o))
}

// Get returns one order by ID
func (h *OrderHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	o, err := h.orders.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toOrderResponse(o))
}

// List returns orders matching the query filters
func (h *OrderHandler) List(c *gin.Context) {
	req := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 20
	}

	filter := shared.Filter{
		Page:     req.Page,
		PageSize: req.PageSize,
		OrderBy:  req.OrderBy,
		OrderDir: req.OrderDir,
		Filters:  map[string]any{},
	}
	if status := c.Query("status"); status != "" {
		filter.Filters["status"] = status
	}
	if code := c.Query("courier"); code != "" {
		filter.Filters["courier"] = code
	}
	if isFake := c.Query("is_fake"); isFake != "" {
		filter.Filters["is_fake"] = isFake == "true"
	}

	orders, total, err := h.orders.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	out := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderResponse(o))
	}
	h.SuccessWithMeta(c, out, total, req.Page, req.PageSize)
}

// Confirm moves a pending order to confirmed
func (h *OrderHandler) Confirm(c *gin.Context) {
	h.transition(c, h.orders.Confirm)
}

// AssignCourier selects the courier for an order
func (h *OrderHandler) AssignCourier(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	var req AssignCourierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	code, err := courier.ParseCode(req.Courier)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	o, err := h.orders.AssignCourier(c.Request.Context(), id, code)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toOrderResponse(o))
}

// Cancel cancels an order that has not shipped
func (h *OrderHandler) Cancel(c *gin.Context) {
	h.transition(c, h.orders.Cancel)
}

// MarkDelivered records final delivery of a shipped order
func (h *OrderHandler) MarkDelivered(c *gin.Context) {
	h.transition(c, h.orders.MarkDelivered)
}

// MarkFake flags an order as fake so it never dispatches
func (h *OrderHandler) MarkFake(c *gin.Context) {
	h.transition(c, h.orders.MarkFake)
}

// transition parses the ID and applies one lifecycle operation
func (h *OrderHandler) transition(c *gin.Context, fn func(ctx context.Context, id uuid.UUID) (*order.Order, error)) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}
	o, err := fn(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toOrderResponse(o))
}

// RegisterRoutes registers order routes
func (h *OrderHandler) RegisterRoutes(rg *gin.RouterGroup) {
	orders := rg.Group("/orders")
	{
		orders.POST("", h.Create)
		orders.GET("", h.List)
		orders.GET("/:id", h.Get)
		orders.POST("/:id/confirm", h.Confirm)
		orders.POST("/:id/assign-courier", h.AssignCourier)
		orders.POST("/:id/cancel", h.Cancel)
		orders.POST("/:id/deliver", h.MarkDelivered)
		orders.POST("/:id/mark-fake", h.MarkFake)
	}
}
