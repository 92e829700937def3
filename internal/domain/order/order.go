package order

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/velora/backend/internal/domain/courier"
	"github.com/velora/backend/internal/domain/shared"
)

// OrderStatus represents the lifecycle status of an order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// CanTransitionTo checks if the status transition is valid
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	transitions := map[OrderStatus][]OrderStatus{
		OrderStatusPending:   {OrderStatusConfirmed, OrderStatusCancelled},
		OrderStatusConfirmed: {OrderStatusShipped, OrderStatusCancelled},
		OrderStatusShipped:   {OrderStatusDelivered},
		OrderStatusDelivered: {},
		OrderStatusCancelled: {},
	}
	allowed, ok := transitions[s]
	if !ok {
		return false
	}
	for _, t := range allowed {
		if t == target {
			return true
		}
	}
	return false
}

// Recipient is the delivery destination snapshot taken at checkout
type Recipient struct {
	Name    string `gorm:"column:recipient_name;type:varchar(255);not null"`
	Phone   string `gorm:"column:recipient_phone;type:varchar(32);not null"`
	Address string `gorm:"column:recipient_address;type:text;not null"`
	City    string `gorm:"column:recipient_city;type:varchar(128)"`
	Zone    string `gorm:"column:recipient_zone;type:varchar(128)"`
	Area    string `gorm:"column:recipient_area;type:varchar(128)"`
}

// Order is the sales order aggregate root
type Order struct {
	shared.BaseAggregateRoot
	OrderNumber     string              `gorm:"type:varchar(64);uniqueIndex;not null"`
	Status          OrderStatus         `gorm:"type:varchar(16);not null;default:'PENDING'"`
	Recipient       Recipient           `gorm:"embedded"`
	Items           []OrderItem         `gorm:"foreignKey:OrderID"`
	TotalAmount     decimal.Decimal     `gorm:"type:decimal(12,2);not null"`
	Note            string              `gorm:"type:text"`
	IsFake          bool                `gorm:"not null;default:false"`
	AssignedCourier courier.CourierCode `gorm:"type:varchar(32)"`
	ConsignmentID   string              `gorm:"type:varchar(128)"`
	TrackingCode    string              `gorm:"type:varchar(128)"`
	CourierStatus   string              `gorm:"type:varchar(64)"`
	CourierResponse string              `gorm:"type:text"`
	DeletedAt       gorm.DeletedAt      `gorm:"index"`
}

// TableName specifies the table name for GORM
func (Order) TableName() string {
	return "orders"
}

// OrderItem is a line item within an order
type OrderItem struct {
	shared.BaseEntity
	OrderID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null"`
	ProductName string          `gorm:"type:varchar(255);not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Quantity    int             `gorm:"not null"`
}

// TableName specifies the table name for GORM
func (OrderItem) TableName() string {
	return "order_items"
}

// Subtotal returns the line total
func (i *OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// NewOrder creates a new pending order
func NewOrder(orderNumber string, recipient Recipient) (*Order, error) {
	orderNumber = strings.TrimSpace(orderNumber)
	if orderNumber == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "order number cannot be empty")
	}
	if strings.TrimSpace(recipient.Name) == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "recipient name cannot be empty")
	}
	if strings.TrimSpace(recipient.Phone) == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "recipient phone cannot be empty")
	}
	if strings.TrimSpace(recipient.Address) == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "recipient address cannot be empty")
	}
	return &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderNumber:       orderNumber,
		Status:            OrderStatusPending,
		Recipient:         recipient,
		TotalAmount:       decimal.Zero,
	}, nil
}

// AddItem appends a line item and updates the order total
func (o *Order) AddItem(productID uuid.UUID, productName string, unitPrice decimal.Decimal, quantity int) error {
	if o.Status != OrderStatusPending {
		return shared.NewDomainError("INVALID_STATE", "can only add items to pending orders")
	}
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_INPUT", "item quantity must be positive")
	}
	item := OrderItem{
		BaseEntity:  shared.NewBaseEntity(),
		OrderID:     o.ID,
		ProductID:   productID,
		ProductName: productName,
		UnitPrice:   unitPrice,
		Quantity:    quantity,
	}
	o.Items = append(o.Items, item)
	o.TotalAmount = o.TotalAmount.Add(item.Subtotal())
	return nil
}

// Confirm moves the order to confirmed
func (o *Order) Confirm() error {
	if !o.Status.CanTransitionTo(OrderStatusConfirmed) {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("cannot confirm order in status %s", o.Status))
	}
	if len(o.Items) == 0 {
		return shared.NewDomainError("INVALID_STATE", "cannot confirm an order with no items")
	}
	o.Status = OrderStatusConfirmed
	return nil
}

// AssignCourier selects the courier that will deliver this order
func (o *Order) AssignCourier(code courier.CourierCode) error {
	if !code.IsValid() {
		return shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("unknown courier %q", code))
	}
	if o.Status == OrderStatusShipped || o.Status == OrderStatusDelivered {
		return shared.NewDomainError("INVALID_STATE", "cannot reassign courier after shipment")
	}
	o.AssignedCourier = code
	return nil
}

// Dispatched reports whether the order already holds a consignment
func (o *Order) Dispatched() bool {
	return o.ConsignmentID != ""
}

// RecordDispatch stores the booking result and moves the order to shipped.
// The consignment fields are write-once
func (o *Order) RecordDispatch(c *courier.Consignment) error {
	if o.Dispatched() {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("order %s already dispatched with consignment %s", o.OrderNumber, o.ConsignmentID))
	}
	if !o.Status.CanTransitionTo(OrderStatusShipped) {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("cannot ship order in status %s", o.Status))
	}
	o.Status = OrderStatusShipped
	o.ConsignmentID = c.ConsignmentID
	o.TrackingCode = c.TrackingCode
	o.CourierStatus = c.Status
	o.CourierResponse = c.RawResponse
	return nil
}

// MarkDelivered moves the order to delivered
func (o *Order) MarkDelivered() error {
	if !o.Status.CanTransitionTo(OrderStatusDelivered) {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("cannot deliver order in status %s", o.Status))
	}
	o.Status = OrderStatusDelivered
	return nil
}

// Cancel cancels the order
func (o *Order) Cancel() error {
	if !o.Status.CanTransitionTo(OrderStatusCancelled) {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("cannot cancel order in status %s", o.Status))
	}
	o.Status = OrderStatusCancelled
	return nil
}

// MarkFake flags the order as fraudulent so dispatch refuses it
func (o *Order) MarkFake() {
	o.IsFake = true
}

// TotalQuantity returns the number of physical units across all items
func (o *Order) TotalQuantity() int {
	total := 0
	for _, item := range o.Items {
		total += item.Quantity
	}
	return total
}
