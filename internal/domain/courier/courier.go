package courier

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CourierCode identifies a supported delivery provider
type CourierCode string

const (
	CourierPathao    CourierCode = "pathao"
	CourierRedX      CourierCode = "redx"
	CourierSteadfast CourierCode = "steadfast"
)

// ParseCode validates a raw courier identifier
func ParseCode(raw string) (CourierCode, error) {
	switch CourierCode(raw) {
	case CourierPathao, CourierRedX, CourierSteadfast:
		return CourierCode(raw), nil
	default:
		return "", fmt.Errorf("unknown courier %q", raw)
	}
}

// IsValid reports whether the code names a supported courier
func (c CourierCode) IsValid() bool {
	_, err := ParseCode(string(c))
	return err == nil
}

// ShipmentRequest carries everything a courier needs to book a parcel
type ShipmentRequest struct {
	OrderID         uuid.UUID
	OrderNumber     string
	RecipientName   string
	RecipientPhone  string
	Address         string
	City            string
	Zone            string
	Area            string
	ItemCount       int
	ItemDescription string
	WeightKG        decimal.Decimal
	CashAmount      decimal.Decimal
	Note            string
}

// Consignment is the booking result returned by a courier
type Consignment struct {
	ConsignmentID string
	TrackingCode  string
	Status        string
	RawResponse   string
}

// Courier books shipments with one delivery provider
type Courier interface {
	Code() CourierCode
	Validate(req *ShipmentRequest) error
	CreateShipment(ctx context.Context, req *ShipmentRequest) (*Consignment, error)
}
