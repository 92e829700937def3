package catalog

import (
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/velora/backend/internal/domain/shared"
)

// ProductStatus represents the lifecycle status of a product
type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "ACTIVE"
	ProductStatusInactive ProductStatus = "INACTIVE"
)

// DefaultWeightKG substitutes for products with no recorded weight
var DefaultWeightKG = decimal.NewFromFloat(0.5)

// Product is a sellable catalog item
type Product struct {
	shared.BaseAggregateRoot
	SKU         string          `gorm:"type:varchar(64);uniqueIndex;not null"`
	Name        string          `gorm:"type:varchar(255);not null"`
	Description string          `gorm:"type:text"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	WeightKG    decimal.NullDecimal `gorm:"type:decimal(8,3)"`
	Status      ProductStatus   `gorm:"type:varchar(16);not null;default:'ACTIVE'"`
	DeletedAt   gorm.DeletedAt  `gorm:"index"`
}

// TableName specifies the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates a new product
func NewProduct(sku, name string, price decimal.Decimal) (*Product, error) {
	sku = strings.TrimSpace(sku)
	name = strings.TrimSpace(name)
	if sku == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "product SKU cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "product name cannot be empty")
	}
	if price.IsNegative() {
		return nil, shared.NewDomainError("INVALID_INPUT", "product price cannot be negative")
	}
	return &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		SKU:               sku,
		Name:              name,
		Price:             price,
		Status:            ProductStatusActive,
	}, nil
}

// EffectiveWeightKG returns the product weight, substituting the default
// for products with no recorded weight
func (p *Product) EffectiveWeightKG() decimal.Decimal {
	if p.WeightKG.Valid {
		return p.WeightKG.Decimal
	}
	return DefaultWeightKG
}

// SetWeight records the product weight
func (p *Product) SetWeight(weightKG decimal.Decimal) error {
	if weightKG.IsNegative() {
		return shared.NewDomainError("INVALID_INPUT", "product weight cannot be negative")
	}
	p.WeightKG = decimal.NullDecimal{Decimal: weightKG, Valid: true}
	return nil
}

// Deactivate removes the product from sale
func (p *Product) Deactivate() {
	p.Status = ProductStatusInactive
}
