package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/velora/backend/internal/domain/catalog"
	"github.com/velora/backend/internal/domain/shared"
)

// CreateProductRequest carries the fields for a new catalog entry
type CreateProductRequest struct {
	SKU         string
	Name        string
	Description string
	Price       decimal.Decimal
	WeightKG    *decimal.Decimal
}

// ProductService implements catalog maintenance operations
type ProductService struct {
	products catalog.ProductRepository
	logger   *zap.Logger
}

// NewProductService creates a product service
func NewProductService(products catalog.ProductRepository, logger *zap.Logger) *ProductService {
	return &ProductService{
		products: products,
		logger:   logger,
	}
}

// Create adds a product to the catalog
func (s *ProductService) Create(ctx context.Context, req CreateProductRequest) (*catalog.Product, error) {
	if _, err := s.products.FindBySKU(ctx, req.SKU); err == nil {
		return nil, shared.NewDomainError("ALREADY_EXISTS",
			fmt.Sprintf("product with SKU %s already exists", req.SKU))
	}

	p, err := catalog.NewProduct(req.SKU, req.Name, req.Price)
	if err != nil {
		return nil, err
	}
	p.Description = req.Description
	if req.WeightKG != nil {
		if err := p.SetWeight(*req.WeightKG); err != nil {
			return nil, err
		}
	}

	if err := s.products.Save(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info("product created",
		zap.String("sku", p.SKU),
		zap.String("name", p.Name))
	return p, nil
}

// Get returns one product by ID
func (s *ProductService) Get(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	return s.products.FindByID(ctx, id)
}

// List returns products matching the filter
func (s *ProductService) List(ctx context.Context, filter shared.Filter) ([]*catalog.Product, int64, error) {
	return s.products.List(ctx, filter)
}

// SetWeight records the shipping weight of a product
func (s *ProductService) SetWeight(ctx context.Context, id uuid.UUID, weightKG decimal.Decimal) (*catalog.Product, error) {
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := p.SetWeight(weightKG); err != nil {
		return nil, err
	}
	if err := s.products.Save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Deactivate removes a product from sale without deleting it
func (s *ProductService) Deactivate(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Deactivate()
	if err := s.products.Save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}
