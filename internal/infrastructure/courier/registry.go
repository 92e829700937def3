package courier

import (
	"fmt"
	"sort"

	"github.com/velora/backend/internal/domain/courier"
)

// Registry holds the configured courier adapters keyed by code
type Registry struct {
	couriers map[courier.CourierCode]courier.Courier
}

// NewRegistry creates an empty courier registry
func NewRegistry() *Registry {
	return &Registry{
		couriers: make(map[courier.CourierCode]courier.Courier),
	}
}

// Register adds an adapter. Registering the same code twice is a wiring
// mistake and fails loudly.
func (r *Registry) Register(c courier.Courier) error {
	code := c.Code()
	if _, exists := r.couriers[code]; exists {
		return fmt.Errorf("courier %s registered twice", code)
	}
	r.couriers[code] = c
	return nil
}

// Get returns the adapter for a courier code
func (r *Registry) Get(code courier.CourierCode) (courier.Courier, error) {
	c, ok := r.couriers[code]
	if !ok {
		return nil, fmt.Errorf("courier %s is not configured", code)
	}
	return c, nil
}

// Codes lists the registered courier codes in stable order
func (r *Registry) Codes() []courier.CourierCode {
	codes := make([]courier.CourierCode, 0, len(r.couriers))
	for code := range r.couriers {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}
