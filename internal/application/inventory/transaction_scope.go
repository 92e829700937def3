package inventory

import (
	"context"

	"github.com/velora/backend/internal/domain/catalog"
	"github.com/velora/backend/internal/domain/inventory"
	"github.com/velora/backend/internal/domain/order"
)

// TransactionScope provides transactional access to the repositories a
// stock reservation touches. When a function is executed within a
// transaction scope, all repository operations will be part of the same
// database transaction and will be committed or rolled back atomically.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to repositories within a
// transaction. All repositories returned share the same underlying
// database transaction.
type TransactionalRepositories interface {
	// StockRepo returns the stock repository scoped to the current transaction
	StockRepo() inventory.StockRepository
	// OrderRepo returns the order repository scoped to the current transaction
	OrderRepo() order.Repository
	// ProductRepo returns the product repository scoped to the current transaction
	ProductRepo() catalog.ProductRepository
}

// NoOpTransactionScope is a transaction scope that doesn't actually use
// transactions. This is useful for testing or when transaction support is
// not required.
type NoOpTransactionScope struct {
	stockRepo   inventory.StockRepository
	orderRepo   order.Repository
	productRepo catalog.ProductRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	stockRepo inventory.StockRepository,
	orderRepo order.Repository,
	productRepo catalog.ProductRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		stockRepo:   stockRepo,
		orderRepo:   orderRepo,
		productRepo: productRepo,
	}
}

// Execute runs the function directly without a transaction
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// StockRepo returns the stock repository
func (s *NoOpTransactionScope) StockRepo() inventory.StockRepository { return s.stockRepo }

// OrderRepo returns the order repository
func (s *NoOpTransactionScope) OrderRepo() order.Repository { return s.orderRepo }

// ProductRepo returns the product repository
func (s *NoOpTransactionScope) ProductRepo() catalog.ProductRepository { return s.productRepo }

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
