package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/velora/backend/internal/domain/inventory"
)

func setupStockTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&inventory.StockItem{}, &inventory.StockReservation{})
	require.NoError(t, err)
	return db
}

func TestGormStockRepository_GetOrCreate(t *testing.T) {
	db := setupStockTestDB(t)
	repo := NewGormStockRepository(db)
	ctx := context.Background()

	productID := uuid.New()

	t.Run("creates an empty row on first access", func(t *testing.T) {
		item, err := repo.GetOrCreate(ctx, productID)
		require.NoError(t, err)
		assert.Equal(t, productID, item.ProductID)
		assert.Equal(t, 0, item.OnHand)
	})

	t.Run("returns the existing row afterwards", func(t *testing.T) {
		require.NoError(t, db.Model(&inventory.StockItem{}).
			Where("product_id = ?", productID).
			Update("on_hand", 12).Error)

		item, err := repo.GetOrCreate(ctx, productID)
		require.NoError(t, err)
		assert.Equal(t, 12, item.OnHand)

		var count int64
		require.NoError(t, db.Model(&inventory.StockItem{}).Count(&count).Error)
		assert.EqualValues(t, 1, count)
	})
}

func TestGormStockRepository_DeductOnHand(t *testing.T) {
	db := setupStockTestDB(t)
	repo := NewGormStockRepository(db)
	ctx := context.Background()

	productID := uuid.New()
	item := inventory.NewStockItem(productID)
	require.NoError(t, item.Receive(5))
	require.NoError(t, db.Create(item).Error)

	t.Run("deducts when enough stock remains", func(t *testing.T) {
		ok, err := repo.DeductOnHand(ctx, productID, 3)
		require.NoError(t, err)
		assert.True(t, ok)

		stored, err := repo.FindByProductID(ctx, productID)
		require.NoError(t, err)
		assert.Equal(t, 2, stored.OnHand)
		assert.Equal(t, 2, stored.Version)
	})

	t.Run("allows draining to exactly zero", func(t *testing.T) {
		ok, err := repo.DeductOnHand(ctx, productID, 2)
		require.NoError(t, err)
		assert.True(t, ok)

		stored, err := repo.FindByProductID(ctx, productID)
		require.NoError(t, err)
		assert.Equal(t, 0, stored.OnHand)
	})

	t.Run("refuses when stock would go negative", func(t *testing.T) {
		ok, err := repo.DeductOnHand(ctx, productID, 1)
		require.NoError(t, err)
		assert.False(t, ok)

		stored, err := repo.FindByProductID(ctx, productID)
		require.NoError(t, err)
		assert.Equal(t, 0, stored.OnHand)
	})

	t.Run("refuses for products without a stock row", func(t *testing.T) {
		ok, err := repo.DeductOnHand(ctx, uuid.New(), 1)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestGormStockRepository_Reservations(t *testing.T) {
	db := setupStockTestDB(t)
	repo := NewGormStockRepository(db)
	ctx := context.Background()

	orderID := uuid.New()
	productID := uuid.New()

	t.Run("records and lists reservations", func(t *testing.T) {
		require.NoError(t, repo.CreateReservation(ctx, inventory.NewStockReservation(orderID, productID, 2)))

		reservations, err := repo.FindReservations(ctx, orderID)
		require.NoError(t, err)
		require.Len(t, reservations, 1)
		assert.Equal(t, productID, reservations[0].ProductID)
		assert.Equal(t, 2, reservations[0].Quantity)
	})

	t.Run("rejects a second reservation for the same line", func(t *testing.T) {
		err := repo.CreateReservation(ctx, inventory.NewStockReservation(orderID, productID, 2))
		assert.Error(t, err)
	})

	t.Run("other orders are not visible", func(t *testing.T) {
		reservations, err := repo.FindReservations(ctx, uuid.New())
		require.NoError(t, err)
		assert.Empty(t, reservations)
	})
}

func TestGormStockRepository_FindByProductIDs(t *testing.T) {
	db := setupStockTestDB(t)
	repo := NewGormStockRepository(db)
	ctx := context.Background()

	first := inventory.NewStockItem(uuid.New())
	require.NoError(t, first.Receive(3))
	require.NoError(t, db.Create(first).Error)
	second := inventory.NewStockItem(uuid.New())
	require.NoError(t, db.Create(second).Error)

	items, err := repo.FindByProductIDs(ctx, []uuid.UUID{first.ProductID, second.ProductID, uuid.New()})
	require.NoError(t, err)
	assert.Len(t, items, 2)

	items, err = repo.FindByProductIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, items)
}
