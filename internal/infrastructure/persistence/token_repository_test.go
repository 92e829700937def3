package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/velora/backend/internal/domain/courier"
	"github.com/velora/backend/internal/domain/shared"
)

func setupTokenTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&courier.CourierToken{})
	require.NoError(t, err)
	return db
}

func TestGormTokenRepository_Upsert(t *testing.T) {
	db := setupTokenTestDB(t)
	repo := NewGormTokenRepository(db)
	ctx := context.Background()

	expiry := time.Now().Add(6 * time.Hour).Truncate(time.Second)

	first := &courier.CourierToken{
		BaseEntity:  shared.NewBaseEntity(),
		Courier:     courier.CourierPathao,
		AccessToken: "first-token",
		TokenType:   "Bearer",
		ExpiresAt:   expiry,
	}
	require.NoError(t, repo.Upsert(ctx, first))

	t.Run("replaces the stored token for the same courier", func(t *testing.T) {
		replacement := &courier.CourierToken{
			BaseEntity:   shared.NewBaseEntity(),
			Courier:      courier.CourierPathao,
			AccessToken:  "second-token",
			RefreshToken: "refresh",
			TokenType:    "Bearer",
			ExpiresAt:    expiry.Add(time.Hour),
		}
		require.NoError(t, repo.Upsert(ctx, replacement))

		stored, err := repo.Find(ctx, courier.CourierPathao)
		require.NoError(t, err)
		assert.Equal(t, "second-token", stored.AccessToken)
		assert.Equal(t, "refresh", stored.RefreshToken)

		var count int64
		require.NoError(t, db.Model(&courier.CourierToken{}).Count(&count).Error)
		assert.EqualValues(t, 1, count)
	})

	t.Run("couriers are isolated", func(t *testing.T) {
		_, err := repo.Find(ctx, courier.CourierSteadfast)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}
