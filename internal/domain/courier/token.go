package courier

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/velora/backend/internal/domain/shared"
)

// CourierToken is a persisted OAuth access token for one courier
type CourierToken struct {
	shared.BaseEntity
	Courier      CourierCode `gorm:"type:varchar(32);uniqueIndex;not null"`
	AccessToken  string      `gorm:"type:text;not null"`
	RefreshToken string      `gorm:"type:text"`
	TokenType    string      `gorm:"type:varchar(32)"`
	ExpiresAt    time.Time   `gorm:"not null"`
	DeletedAt    gorm.DeletedAt
}

// TableName specifies the table name for GORM
func (CourierToken) TableName() string {
	return "courier_tokens"
}

// Fresh reports whether the token is still usable at the given instant.
// A token inside the safety margin of its expiry counts as expired so a
// request never leaves with a token about to lapse mid-flight.
func (t *CourierToken) Fresh(now time.Time, margin time.Duration) bool {
	return now.Add(margin).Before(t.ExpiresAt)
}

// TokenRepository persists courier OAuth tokens
type TokenRepository interface {
	Find(ctx context.Context, courier CourierCode) (*CourierToken, error)
	Upsert(ctx context.Context, token *CourierToken) error
}
