package courier

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/velora/backend/internal/domain/courier"
	"github.com/velora/backend/internal/domain/shared"
)

// tokenSafetyMargin keeps a token from being used so close to expiry that
// it lapses while a request is in flight
const tokenSafetyMargin = 60 * time.Second

// Grant is the payload returned by a courier token endpoint
type Grant struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresIn    int // seconds
}

// AcquireFunc fetches a fresh grant from a courier token endpoint
type AcquireFunc func(ctx context.Context) (*Grant, error)

// TokenManager caches OAuth tokens per courier, backed by the database so
// tokens survive restarts. Refresh happens lazily on the first request
// that finds the stored token missing or inside the safety margin.
type TokenManager struct {
	repo   courier.TokenRepository
	logger *zap.Logger
	now    func() time.Time

	mu sync.Mutex
}

// NewTokenManager creates a token manager
func NewTokenManager(repo courier.TokenRepository, logger *zap.Logger) *TokenManager {
	return &TokenManager{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// Token returns a usable access token for the courier, acquiring a new one
// when the stored token is missing or about to expire
func (m *TokenManager) Token(ctx context.Context, code courier.CourierCode, acquire AcquireFunc) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()

	stored, err := m.repo.Find(ctx, code)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return "", fmt.Errorf("failed to load %s token: %w", code, err)
	}
	if stored != nil && stored.Fresh(now, tokenSafetyMargin) {
		return stored.AccessToken, nil
	}

	m.logger.Info("acquiring courier access token", zap.String("courier", string(code)))

	grant, err := acquire(ctx)
	if err != nil {
		return "", err
	}
	if grant == nil || grant.AccessToken == "" {
		return "", &courier.TokenAcquisitionError{
			Courier: code,
			Reason:  "token endpoint returned no access_token",
		}
	}

	token := stored
	if token == nil {
		t := courier.CourierToken{Courier: code}
		t.BaseEntity = shared.NewBaseEntity()
		token = &t
	}
	token.AccessToken = grant.AccessToken
	token.RefreshToken = grant.RefreshToken
	token.TokenType = grant.TokenType
	token.ExpiresAt = now.Add(time.Duration(grant.ExpiresIn) * time.Second)
	token.UpdatedAt = now

	if err := m.repo.Upsert(ctx, token); err != nil {
		return "", fmt.Errorf("failed to persist %s token: %w", code, err)
	}

	return token.AccessToken, nil
}
