package courier

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/velora/backend/internal/domain/courier"
	"github.com/velora/backend/internal/domain/shared"
)

// fakeTokenRepo is an in-memory TokenRepository
type fakeTokenRepo struct {
	tokens  map[courier.CourierCode]*courier.CourierToken
	upserts int
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{tokens: make(map[courier.CourierCode]*courier.CourierToken)}
}

func (r *fakeTokenRepo) Find(_ context.Context, code courier.CourierCode) (*courier.CourierToken, error) {
	token, ok := r.tokens[code]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *token
	return &copied, nil
}

func (r *fakeTokenRepo) Upsert(_ context.Context, token *courier.CourierToken) error {
	r.upserts++
	copied := *token
	r.tokens[token.Courier] = &copied
	return nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestTokenManager_Token(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	acquired := func(token string, expiresIn int) AcquireFunc {
		return func(context.Context) (*Grant, error) {
			return &Grant{AccessToken: token, TokenType: "Bearer", ExpiresIn: expiresIn}, nil
		}
	}

	t.Run("acquires and persists when no token stored", func(t *testing.T) {
		repo := newFakeTokenRepo()
		m := NewTokenManager(repo, zap.NewNop())
		m.now = fixedClock(now)

		token, err := m.Token(ctx, courier.CourierPathao, acquired("tok-1", 3600))
		require.NoError(t, err)
		assert.Equal(t, "tok-1", token)
		assert.Equal(t, 1, repo.upserts)

		stored := repo.tokens[courier.CourierPathao]
		require.NotNil(t, stored)
		assert.Equal(t, now.Add(time.Hour), stored.ExpiresAt)
	})

	t.Run("reuses fresh stored token without acquiring", func(t *testing.T) {
		repo := newFakeTokenRepo()
		m := NewTokenManager(repo, zap.NewNop())
		m.now = fixedClock(now)

		_, err := m.Token(ctx, courier.CourierPathao, acquired("tok-1", 3600))
		require.NoError(t, err)

		token, err := m.Token(ctx, courier.CourierPathao, func(context.Context) (*Grant, error) {
			t.Fatal("acquire should not be called for a fresh token")
			return nil, nil
		})
		require.NoError(t, err)
		assert.Equal(t, "tok-1", token)
	})

	t.Run("token inside safety margin is replaced", func(t *testing.T) {
		repo := newFakeTokenRepo()
		m := NewTokenManager(repo, zap.NewNop())
		m.now = fixedClock(now)

		// Expires in 30s, within the 60s margin
		_, err := m.Token(ctx, courier.CourierPathao, acquired("tok-old", 30))
		require.NoError(t, err)

		token, err := m.Token(ctx, courier.CourierPathao, acquired("tok-new", 3600))
		require.NoError(t, err)
		assert.Equal(t, "tok-new", token)
		assert.Equal(t, 2, repo.upserts)
	})

	t.Run("token outside safety margin is kept", func(t *testing.T) {
		repo := newFakeTokenRepo()
		m := NewTokenManager(repo, zap.NewNop())
		m.now = fixedClock(now)

		// Expires in 120s, outside the 60s margin
		_, err := m.Token(ctx, courier.CourierPathao, acquired("tok-1", 120))
		require.NoError(t, err)

		token, err := m.Token(ctx, courier.CourierPathao, acquired("tok-2", 3600))
		require.NoError(t, err)
		assert.Equal(t, "tok-1", token)
	})

	t.Run("grant without access_token fails", func(t *testing.T) {
		repo := newFakeTokenRepo()
		m := NewTokenManager(repo, zap.NewNop())
		m.now = fixedClock(now)

		_, err := m.Token(ctx, courier.CourierPathao, func(context.Context) (*Grant, error) {
			return &Grant{ExpiresIn: 3600}, nil
		})

		var tokenErr *courier.TokenAcquisitionError
		require.ErrorAs(t, err, &tokenErr)
		assert.Equal(t, courier.CourierPathao, tokenErr.Courier)
		assert.Equal(t, 0, repo.upserts)
	})
}

func TestCourierToken_Fresh(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		expiresAt time.Time
		fresh     bool
	}{
		{"well before expiry", now.Add(time.Hour), true},
		{"just outside margin", now.Add(61 * time.Second), true},
		{"exactly at margin", now.Add(60 * time.Second), false},
		{"inside margin", now.Add(30 * time.Second), false},
		{"already expired", now.Add(-time.Minute), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := &courier.CourierToken{ExpiresAt: tt.expiresAt}
			assert.Equal(t, tt.fresh, token.Fresh(now, 60*time.Second))
		})
	}
}
