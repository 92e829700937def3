package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velora/backend/internal/infrastructure/auth"
	"github.com/velora/backend/internal/infrastructure/config"
)

func newJWTTestService(t *testing.T, expiration time.Duration) *auth.JWTService {
	t.Helper()
	return auth.NewJWTService(config.JWTConfig{
		Secret:          "test-secret-key-at-least-32-chars-long",
		TokenExpiration: expiration,
		Issuer:          "velora-test",
	})
}

func jwtTestEngine(svc *auth.JWTService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(JWTAuth(svc))
	engine.GET("/api/v1/orders", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id":  c.GetString(JWTUserIDKey),
			"username": c.GetString(JWTUsernameKey),
		})
	})
	engine.GET("/api/v1/health", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return engine
}

func errorCodeOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Error.Code
}

func TestJWTAuth(t *testing.T) {
	svc := newJWTTestService(t, time.Hour)
	engine := jwtTestEngine(svc)

	t.Run("missing header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "ERR_UNAUTHORIZED", errorCodeOf(t, w))
	})

	t.Run("malformed header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
		req.Header.Set(AuthHeaderKey, "Basic dXNlcjpwYXNz")
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "ERR_TOKEN_INVALID", errorCodeOf(t, w))
	})

	t.Run("valid token sets identity", func(t *testing.T) {
		userID := uuid.New()
		issued, err := svc.Issue(userID, "admin", auth.RoleAdmin)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
		req.Header.Set(AuthHeaderKey, BearerPrefix+issued.Token)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var body map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, userID.String(), body["user_id"])
		assert.Equal(t, "admin", body["username"])
	})

	t.Run("expired token", func(t *testing.T) {
		expiredSvc := newJWTTestService(t, -time.Minute)
		issued, err := expiredSvc.Issue(uuid.New(), "admin", auth.RoleAdmin)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
		req.Header.Set(AuthHeaderKey, BearerPrefix+issued.Token)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "ERR_TOKEN_EXPIRED", errorCodeOf(t, w))
	})

	t.Run("tampered token", func(t *testing.T) {
		otherSvc := auth.NewJWTService(config.JWTConfig{
			Secret:          "another-secret-key-also-32-chars-min",
			TokenExpiration: time.Hour,
			Issuer:          "velora-test",
		})
		issued, err := otherSvc.Issue(uuid.New(), "admin", auth.RoleAdmin)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
		req.Header.Set(AuthHeaderKey, BearerPrefix+issued.Token)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "ERR_TOKEN_INVALID", errorCodeOf(t, w))
	})

	t.Run("skip path bypasses auth", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}
