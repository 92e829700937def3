package handler

import (
	"crypto/subtle"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/velora/backend/internal/infrastructure/auth"
	"github.com/velora/backend/internal/infrastructure/config"
)

// AuthHandler handles admin panel authentication
type AuthHandler struct {
	BaseHandler
	jwtService *auth.JWTService
	admin      config.AdminConfig
	logger     *zap.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(jwtService *auth.JWTService, admin config.AdminConfig, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		jwtService: jwtService,
		admin:      admin,
		logger:     logger,
	}
}

// LoginRequest is the admin login request body
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the issued admin token
type LoginResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
	Username  string    `json:"username"`
}

// Login authenticates the configured admin user and issues a token
func (h *AuthHandler) Login(c *gin.Context) {
	if h.admin.Username == "" || h.admin.Password == "" {
		h.Unauthorized(c, "Admin login is not configured")
		return
	}

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(h.admin.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(req.Password), []byte(h.admin.Password)) == 1
	if !userOK || !passOK {
		h.logger.Warn("admin login rejected", zap.String("username", req.Username))
		h.Unauthorized(c, "Invalid credentials")
		return
	}

	issued, err := h.jwtService.Issue(uuid.New(), req.Username, auth.RoleAdmin)
	if err != nil {
		h.InternalError(c, "Failed to issue token")
		return
	}

	h.Success(c, LoginResponse{
		Token:     issued.Token,
		TokenType: issued.TokenType,
		ExpiresAt: issued.ExpiresAt,
		Username:  req.Username,
	})
}

// RegisterRoutes registers auth routes
func (h *AuthHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/auth/login", h.Login)
}
