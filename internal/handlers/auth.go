package handlers

import (
	"net/http"
	"time"

	"balance-topup/internal/auth"
	"balance-topup/internal/services"

	"github.com/gin-gonic/gin"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService *services.AuthService
	userService *services.UserService
	botToken    string
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService *services.AuthService, userService *services.UserService, botToken string) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		userService: userService,
		botToken:    botToken,
	}
}

// TelegramLogin exchanges signed Telegram WebApp initData for a token. The user is
// created on first login; a start parameter is treated as a referral code.
// POST /auth/telegram
func (h *AuthHandler) TelegramLogin(c *gin.Context) {
	var req struct {
		InitData string `json:"init_data" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	login, err := auth.ValidateInitData(h.botToken, req.InitData, time.Now())
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid telegram init data"})
		return
	}

	user, created, err := h.authService.ProcessTelegramLogin(c.Request.Context(), services.TelegramProfile{
		ID:        login.User.ID,
		Username:  login.User.Username,
		FirstName: login.User.FirstName,
		LastName:  login.User.LastName,
	}, login.StartParam)
	if err != nil {
		respondError(c, err)
		return
	}

	token, err := auth.GenerateToken(user.ID, user.TelegramID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":   token,
		"user":    user,
		"created": created,
	})
}

// GetMe returns the currently authenticated user's profile
// GET /auth/me
func (h *AuthHandler) GetMe(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	user, err := h.userService.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": user,
	})
}
