package handlers

import (
	"net/http"
	"strconv"

	"balance-topup/internal/auth"
	"balance-topup/internal/services"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	adminService *services.AdminService
	topUpService *services.TopUpService
}

func NewAdminHandler(adminService *services.AdminService, topUpService *services.TopUpService) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
		topUpService: topUpService,
	}
}

// AdminMiddleware checks if user is admin
func (h *AdminHandler) AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		telegramID, exists := auth.GetTelegramID(c)
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		if !h.adminService.IsAdmin(c.Request.Context(), telegramID) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Not an admin"})
			c.Abort()
			return
		}

		c.Set("admin_telegram_id", telegramID)
		c.Next()
	}
}

// ProcessTopUp approves or rejects a request awaiting review. An already decided
// request yields 409 "request already processed"; one not yet submitted for review
// yields 409 with the invalid state error. Neither has side effects.
// POST /api/admin/process/:order_id
func (h *AdminHandler) ProcessTopUp(c *gin.Context) {
	adminID := c.GetInt64("admin_telegram_id")

	var req struct {
		Action  string `json:"action" binding:"required"`
		Comment string `json:"comment"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	result, err := h.topUpService.Decide(c.Request.Context(), services.DecideInput{
		OrderID: c.Param("order_id"),
		Action:  services.DecisionAction(req.Action),
		AdminID: adminID,
		Comment: req.Comment,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	if result.Outcome == services.OutcomeConflict {
		c.JSON(http.StatusConflict, gin.H{
			"success":        false,
			"message":        "request already processed",
			"current_status": result.Status,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}

// GetPendingRequests returns the review queue, oldest first
// GET /api/admin/pending?limit=50
func (h *AdminHandler) GetPendingRequests(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	requests, err := h.topUpService.PendingReview(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    requests,
	})
}

// GetRequest returns any request by order id
// GET /api/admin/requests/:order_id
func (h *AdminHandler) GetRequest(c *gin.Context) {
	req, err := h.topUpService.GetRequest(c.Request.Context(), c.Param("order_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    req,
	})
}

// GetAdminLogs returns the audit trail
// GET /api/admin/logs?limit=50&offset=0
func (h *AdminHandler) GetAdminLogs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	logs, total, err := h.adminService.GetAdminLogs(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    logs,
		"total":   total,
	})
}
