package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"balance-topup/internal/auth"
	"balance-topup/internal/models"
	"balance-topup/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

const multipartOverhead = 1 << 20

// BalanceHandler serves the user side of the top-up workflow
type BalanceHandler struct {
	topUpService    *services.TopUpService
	referralService *services.ReferralService
	adminService    *services.AdminService
	maxReceiptSize  int64
}

func NewBalanceHandler(
	topUpService *services.TopUpService,
	referralService *services.ReferralService,
	adminService *services.AdminService,
	maxReceiptSize int64,
) *BalanceHandler {
	return &BalanceHandler{
		topUpService:    topUpService,
		referralService: referralService,
		adminService:    adminService,
		maxReceiptSize:  maxReceiptSize,
	}
}

// CreateTopUp opens a new request
// POST /api/balance/create
func (h *BalanceHandler) CreateTopUp(c *gin.Context) {
	telegramID, ok := auth.GetTelegramID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req struct {
		Amount decimal.Decimal `json:"amount"`
		Method string          `json:"method" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	result, err := h.topUpService.CreateRequest(c.Request.Context(), telegramID, req.Amount, req.Method)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"order_id":             result.Request.OrderID,
			"amount":               result.Request.Amount,
			"method":               result.Request.Method,
			"status":               result.Request.Status,
			"payment_instructions": result.Instructions,
		},
	})
}

// ownRequest loads a request and hides it from anyone but its owner
func (h *BalanceHandler) ownRequest(c *gin.Context, telegramID int64) (*models.TopUpRequest, bool) {
	req, err := h.topUpService.GetRequest(c.Request.Context(), c.Param("order_id"))
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	if req.TelegramID != telegramID {
		respondError(c, services.ErrRequestNotFound)
		return nil, false
	}
	return req, true
}

// UploadReceipt attaches proof of payment to a pending request
// POST /api/balance/upload-receipt/:order_id
func (h *BalanceHandler) UploadReceipt(c *gin.Context) {
	telegramID, ok := auth.GetTelegramID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	if _, ok := h.ownRequest(c, telegramID); !ok {
		return
	}

	// room for the multipart envelope around the file
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxReceiptSize+multipartOverhead)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, h.tooLarge())
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "file is required"})
		return
	}
	if fileHeader.Size > h.maxReceiptSize {
		respondError(c, h.tooLarge())
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "could not read file"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxReceiptSize+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "could not read file"})
		return
	}

	req, err := h.topUpService.AttachReceipt(c.Request.Context(), c.Param("order_id"), services.ReceiptFile{
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        fileHeader.Size,
	}, data)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    req,
	})
}

func (h *BalanceHandler) tooLarge() error {
	return &services.FileRejectedError{Reason: fmt.Sprintf("file too large (max %dMB)", h.maxReceiptSize/(1024*1024))}
}

// MarkPaid sends a request with a receipt to admin review
// POST /api/balance/mark-paid/:order_id
func (h *BalanceHandler) MarkPaid(c *gin.Context) {
	telegramID, ok := auth.GetTelegramID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	if _, ok := h.ownRequest(c, telegramID); !ok {
		return
	}

	req, err := h.topUpService.MarkPaid(c.Request.Context(), c.Param("order_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    req,
	})
}

// ListRequests returns the caller's requests, newest first
// GET /api/balance/requests
func (h *BalanceHandler) ListRequests(c *gin.Context) {
	telegramID, ok := auth.GetTelegramID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	requests, err := h.topUpService.ListRequests(c.Request.Context(), telegramID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    requests,
	})
}

// PaymentMethods lists the available payment channels
// GET /api/balance/methods
func (h *BalanceHandler) PaymentMethods(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    h.topUpService.PaymentMethods(),
	})
}

// GetReceipt streams a stored receipt to its owner or an admin
// GET /api/balance/receipt/:order_id
func (h *BalanceHandler) GetReceipt(c *gin.Context) {
	telegramID, ok := auth.GetTelegramID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	ctx := c.Request.Context()
	orderID := c.Param("order_id")

	req, err := h.topUpService.GetRequest(ctx, orderID)
	if err != nil {
		respondError(c, err)
		return
	}
	if req.TelegramID != telegramID && !h.adminService.IsAdmin(ctx, telegramID) {
		respondError(c, services.ErrRequestNotFound)
		return
	}

	artifact, err := h.topUpService.GetReceipt(ctx, orderID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", artifact.Filename))
	c.Data(http.StatusOK, artifact.ContentType, artifact.Data)
}

// GetStatement returns the caller's ledger entries
// GET /api/balance/statement?limit=20&offset=0
func (h *BalanceHandler) GetStatement(c *gin.Context) {
	telegramID, ok := auth.GetTelegramID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	statement, err := h.referralService.GetStatement(c.Request.Context(), telegramID, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    statement,
	})
}
